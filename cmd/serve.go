package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodbridge/config"
	"foodbridge/db"
	"foodbridge/globals"
	"foodbridge/mq"
	"foodbridge/ratelim"
	"foodbridge/rdx"
	"foodbridge/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// backends holds the connections a command needs. close releases them.
type backends struct {
	store  *db.MongoStore
	events mq.Publisher
	close  func()
}

func connect(ctx context.Context, cfg *config.Config) (*backends, error) {
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		store.Disconnect(context.Background())
		return nil, err
	}

	b := &backends{store: store, events: mq.Nop{}}
	conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// Events are best effort; the API still works without Redis.
		log.Printf("redis unavailable, events disabled: %v", err)
	} else {
		b.events = mq.NewRedisPublisher(conn, cfg.EventsChannel)
	}

	b.close = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Disconnect(ctx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
		if conn != nil {
			conn.Close()
		}
	}
	return b, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	globals.JwtSecret = []byte(cfg.JWTSecret)
	return cfg, nil
}

func appOptions(cfg *config.Config) routes.Options {
	return routes.Options{
		TokenTTL:            cfg.TokenTTL,
		ChartDays:           cfg.ChartDays,
		MinDeliveredPickups: cfg.MinDeliveredPickups,
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	app := routes.NewApp(b.store, b.events, appOptions(cfg))
	if cfg.AdminEmail != "" {
		if err := app.AuthSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go app.ListingSvc.RunExpirySweep(ctx, cfg.SweepInterval)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup(3 * time.Minute)
			}
		}
	}()

	router := httprouter.New()
	routes.RoutesWrapper(router, app, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           loggingMiddleware(securityHeaders(corsHandler)),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Println("Server stopped cleanly")
	return nil
}
