package rdx

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	log.Printf("connected to redis at %s", addr)
	return conn, nil
}
