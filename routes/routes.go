package routes

import (
	"fmt"
	"net/http"

	"foodbridge/analytics"
	"foodbridge/auth"
	"foodbridge/evaluation"
	"foodbridge/listings"
	"foodbridge/middleware"
	"foodbridge/models"
	"foodbridge/pickups"
	"foodbridge/ratelim"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, app *App, rateLimiter *ratelim.RateLimiter) {
	router.GET("/health", Index)
	AddAuthRoutes(router, app, rateLimiter)
	AddListingRoutes(router, app)
	AddPickupRoutes(router, app, rateLimiter)
	AddAnalyticsRoutes(router, app)
	AddEvaluationRoutes(router, app)
	AddAdminRoutes(router, app)
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddAuthRoutes(router *httprouter.Router, app *App, rateLimiter *ratelim.RateLimiter) {
	h := &auth.Handler{Svc: app.AuthSvc}
	router.POST("/api/auth/register", rateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))
	router.GET("/api/auth/profile", middleware.Authenticate(h.Profile))
}

func AddListingRoutes(router *httprouter.Router, app *App) {
	h := &listings.Handler{Svc: app.ListingSvc}
	router.GET("/api/listings", middleware.Authenticate(h.GetListings))
	router.POST("/api/listings", middleware.Authenticate(middleware.RequireRole(h.CreateListing, models.RoleDonor)))
	router.GET("/api/listings/:id", middleware.Authenticate(h.GetListing))
	router.PUT("/api/listings/:id", middleware.Authenticate(middleware.RequireRole(h.UpdateListing, models.RoleDonor, models.RoleAdmin)))
}

func AddPickupRoutes(router *httprouter.Router, app *App, rateLimiter *ratelim.RateLimiter) {
	h := &pickups.Handler{Manager: app.PickupMgr, Coordinator: app.Coordinator}
	router.POST("/api/pickups", rateLimiter.Limit(middleware.Authenticate(middleware.RequireRole(h.ClaimListing, models.RoleNGO, models.RoleAdmin))))
	router.GET("/api/pickups", middleware.Authenticate(h.GetPickups))
	router.GET("/api/pickups/:id", middleware.Authenticate(h.GetPickup))
	router.PUT("/api/pickups/:id/status", middleware.Authenticate(h.UpdatePickupStatus))
	router.POST("/api/pickups/:id/redistribution", middleware.Authenticate(h.LogRedistribution))
	router.GET("/api/pickups/:id/redistribution", middleware.Authenticate(h.GetRedistribution))
}

func AddAnalyticsRoutes(router *httprouter.Router, app *App) {
	h := &analytics.Handler{Svc: app.Analytics}
	router.GET("/api/analytics/dashboard", middleware.Authenticate(h.GetDashboard))
	router.GET("/api/analytics/charts", middleware.Authenticate(h.GetCharts))
}

func AddEvaluationRoutes(router *httprouter.Router, app *App) {
	h := &evaluation.Handler{Svc: app.Evaluation}
	router.GET("/api/evaluation", middleware.Authenticate(h.GetEvaluation))
	router.GET("/api/evaluation/recommendation", middleware.Authenticate(h.GetRecommendation))
}

func AddAdminRoutes(router *httprouter.Router, app *App) {
	h := app.Admin
	adminOnly := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(middleware.RequireRole(next, models.RoleAdmin))
	}
	router.GET("/api/admin/users", adminOnly(h.GetUsers))
	router.GET("/api/admin/audit-logs", adminOnly(h.GetAuditLogs))
	router.GET("/api/admin/stats", adminOnly(h.GetStats))
}
