package routes

import (
	"time"

	"foodbridge/activity"
	"foodbridge/admin"
	"foodbridge/analytics"
	"foodbridge/auth"
	"foodbridge/evaluation"
	"foodbridge/listings"
	"foodbridge/mq"
	"foodbridge/pickups"
	"foodbridge/reservations"
	"foodbridge/store"
)

type Options struct {
	TokenTTL            time.Duration
	ChartDays           int
	MinDeliveredPickups int
}

// App wires every service to one store and event publisher.
type App struct {
	AuthSvc     *auth.Service
	ListingSvc  *listings.Service
	Coordinator *reservations.Coordinator
	PickupMgr   *pickups.Manager
	Analytics   *analytics.Service
	Evaluation  *evaluation.Service
	Admin       *admin.Handler
}

func NewApp(s store.Store, events mq.Publisher, opts Options) *App {
	audit := activity.NewRecorder(s)
	impact := analytics.NewService(s, opts.ChartDays)
	eval := evaluation.NewService(impact, opts.MinDeliveredPickups)
	return &App{
		AuthSvc:     auth.NewService(s, audit, opts.TokenTTL),
		ListingSvc:  listings.NewService(s, events, audit),
		Coordinator: reservations.NewCoordinator(s, events, audit),
		PickupMgr:   pickups.NewManager(s, events, audit),
		Analytics:   impact,
		Evaluation:  eval,
		Admin:       admin.NewHandler(s, eval),
	}
}

// SetClock points every service at now. Tests use it to pin time.
func (a *App) SetClock(now func() time.Time) {
	a.AuthSvc.Now = now
	a.ListingSvc.Now = now
	a.Coordinator.Now = now
	a.PickupMgr.Now = now
	a.Analytics.Now = now
	a.Admin.Now = now
	if rec := a.ListingSvc.Audit; rec != nil {
		rec.Now = now
	}
}
