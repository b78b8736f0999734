package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"foodbridge/errs"
	"foodbridge/evaluation"
	"foodbridge/models"
	"foodbridge/store"
	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

const defaultAuditLimit = 100

type Handler struct {
	Store      store.Store
	Evaluation *evaluation.Service
	Now        func() time.Time
}

func NewHandler(s store.Store, eval *evaluation.Service) *Handler {
	return &Handler{Store: s, Evaluation: eval, Now: time.Now}
}

// GetUsers lists accounts, optionally filtered by ?role=.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		utils.RespondWithErr(w, r, errs.Validation("unknown role %q", role))
		return
	}
	users, err := h.Store.ListUsers(r.Context(), role)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// GetAuditLogs returns the newest entries first, ?limit= (default 100).
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	entries, err := h.Store.ListAudit(r.Context(), utils.QueryInt(r, "limit", defaultAuditLimit))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}

type Stats struct {
	Users    map[models.Role]int          `json:"users"`
	Listings map[models.ListingStatus]int `json:"listings"`
	Pickups  map[models.PickupStatus]int  `json:"pickups"`
	// Recommended is nil until evaluation has enough data.
	Recommended *evaluation.Model `json:"recommended"`
}

func (h *Handler) stats(ctx context.Context) (Stats, error) {
	st := Stats{
		Users:    map[models.Role]int{},
		Listings: map[models.ListingStatus]int{},
		Pickups:  map[models.PickupStatus]int{},
	}
	users, err := h.Store.ListUsers(ctx, "")
	if err != nil {
		return st, err
	}
	for _, u := range users {
		st.Users[u.Role]++
	}
	listings, err := h.Store.ListListings(ctx, store.ListingFilter{})
	if err != nil {
		return st, err
	}
	now := h.Now().UTC()
	for _, l := range listings {
		st.Listings[l.EffectiveStatus(now)]++
	}
	pickups, err := h.Store.ListPickups(ctx, store.PickupFilter{})
	if err != nil {
		return st, err
	}
	for _, p := range pickups {
		st.Pickups[p.Status]++
	}

	if h.Evaluation != nil {
		m, err := h.Evaluation.Recommendation(ctx)
		switch {
		case err == nil:
			st.Recommended = &m
		case !errors.Is(err, errs.ErrInsufficientData):
			return st, err
		}
	}
	return st, nil
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := h.stats(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st)
}
