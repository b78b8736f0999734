package pickups

import (
	"net/http"

	"foodbridge/models"
	"foodbridge/reservations"
	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Manager     *Manager
	Coordinator *reservations.Coordinator
}

type claimRequest struct {
	ListingID string `json:"listing_id"`
	Notes     string `json:"notes"`
}

// ClaimListing handles POST /pickups; a lost race is answered with 409.
func (h *Handler) ClaimListing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	var req claimRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	p, err := h.Coordinator.Claim(r.Context(), actor, req.ListingID, req.Notes)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPickups(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	q := r.URL.Query()
	pickups, err := h.Manager.List(r.Context(), actor, ListQuery{
		Status:    models.PickupStatus(q.Get("status")),
		ListingID: q.Get("listing_id"),
		NGOID:     q.Get("ngo_id"),
	})
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, pickups)
}

func (h *Handler) GetPickup(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	p, err := h.Manager.Get(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

type statusRequest struct {
	Status models.PickupStatus `json:"status"`
	Notes  string              `json:"notes"`
}

func (h *Handler) UpdatePickupStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	var req statusRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	p, err := h.Manager.Advance(r.Context(), actor, ps.ByName("id"), req.Status, req.Notes)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

type redistributionRequest struct {
	BeneficiariesCount int      `json:"beneficiaries_count"`
	PortionSize        *float64 `json:"portion_size"`
	Notes              string   `json:"notes"`
}

func (h *Handler) LogRedistribution(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	var req redistributionRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	rec, err := h.Manager.LogRedistribution(r.Context(), actor, ps.ByName("id"), RedistributionInput{
		BeneficiariesCount: req.BeneficiariesCount,
		PortionSize:        req.PortionSize,
		Notes:              req.Notes,
	})
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetRedistribution(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	rec, err := h.Manager.GetRedistribution(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}
