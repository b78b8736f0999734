package analytics

import (
	"net/http"
	"strconv"

	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	d, err := h.Svc.Dashboard(r.Context(), actor)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, d)
}

// GetCharts accepts ?days=N and ?view=delivered.
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	charts, err := h.Svc.Charts(r.Context(), actor, days, CategoryView(r.URL.Query().Get("view")))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, charts)
}
