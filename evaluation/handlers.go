package evaluation

import (
	"net/http"

	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res, err := h.Svc.Evaluate(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GetRecommendation answers 422 until enough pickups have been delivered.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	m, err := h.Svc.Recommendation(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m)
}
