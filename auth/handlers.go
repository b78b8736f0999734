package auth

import (
	"net/http"

	"foodbridge/models"
	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Svc *Service
}

type registerRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        models.Role `json:"role"`
	OrgName     string      `json:"org_name"`
	ServiceArea string      `json:"service_area"`
	Phone       string      `json:"phone"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	sess, err := h.Svc.Register(r.Context(), RegisterInput(req))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sess)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	sess, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := h.Svc.Profile(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}
