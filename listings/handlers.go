package listings

import (
	"net/http"
	"time"

	"foodbridge/models"
	"foodbridge/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Svc *Service
}

type listingRequest struct {
	FoodName         *string                  `json:"food_name"`
	Category         *models.Category         `json:"category"`
	Quantity         *float64                 `json:"quantity"`
	StorageCondition *models.StorageCondition `json:"storage_condition"`
	PreparationTime  *string                  `json:"preparation_time"`
	ExpiryTime       *string                  `json:"expiry_time"`
	PickupAddress    *string                  `json:"pickup_address"`
	Latitude         *float64                 `json:"latitude"`
	Longitude        *float64                 `json:"longitude"`
	UrgentFlag       *bool                    `json:"urgent_flag"`
	Status           *models.ListingStatus    `json:"status"`
}

// optionalTime treats an empty string like an absent field.
func optionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := utils.ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (req listingRequest) toUpdate() (UpdateInput, error) {
	prep, err := optionalTime(req.PreparationTime)
	if err != nil {
		return UpdateInput{}, err
	}
	expiry, err := optionalTime(req.ExpiryTime)
	if err != nil {
		return UpdateInput{}, err
	}
	return UpdateInput{
		FoodName:         req.FoodName,
		Category:         req.Category,
		Quantity:         req.Quantity,
		StorageCondition: req.StorageCondition,
		PreparationTime:  prep,
		ExpiryTime:       expiry,
		PickupAddress:    req.PickupAddress,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		UrgentFlag:       req.UrgentFlag,
		Status:           req.Status,
	}, nil
}

func (req listingRequest) toCreate() (CreateInput, error) {
	u, err := req.toUpdate()
	if err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		PreparationTime: u.PreparationTime,
		Latitude:        u.Latitude,
		Longitude:       u.Longitude,
	}
	if u.FoodName != nil {
		in.FoodName = *u.FoodName
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Quantity != nil {
		in.Quantity = *u.Quantity
	}
	if u.StorageCondition != nil {
		in.StorageCondition = *u.StorageCondition
	}
	if u.ExpiryTime != nil {
		in.ExpiryTime = *u.ExpiryTime
	}
	if u.PickupAddress != nil {
		in.PickupAddress = *u.PickupAddress
	}
	if u.UrgentFlag != nil {
		in.UrgentFlag = *u.UrgentFlag
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	return in, nil
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	var req listingRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	in, err := req.toCreate()
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	l, err := h.Svc.Create(r.Context(), actor, in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, l)
}

func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	listings, err := h.Svc.List(r.Context(), ListQuery{
		DonorID:  q.Get("donor_id"),
		Status:   models.ListingStatus(q.Get("status")),
		Category: models.Category(q.Get("category")),
	})
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, listings)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	l, err := h.Svc.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, l)
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := utils.ActorFromRequest(r)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	var req listingRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	in, err := req.toUpdate()
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	l, err := h.Svc.Update(r.Context(), actor, ps.ByName("id"), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, l)
}
