package models

import "time"

type PickupStatus string

const (
	PickupPending   PickupStatus = "pending"
	PickupAccepted  PickupStatus = "accepted"
	PickupEnRoute   PickupStatus = "en_route"
	PickupCollected PickupStatus = "collected"
	PickupDelivered PickupStatus = "delivered"
)

// TransitionNote is free text attached to the step that reached Status.
type TransitionNote struct {
	Status PickupStatus `json:"status" bson:"status"`
	Note   string       `json:"note" bson:"note"`
	At     time.Time    `json:"at" bson:"at"`
}

// Pickup is one NGO's claim on one listing.
type Pickup struct {
	ID              string       `json:"id" bson:"id"`
	ListingID       string       `json:"listing_id" bson:"listing_id"`
	ListingName     string       `json:"listing_name" bson:"listing_name"`
	ListingQuantity float64      `json:"listing_quantity" bson:"listing_quantity"`
	DonorID         string       `json:"donor_id" bson:"donor_id"`
	DonorName       string       `json:"donor_name" bson:"donor_name"`
	NGOID           string       `json:"ngo_id" bson:"ngo_id"`
	NGOName         string       `json:"ngo_name" bson:"ngo_name"`
	Status          PickupStatus `json:"status" bson:"status"`
	// Timestamps is keyed by status and written once, when that status is reached.
	Timestamps map[string]time.Time `json:"timestamps" bson:"timestamps"`
	Notes      []TransitionNote     `json:"notes" bson:"notes"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// ReachedAt returns when the pickup reached status, if it has.
func (p Pickup) ReachedAt(status PickupStatus) (time.Time, bool) {
	t, ok := p.Timestamps[string(status)]
	return t, ok
}

// RedistributionRecord is post-delivery proof of who received the food.
type RedistributionRecord struct {
	ID                 string    `json:"id" bson:"id"`
	PickupID           string    `json:"pickup_id" bson:"pickup_id"`
	ListingID          string    `json:"listing_id" bson:"listing_id"`
	NGOID              string    `json:"ngo_id" bson:"ngo_id"`
	DonorID            string    `json:"donor_id" bson:"donor_id"`
	BeneficiariesCount int       `json:"beneficiaries_count" bson:"beneficiaries_count"`
	PortionSize        float64   `json:"portion_size" bson:"portion_size"`
	Notes              string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}
