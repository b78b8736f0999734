package models

import "time"

type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingAvailable ListingStatus = "available"
	ListingReserved  ListingStatus = "reserved"
	ListingPickedUp  ListingStatus = "picked_up"
	ListingDelivered ListingStatus = "delivered"
	ListingExpired   ListingStatus = "expired"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingDraft, ListingAvailable, ListingReserved, ListingPickedUp, ListingDelivered, ListingExpired:
		return true
	}
	return false
}

// Editable reports whether the donor may still change listing content.
func (s ListingStatus) Editable() bool {
	return s == ListingDraft || s == ListingAvailable
}

type Category string

const (
	CategoryCooked           Category = "cooked"
	CategoryRaw              Category = "raw"
	CategoryPackaged         Category = "packaged"
	CategoryBakery           Category = "bakery"
	CategoryDairy            Category = "dairy"
	CategoryFruitsVegetables Category = "fruits_vegetables"
	CategoryOther            Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCooked,
	CategoryRaw,
	CategoryPackaged,
	CategoryBakery,
	CategoryDairy,
	CategoryFruitsVegetables,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type StorageCondition string

const (
	StorageRoomTemp     StorageCondition = "room_temp"
	StorageRefrigerated StorageCondition = "refrigerated"
	StorageFrozen       StorageCondition = "frozen"
)

func (s StorageCondition) Valid() bool {
	switch s {
	case StorageRoomTemp, StorageRefrigerated, StorageFrozen:
		return true
	}
	return false
}

type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Listing is a unit of donated food.
type Listing struct {
	ID               string           `json:"id" bson:"id"`
	DonorID          string           `json:"donor_id" bson:"donor_id"`
	DonorName        string           `json:"donor_name" bson:"donor_name"`
	FoodName         string           `json:"food_name" bson:"food_name"`
	Category         Category         `json:"category" bson:"category"`
	Quantity         float64          `json:"quantity" bson:"quantity"`
	StorageCondition StorageCondition `json:"storage_condition" bson:"storage_condition"`
	PreparationTime  *time.Time       `json:"preparation_time,omitempty" bson:"preparation_time,omitempty"`
	ExpiryTime       time.Time        `json:"expiry_time" bson:"expiry_time"`
	PickupAddress    string           `json:"pickup_address" bson:"pickup_address"`
	Location         Location         `json:"location" bson:"location"`
	UrgentFlag       bool             `json:"urgent_flag" bson:"urgent_flag"`
	Status           ListingStatus    `json:"status" bson:"status"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

// EffectiveStatus applies lazy expiry: a draft or available listing whose
// expiry has passed reads as expired even before the sweeper stores it.
func (l Listing) EffectiveStatus(now time.Time) ListingStatus {
	if l.Status.Editable() && !now.Before(l.ExpiryTime) {
		return ListingExpired
	}
	return l.Status
}
