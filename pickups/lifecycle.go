package pickups

import "foodbridge/models"

// lifecycle is the total order of pickup statuses.
var lifecycle = []models.PickupStatus{
	models.PickupPending,
	models.PickupAccepted,
	models.PickupEnRoute,
	models.PickupCollected,
	models.PickupDelivered,
}

// Successor returns the status after s. ok is false for delivered and for
// unknown statuses.
func Successor(s models.PickupStatus) (next models.PickupStatus, ok bool) {
	for i, status := range lifecycle {
		if status == s && i+1 < len(lifecycle) {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

func IsTerminal(s models.PickupStatus) bool {
	return s == models.PickupDelivered
}

func ValidStatus(s models.PickupStatus) bool {
	for _, status := range lifecycle {
		if status == s {
			return true
		}
	}
	return false
}

// listingStatusFor is the listing status that mirrors a pickup reaching s,
// or "" when the listing stays as it is.
func listingStatusFor(s models.PickupStatus) models.ListingStatus {
	switch s {
	case models.PickupCollected:
		return models.ListingPickedUp
	case models.PickupDelivered:
		return models.ListingDelivered
	}
	return ""
}
