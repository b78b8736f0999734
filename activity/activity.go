package activity

import (
	"context"
	"fmt"
	"log"
	"time"

	"foodbridge/models"
	"foodbridge/store"

	"github.com/google/uuid"
)

const (
	ActionRegister       = "register"
	ActionLogin          = "login"
	ActionCreateListing  = "create_listing"
	ActionUpdateListing  = "update_listing"
	ActionClaimListing   = "claim_listing"
	ActionAdvancePickup  = "update_pickup_status"
	ActionRedistribution = "log_redistribution"
	ActionExpireListings = "expire_listings"
)

// Recorder appends audit entries. A failed append is logged, not returned:
// the action it describes has already happened.
type Recorder struct {
	Store store.Store
	Now   func() time.Time
}

func NewRecorder(s store.Store) *Recorder {
	return &Recorder{Store: s, Now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, userID, email, action, format string, args ...any) {
	if r == nil || r.Store == nil {
		return
	}
	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserEmail: email,
		Action:    action,
		Details:   fmt.Sprintf(format, args...),
		Timestamp: r.Now().UTC(),
	}
	if err := r.Store.AppendAudit(ctx, entry); err != nil {
		log.Printf("failed to record %s by %s: %v", action, userID, err)
	}
}
