// Package listings owns food listings: creation, lazy expiry, donor edits
// and the periodic sweep that stores the expired status.
package listings

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"foodbridge/activity"
	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/mq"
	"foodbridge/store"

	"github.com/google/uuid"
)

// Coordinates used when a donor does not pin a location.
const (
	DefaultLatitude  = 28.6139
	DefaultLongitude = 77.2090
)

type Service struct {
	Store  store.Store
	Events mq.Publisher
	Audit  *activity.Recorder
	Now    func() time.Time
}

func NewService(s store.Store, events mq.Publisher, audit *activity.Recorder) *Service {
	return &Service{Store: s, Events: events, Audit: audit, Now: time.Now}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

type CreateInput struct {
	FoodName         string
	Category         models.Category
	Quantity         float64
	StorageCondition models.StorageCondition
	PreparationTime  *time.Time
	ExpiryTime       time.Time
	PickupAddress    string
	Latitude         *float64
	Longitude        *float64
	UrgentFlag       bool
	Status           models.ListingStatus
}

func validateLocation(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errs.Validation("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return errs.Validation("longitude must be between -180 and 180")
	}
	return nil
}

// Create publishes a new listing owned by the calling donor.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.Listing, error) {
	if actor.Role != models.RoleDonor {
		return models.Listing{}, errs.New(errs.ErrForbidden, "only donors can create listings")
	}
	now := s.now()

	in.FoodName = strings.TrimSpace(in.FoodName)
	if in.FoodName == "" {
		return models.Listing{}, errs.Validation("food_name is required")
	}
	if !in.Category.Valid() {
		return models.Listing{}, errs.Validation("unknown category %q", in.Category)
	}
	if in.Quantity <= 0 {
		return models.Listing{}, errs.Validation("quantity must be greater than 0")
	}
	if in.ExpiryTime.IsZero() {
		return models.Listing{}, errs.Validation("expiry_time is required")
	}
	if !in.ExpiryTime.After(now) {
		return models.Listing{}, errs.Validation("expiry_time must be in the future")
	}
	if in.StorageCondition == "" {
		in.StorageCondition = models.StorageRoomTemp
	}
	if !in.StorageCondition.Valid() {
		return models.Listing{}, errs.Validation("unknown storage_condition %q", in.StorageCondition)
	}
	if in.Status == "" {
		in.Status = models.ListingAvailable
	}
	if in.Status != models.ListingDraft && in.Status != models.ListingAvailable {
		return models.Listing{}, errs.New(errs.ErrInvalidState, "a new listing must be draft or available, not %q", in.Status)
	}
	loc := models.Location{Lat: DefaultLatitude, Lng: DefaultLongitude}
	if in.Latitude != nil {
		loc.Lat = *in.Latitude
	}
	if in.Longitude != nil {
		loc.Lng = *in.Longitude
	}
	if err := validateLocation(loc.Lat, loc.Lng); err != nil {
		return models.Listing{}, err
	}

	donorName := ""
	donor, err := s.Store.GetUser(ctx, actor.ID)
	switch {
	case err == nil:
		donorName = donor.DisplayName()
	case !errors.Is(err, errs.ErrNotFound):
		return models.Listing{}, err
	}

	l := models.Listing{
		ID:               uuid.NewString(),
		DonorID:          actor.ID,
		DonorName:        donorName,
		FoodName:         in.FoodName,
		Category:         in.Category,
		Quantity:         in.Quantity,
		StorageCondition: in.StorageCondition,
		PreparationTime:  in.PreparationTime,
		ExpiryTime:       in.ExpiryTime.UTC(),
		PickupAddress:    strings.TrimSpace(in.PickupAddress),
		Location:         loc,
		UrgentFlag:       in.UrgentFlag,
		Status:           in.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Store.CreateListing(ctx, l); err != nil {
		return models.Listing{}, err
	}

	s.Audit.Record(ctx, actor.ID, donor.Email, activity.ActionCreateListing, "Created listing: %s (%g kg)", l.FoodName, l.Quantity)
	mq.Emit(ctx, s.Events, mq.Event{Name: mq.ListingCreated, EntityID: l.ID, ActorID: actor.ID, Payload: l, At: now})
	return l, nil
}

type ListQuery struct {
	DonorID  string
	Status   models.ListingStatus
	Category models.Category
}

// List returns listings with lazy expiry applied, so a status filter matches
// what callers would see rather than what is stored.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Listing, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, errs.Validation("unknown status %q", q.Status)
	}
	if q.Category != "" && !q.Category.Valid() {
		return nil, errs.Validation("unknown category %q", q.Category)
	}

	f := store.ListingFilter{DonorID: q.DonorID, Category: q.Category}
	switch q.Status {
	case "":
	case models.ListingExpired:
		f.Statuses = []models.ListingStatus{models.ListingExpired, models.ListingDraft, models.ListingAvailable}
	default:
		f.Statuses = []models.ListingStatus{q.Status}
	}
	stored, err := s.Store.ListListings(ctx, f)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]models.Listing, 0, len(stored))
	for _, l := range stored {
		l.Status = l.EffectiveStatus(now)
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Listing, error) {
	l, err := s.Store.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	l.Status = l.EffectiveStatus(s.now())
	return l, nil
}

// UpdateInput carries only the fields being changed.
type UpdateInput struct {
	FoodName         *string
	Category         *models.Category
	Quantity         *float64
	StorageCondition *models.StorageCondition
	PreparationTime  *time.Time
	ExpiryTime       *time.Time
	PickupAddress    *string
	Latitude         *float64
	Longitude        *float64
	UrgentFlag       *bool
	Status           *models.ListingStatus
}

// Update edits a draft or available listing. The only status change allowed
// here is publishing a draft; every other transition belongs to claims,
// pickups and expiry.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, in UpdateInput) (models.Listing, error) {
	current, err := s.Store.GetListing(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if current.DonorID != actor.ID && !actor.IsAdmin() {
		return models.Listing{}, errs.New(errs.ErrForbidden, "only the owning donor may edit this listing")
	}
	now := s.now()
	if effective := current.EffectiveStatus(now); !effective.Editable() {
		return models.Listing{}, errs.New(errs.ErrInvalidState, "listing is %s and can no longer be edited", effective)
	}

	l := current
	if in.FoodName != nil {
		l.FoodName = strings.TrimSpace(*in.FoodName)
		if l.FoodName == "" {
			return models.Listing{}, errs.Validation("food_name is required")
		}
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return models.Listing{}, errs.Validation("unknown category %q", *in.Category)
		}
		l.Category = *in.Category
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return models.Listing{}, errs.Validation("quantity must be greater than 0")
		}
		l.Quantity = *in.Quantity
	}
	if in.StorageCondition != nil {
		if !in.StorageCondition.Valid() {
			return models.Listing{}, errs.Validation("unknown storage_condition %q", *in.StorageCondition)
		}
		l.StorageCondition = *in.StorageCondition
	}
	if in.PreparationTime != nil {
		l.PreparationTime = in.PreparationTime
	}
	if in.ExpiryTime != nil {
		if !in.ExpiryTime.After(now) {
			return models.Listing{}, errs.Validation("expiry_time must be in the future")
		}
		l.ExpiryTime = in.ExpiryTime.UTC()
	}
	if in.PickupAddress != nil {
		l.PickupAddress = strings.TrimSpace(*in.PickupAddress)
	}
	if in.Latitude != nil {
		l.Location.Lat = *in.Latitude
	}
	if in.Longitude != nil {
		l.Location.Lng = *in.Longitude
	}
	if err := validateLocation(l.Location.Lat, l.Location.Lng); err != nil {
		return models.Listing{}, err
	}
	if in.UrgentFlag != nil {
		l.UrgentFlag = *in.UrgentFlag
	}
	if in.Status != nil && *in.Status != current.Status {
		if current.Status != models.ListingDraft || *in.Status != models.ListingAvailable {
			return models.Listing{}, errs.New(errs.ErrInvalidState, "cannot move listing from %s to %s", current.Status, *in.Status)
		}
		l.Status = models.ListingAvailable
	}
	l.UpdatedAt = now

	if err := s.Store.UpdateListing(ctx, l, []models.ListingStatus{current.Status}); err != nil {
		return models.Listing{}, err
	}

	s.Audit.Record(ctx, actor.ID, actor.Email, activity.ActionUpdateListing, "Updated listing: %s", l.ID)
	mq.Emit(ctx, s.Events, mq.Event{Name: mq.ListingUpdated, EntityID: l.ID, ActorID: actor.ID, Payload: l, At: now})
	return l, nil
}

// Sweep stores expired on every draft or available listing past expiry.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.Store.ExpireListings(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("expired %d listings", n)
		s.Audit.Record(ctx, "system", "", activity.ActionExpireListings, "Expired %d listings", n)
		mq.Emit(ctx, s.Events, mq.Event{Name: mq.ListingsExpired, EntityID: "listings", Payload: map[string]int64{"count": n}, At: now})
	}
	return n, nil
}

// RunExpirySweep sweeps every interval until ctx is done.
func (s *Service) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Println("expiry sweep error:", err)
			}
		}
	}
}
