package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodbridge/errs"
	"foodbridge/models"
)

// MemoryStore keeps everything in maps. Compare-and-set writes take a lock
// scoped to the one listing or pickup they touch.
type MemoryStore struct {
	mu              sync.RWMutex
	listings        map[string]models.Listing
	pickups         map[string]models.Pickup
	pickupByListing map[string]string
	redistributions map[string]models.RedistributionRecord
	users           map[string]models.User
	audit           []models.AuditEntry
	locks           keyedMutex
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings:        make(map[string]models.Listing),
		pickups:         make(map[string]models.Pickup),
		pickupByListing: make(map[string]string),
		redistributions: make(map[string]models.RedistributionRecord),
		users:           make(map[string]models.User),
	}
}

type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func clonePickup(p models.Pickup) models.Pickup {
	ts := make(map[string]time.Time, len(p.Timestamps))
	for k, v := range p.Timestamps {
		ts[k] = v
	}
	p.Timestamps = ts
	p.Notes = append([]models.TransitionNote{}, p.Notes...)
	return p
}

func (s *MemoryStore) CreateListing(ctx context.Context, l models.Listing) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.listings[l.ID]; exists {
		return errs.New(errs.ErrConflict, "listing %s already exists", l.ID)
	}
	s.listings[l.ID] = l
	return nil
}

func (s *MemoryStore) GetListing(ctx context.Context, id string) (models.Listing, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Listing{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return models.Listing{}, errs.New(errs.ErrNotFound, "listing %s not found", id)
	}
	return l, nil
}

func (s *MemoryStore) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	var ids map[string]bool
	if f.IDs != nil {
		ids = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []models.Listing{}
	for _, l := range s.listings {
		if f.DonorID != "" && l.DonorID != f.DonorID {
			continue
		}
		if f.Category != "" && l.Category != f.Category {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, l.Status) {
			continue
		}
		if ids != nil && !ids[l.ID] {
			continue
		}
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

func containsStatus(set []models.ListingStatus, s models.ListingStatus) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func newerFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA < idB
}

func (s *MemoryStore) UpdateListing(ctx context.Context, l models.Listing, allowed []models.ListingStatus) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	unlock := s.locks.lock("listing:" + l.ID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.listings[l.ID]
	if !ok {
		return errs.New(errs.ErrNotFound, "listing %s not found", l.ID)
	}
	if !containsStatus(allowed, current.Status) {
		return errs.New(errs.ErrConflict, "listing %s is %s", l.ID, current.Status)
	}
	s.listings[l.ID] = l
	return nil
}

func (s *MemoryStore) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	var candidates []string
	for id, l := range s.listings {
		if l.Status.Editable() && !now.Before(l.ExpiryTime) {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()

	var n int64
	for _, id := range candidates {
		if s.expireOne(id, now) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) expireOne(id string, now time.Time) bool {
	unlock := s.locks.lock("listing:" + id)
	defer unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.listings[id]
	if !l.Status.Editable() || now.Before(l.ExpiryTime) {
		return false
	}
	l.Status = models.ListingExpired
	l.UpdatedAt = now
	s.listings[id] = l
	return true
}

func (s *MemoryStore) ClaimListing(ctx context.Context, listingID string, p models.Pickup) (models.Pickup, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Pickup{}, err
	}
	unlock := s.locks.lock("listing:" + listingID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return models.Pickup{}, errs.New(errs.ErrNotFound, "listing %s not found", listingID)
	}
	if l.EffectiveStatus(p.CreatedAt) == models.ListingExpired {
		return models.Pickup{}, errs.New(errs.ErrExpired, "listing %s has expired", listingID)
	}
	if l.Status != models.ListingAvailable {
		return models.Pickup{}, errs.New(errs.ErrConflict, "listing %s is %s", listingID, l.Status)
	}
	if _, taken := s.pickupByListing[listingID]; taken {
		return models.Pickup{}, errs.New(errs.ErrConflict, "listing %s already has a pickup", listingID)
	}

	p.ListingID = l.ID
	p.ListingName = l.FoodName
	p.ListingQuantity = l.Quantity
	p.DonorID = l.DonorID
	p.DonorName = l.DonorName
	l.Status = models.ListingReserved
	l.UpdatedAt = p.CreatedAt

	s.listings[l.ID] = l
	s.pickups[p.ID] = clonePickup(p)
	s.pickupByListing[l.ID] = p.ID
	return clonePickup(p), nil
}

func (s *MemoryStore) GetPickup(ctx context.Context, id string) (models.Pickup, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Pickup{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pickups[id]
	if !ok {
		return models.Pickup{}, errs.New(errs.ErrNotFound, "pickup %s not found", id)
	}
	return clonePickup(p), nil
}

func (s *MemoryStore) ListPickups(ctx context.Context, f PickupFilter) ([]models.Pickup, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []models.Pickup{}
	for _, p := range s.pickups {
		if (f.NGOID == "" || p.NGOID == f.NGOID) &&
			(f.DonorID == "" || p.DonorID == f.DonorID) &&
			(f.ListingID == "" || p.ListingID == f.ListingID) &&
			(f.Status == "" || p.Status == f.Status) {
			result = append(result, clonePickup(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *MemoryStore) AdvancePickup(ctx context.Context, id string, from, to models.PickupStatus, at time.Time, note *models.TransitionNote, listingStatus models.ListingStatus) (models.Pickup, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Pickup{}, err
	}
	unlock := s.locks.lock("pickup:" + id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[id]
	if !ok {
		return models.Pickup{}, errs.New(errs.ErrNotFound, "pickup %s not found", id)
	}
	if p.Status != from {
		return models.Pickup{}, errs.New(errs.ErrConflict, "pickup %s moved to %s concurrently", id, p.Status)
	}
	p = clonePickup(p)
	p.Status = to
	p.Timestamps[string(to)] = at
	p.UpdatedAt = at
	if note != nil {
		p.Notes = append(p.Notes, *note)
	}
	if listingStatus != "" {
		l := s.listings[p.ListingID]
		l.Status = listingStatus
		l.UpdatedAt = at
		s.listings[p.ListingID] = l
	}
	s.pickups[id] = p
	return clonePickup(p), nil
}

func (s *MemoryStore) CreateRedistribution(ctx context.Context, rec models.RedistributionRecord) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.redistributions[rec.PickupID]; exists {
		return errs.New(errs.ErrConflict, "redistribution already logged for pickup %s", rec.PickupID)
	}
	s.redistributions[rec.PickupID] = rec
	return nil
}

func (s *MemoryStore) GetRedistribution(ctx context.Context, pickupID string) (models.RedistributionRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return models.RedistributionRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.redistributions[pickupID]
	if !ok {
		return models.RedistributionRecord{}, errs.New(errs.ErrNotFound, "no redistribution for pickup %s", pickupID)
	}
	return rec, nil
}

func (s *MemoryStore) ListRedistributions(ctx context.Context, f RedistributionFilter) ([]models.RedistributionRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []models.RedistributionRecord{}
	for _, rec := range s.redistributions {
		if (f.NGOID == "" || rec.NGOID == f.NGOID) && (f.DonorID == "" || rec.DonorID == f.DonorID) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errs.New(errs.ErrConflict, "email already registered")
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, errs.New(errs.ErrNotFound, "user %s not found", id)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, errs.New(errs.ErrNotFound, "user not found")
}

func (s *MemoryStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []models.User{}
	for _, u := range s.users {
		if role == "" || u.Role == role {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *MemoryStore) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

func (s *MemoryStore) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.AuditEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, s.audit[i])
	}
	return result, nil
}
