package db

import (
	"context"
	"errors"
	"time"

	"foodbridge/errs"
	"foodbridge/models"
	"foodbridge/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimListing reserves the listing and inserts the pickup in one transaction.
// The listing update is guarded on status and expiry, so of two racing claims
// exactly one matches; the unique listing_id index on pickups backs it up.
func (s *MongoStore) ClaimListing(ctx context.Context, listingID string, p models.Pickup) (models.Pickup, error) {
	session, err := s.Client.StartSession()
	if err != nil {
		return models.Pickup{}, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var l models.Listing
		err := s.ListingsCollection.FindOneAndUpdate(sc,
			bson.M{
				"id":          listingID,
				"status":      models.ListingAvailable,
				"expiry_time": bson.M{"$gt": p.CreatedAt},
			},
			bson.M{"$set": bson.M{"status": models.ListingReserved, "updated_at": p.CreatedAt}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&l)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.claimMiss(sc, listingID, p.CreatedAt)
		}
		if err != nil {
			return nil, err
		}

		p.ListingID = l.ID
		p.ListingName = l.FoodName
		p.ListingQuantity = l.Quantity
		p.DonorID = l.DonorID
		p.DonorName = l.DonorName
		if _, err := s.PickupsCollection.InsertOne(sc, p); err != nil {
			if isDuplicateKeyError(err) {
				return nil, errs.New(errs.ErrConflict, "listing %s already has a pickup", listingID)
			}
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return models.Pickup{}, err
	}
	return result.(models.Pickup), nil
}

// claimMiss explains why the guarded reserve matched nothing.
func (s *MongoStore) claimMiss(ctx context.Context, listingID string, now time.Time) error {
	l, err := s.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if l.EffectiveStatus(now) == models.ListingExpired {
		return errs.New(errs.ErrExpired, "listing %s has expired", listingID)
	}
	return errs.New(errs.ErrConflict, "listing %s is %s", listingID, l.Status)
}

func (s *MongoStore) GetPickup(ctx context.Context, id string) (models.Pickup, error) {
	var p models.Pickup
	err := s.PickupsCollection.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, errs.New(errs.ErrNotFound, "pickup %s not found", id)
	}
	return p, err
}

func (s *MongoStore) ListPickups(ctx context.Context, f store.PickupFilter) ([]models.Pickup, error) {
	filter := bson.M{}
	if f.NGOID != "" {
		filter["ngo_id"] = f.NGOID
	}
	if f.DonorID != "" {
		filter["donor_id"] = f.DonorID
	}
	if f.ListingID != "" {
		filter["listing_id"] = f.ListingID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return findAll[models.Pickup](ctx, s.PickupsCollection, filter, newestFirst())
}

// AdvancePickup is a compare-and-set on the pickup status. The listing status
// sync, when requested, commits with it.
func (s *MongoStore) AdvancePickup(ctx context.Context, id string, from, to models.PickupStatus, at time.Time, note *models.TransitionNote, listingStatus models.ListingStatus) (models.Pickup, error) {
	set := bson.M{"status": to, "updated_at": at}
	set["timestamps."+string(to)] = at
	update := bson.M{"$set": set}
	if note != nil {
		update["$push"] = bson.M{"notes": note}
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return models.Pickup{}, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var p models.Pickup
		err := s.PickupsCollection.FindOneAndUpdate(sc,
			bson.M{"id": id, "status": from},
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&p)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.advanceMiss(sc, id)
		}
		if err != nil {
			return nil, err
		}

		if listingStatus != "" {
			_, err := s.ListingsCollection.UpdateOne(sc,
				bson.M{"id": p.ListingID},
				bson.M{"$set": bson.M{"status": listingStatus, "updated_at": at}},
			)
			if err != nil {
				return nil, err
			}
		}
		return p, nil
	})
	if err != nil {
		return models.Pickup{}, err
	}
	return result.(models.Pickup), nil
}

// advanceMiss explains why the status-guarded update matched nothing.
func (s *MongoStore) advanceMiss(ctx context.Context, id string) error {
	current, err := s.GetPickup(ctx, id)
	if err != nil {
		return err
	}
	return errs.New(errs.ErrConflict, "pickup %s moved to %s concurrently", id, current.Status)
}

func (s *MongoStore) CreateRedistribution(ctx context.Context, rec models.RedistributionRecord) error {
	_, err := s.RedistributionCollection.InsertOne(ctx, rec)
	if isDuplicateKeyError(err) {
		return errs.New(errs.ErrConflict, "redistribution already logged for pickup %s", rec.PickupID)
	}
	return err
}

func (s *MongoStore) GetRedistribution(ctx context.Context, pickupID string) (models.RedistributionRecord, error) {
	var rec models.RedistributionRecord
	err := s.RedistributionCollection.FindOne(ctx, bson.M{"pickup_id": pickupID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, errs.New(errs.ErrNotFound, "no redistribution for pickup %s", pickupID)
	}
	return rec, err
}

func (s *MongoStore) ListRedistributions(ctx context.Context, f store.RedistributionFilter) ([]models.RedistributionRecord, error) {
	filter := bson.M{}
	if f.NGOID != "" {
		filter["ngo_id"] = f.NGOID
	}
	if f.DonorID != "" {
		filter["donor_id"] = f.DonorID
	}
	return findAll[models.RedistributionRecord](ctx, s.RedistributionCollection, filter, newestFirst())
}
