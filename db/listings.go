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
)

func (s *MongoStore) CreateListing(ctx context.Context, l models.Listing) error {
	_, err := s.ListingsCollection.InsertOne(ctx, l)
	if isDuplicateKeyError(err) {
		return errs.New(errs.ErrConflict, "listing %s already exists", l.ID)
	}
	return err
}

func (s *MongoStore) GetListing(ctx context.Context, id string) (models.Listing, error) {
	var l models.Listing
	err := s.ListingsCollection.FindOne(ctx, bson.M{"id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return l, errs.New(errs.ErrNotFound, "listing %s not found", id)
	}
	return l, err
}

func listingQuery(f store.ListingFilter) bson.M {
	filter := bson.M{}
	if f.DonorID != "" {
		filter["donor_id"] = f.DonorID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.IDs != nil {
		filter["id"] = bson.M{"$in": f.IDs}
	}
	return filter
}

func (s *MongoStore) ListListings(ctx context.Context, f store.ListingFilter) ([]models.Listing, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []models.Listing{}, nil
	}
	return findAll[models.Listing](ctx, s.ListingsCollection, listingQuery(f), newestFirst())
}

func (s *MongoStore) UpdateListing(ctx context.Context, l models.Listing, allowed []models.ListingStatus) error {
	res, err := s.ListingsCollection.ReplaceOne(ctx, bson.M{
		"id":     l.ID,
		"status": bson.M{"$in": allowed},
	}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	current, err := s.GetListing(ctx, l.ID)
	if err != nil {
		return err
	}
	return errs.New(errs.ErrConflict, "listing %s is %s", l.ID, current.Status)
}

func (s *MongoStore) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.ListingsCollection.UpdateMany(ctx, bson.M{
		"status":      bson.M{"$in": []models.ListingStatus{models.ListingDraft, models.ListingAvailable}},
		"expiry_time": bson.M{"$lte": now},
	}, bson.M{"$set": bson.M{"status": models.ListingExpired, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
