package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodbridge/errs"
	"foodbridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func mockStore(mt *mtest.T) *MongoStore {
	return &MongoStore{
		Client:                   mt.Client,
		ListingsCollection:       mt.Coll,
		PickupsCollection:        mt.Coll,
		RedistributionCollection: mt.Coll,
		UserCollection:           mt.Coll,
		AuditCollection:          mt.Coll,
	}
}

func listingDoc(status models.ListingStatus, expiry time.Time) bson.D {
	return bson.D{
		{Key: "id", Value: "l1"},
		{Key: "status", Value: status},
		{Key: "expiry_time", Value: expiry},
	}
}

func TestClaimMiss(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name   string
		status models.ListingStatus
		expiry time.Time
		want   error
	}{
		{"materialized expiry", models.ListingExpired, now.Add(-time.Hour), errs.ErrExpired},
		{"available past expiry", models.ListingAvailable, now.Add(-time.Minute), errs.ErrExpired},
		{"draft past expiry", models.ListingDraft, now.Add(-time.Minute), errs.ErrExpired},
		{"already reserved", models.ListingReserved, now.Add(time.Hour), errs.ErrConflict},
		{"still a draft", models.ListingDraft, now.Add(time.Hour), errs.ErrConflict},
	}
	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			ns := mt.DB.Name() + "." + mt.Coll.Name()
			mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, listingDoc(tt.status, tt.expiry)))
			err := mockStore(mt).claimMiss(context.Background(), "l1", now)
			if !errors.Is(err, tt.want) {
				mt.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	mt.Run("missing listing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		if err := mockStore(mt).claimMiss(context.Background(), "l1", now); !errors.Is(err, errs.ErrNotFound) {
			mt.Errorf("expected not found, got %v", err)
		}
	})
}

func TestAdvanceMiss(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("moved concurrently", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "id", Value: "p1"},
			{Key: "status", Value: models.PickupAccepted},
		}))
		err := mockStore(mt).advanceMiss(context.Background(), "p1")
		if !errors.Is(err, errs.ErrConflict) {
			mt.Errorf("expected conflict, got %v", err)
		}
	})
	mt.Run("missing pickup", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		if err := mockStore(mt).advanceMiss(context.Background(), "p1"); !errors.Is(err, errs.ErrNotFound) {
			mt.Errorf("expected not found, got %v", err)
		}
	})
}

func TestUpdateListingGuard(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	allowed := []models.ListingStatus{models.ListingDraft, models.ListingAvailable}

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		l := models.Listing{ID: "l1", Status: models.ListingAvailable}
		if err := mockStore(mt).UpdateListing(context.Background(), l, allowed); err != nil {
			mt.Errorf("unexpected error: %v", err)
		}
	})
	mt.Run("status moved", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, listingDoc(models.ListingReserved, now.Add(time.Hour))),
		)
		l := models.Listing{ID: "l1", Status: models.ListingAvailable}
		if err := mockStore(mt).UpdateListing(context.Background(), l, allowed); !errors.Is(err, errs.ErrConflict) {
			mt.Errorf("expected conflict, got %v", err)
		}
	})
}

func TestCreateListingDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("duplicate id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key"}))
		err := mockStore(mt).CreateListing(context.Background(), models.Listing{ID: "l1"})
		if !errors.Is(err, errs.ErrConflict) {
			mt.Errorf("expected conflict, got %v", err)
		}
	})
}
