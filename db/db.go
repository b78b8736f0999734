package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"foodbridge/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the store of record. Claims and pickup advances run inside
// multi-document transactions, so the server must be a replica set.
type MongoStore struct {
	Client                   *mongo.Client
	ListingsCollection       *mongo.Collection
	PickupsCollection        *mongo.Collection
	RedistributionCollection *mongo.Collection
	UserCollection           *mongo.Collection
	AuditCollection          *mongo.Collection
}

var _ store.Store = (*MongoStore)(nil)

// Connect opens the client and pings the primary.
func Connect(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	d := client.Database(database)
	s := &MongoStore{
		Client:                   client,
		ListingsCollection:       d.Collection("food_listings"),
		PickupsCollection:        d.Collection("pickups"),
		RedistributionCollection: d.Collection("redistribution"),
		UserCollection:           d.Collection("users"),
		AuditCollection:          d.Collection("audit_logs"),
	}
	log.Printf("connected to mongo database %q", database)
	return s, nil
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates lookup indexes plus the unique indexes that back
// one-pickup-per-listing and one-record-per-pickup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}
	plan := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.ListingsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("unique_id")},
			{Keys: bson.D{{Key: "donor_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiry_time", Value: 1}}},
		}},
		{s.PickupsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("unique_id")},
			{Keys: bson.D{{Key: "listing_id", Value: 1}}, Options: unique("unique_listing")},
			{Keys: bson.D{{Key: "ngo_id", Value: 1}}},
			{Keys: bson.D{{Key: "donor_id", Value: 1}}},
		}},
		{s.RedistributionCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "pickup_id", Value: 1}}, Options: unique("unique_pickup")},
			{Keys: bson.D{{Key: "ngo_id", Value: 1}}},
		}},
		{s.UserCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique("unique_id")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("unique_email")},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		}},
		{s.AuditCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		}},
	}
	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.models); err != nil {
			return fmt.Errorf("indexes on %s: %w", p.coll.Name(), err)
		}
	}
	return nil
}

// newestFirst sorts by creation time descending.
func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: 1}})
}

// isDuplicateKeyError detects unique index violations, including those
// surfaced from inside a transaction.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsDuplicateKeyError(err)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
