package db

import (
	"context"
	"errors"

	"foodbridge/errs"
	"foodbridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.UserCollection.InsertOne(ctx, u)
	if isDuplicateKeyError(err) {
		return errs.New(errs.ErrConflict, "email already registered")
	}
	return err
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := s.UserCollection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return u, errs.New(errs.ErrNotFound, "user not found")
	}
	return u, err
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"id": id})
}

// GetUserByEmail expects email already lower-cased by the caller.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	opts := newestFirst().SetProjection(bson.M{"password_hash": 0})
	return findAll[models.User](ctx, s.UserCollection, filter, opts)
}

func (s *MongoStore) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	_, err := s.AuditCollection.InsertOne(ctx, e)
	return err
}

func (s *MongoStore) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[models.AuditEntry](ctx, s.AuditCollection, bson.M{}, opts)
}
