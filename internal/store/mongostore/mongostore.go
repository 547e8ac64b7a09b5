// Package mongostore implements the store interfaces on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

const (
	usersCollection        = "users"
	reportsCollection      = "reports"
	helpRequestsCollection = "helprequests"
	volunteersCollection   = "volunteers"
)

// Connect dials MongoDB and pings it before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// New returns a Store backed by db. Index creation failures are logged,
// not fatal.
func New(ctx context.Context, db *mongo.Database, log *zap.Logger) *store.Store {
	if err := EnsureIndexes(ctx, db); err != nil {
		log.Warn("mongo index creation failed", zap.Error(err))
	}
	return &store.Store{
		Users:        &users{coll: collection[models.User]{db.Collection(usersCollection)}},
		Reports:      &reports{coll: collection[models.Report]{db.Collection(reportsCollection)}},
		HelpRequests: &helpRequests{coll: collection[models.HelpRequest]{db.Collection(helpRequestsCollection)}},
		Volunteers:   &volunteers{coll: collection[models.Volunteer]{db.Collection(volunteersCollection)}},
	}
}

// EnsureIndexes creates the unique username index and the lookup indexes
// used by the list filters.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		reportsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "reporter", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		},
		helpRequestsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "requestedBy", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		},
		volunteersCollection: {
			{Keys: bson.D{{Key: "skills", Value: 1}}},
		},
	}

	var errs []error
	for name, idx := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// collection wraps the CRUD calls shared by every repository and maps
// driver errors onto the store sentinels.
type collection[T any] struct {
	c *mongo.Collection
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	_, err := c.c.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func (c collection[T]) findOne(ctx context.Context, filter any) (*T, error) {
	var doc T
	err := c.c.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) find(ctx context.Context, filter any) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c collection[T]) replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := c.c.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c collection[T]) delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c collection[T]) countByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := c.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
