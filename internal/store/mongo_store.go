package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore implements ToyStore on a MongoDB collection.
type MongoStore struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

// NewMongoStore creates a new ToyStore over coll.
// Every call is bounded by queryTimeout; zero disables the bound.
func NewMongoStore(coll *mongo.Collection, queryTimeout time.Duration) *MongoStore {
	return &MongoStore{
		coll:         coll,
		queryTimeout: queryTimeout,
	}
}

func (m *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.queryTimeout)
}

// FindAll returns at most limit listings in natural order.
func (m *MongoStore) FindAll(ctx context.Context, limit int64) ([]Toy, error) {
	if limit <= 0 {
		// the driver treats a zero limit as unlimited
		return []Toy{}, nil
	}
	toys, err := m.find(ctx, bson.M{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, classify("failed to find all toys", err)
	}
	return toys, nil
}

// FindBySubCategory returns the listings of a category.
func (m *MongoStore) FindBySubCategory(ctx context.Context, category string) ([]Toy, error) {
	toys, err := m.find(ctx, bson.M{FieldSubCategory: category})
	if err != nil {
		return nil, classify("failed to find toys by category", err)
	}
	return toys, nil
}

// SearchByName returns listings whose name contains name, ignoring case.
func (m *MongoStore) SearchByName(ctx context.Context, name string) ([]Toy, error) {
	filter := bson.M{FieldProductName: primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	toys, err := m.find(ctx, filter)
	if err != nil {
		return nil, classify("failed to search toys by name", err)
	}
	return toys, nil
}

// FindBySeller returns the listings of a seller.
func (m *MongoStore) FindBySeller(ctx context.Context, email string) ([]Toy, error) {
	toys, err := m.find(ctx, bson.M{FieldSellerEmail: email})
	if err != nil {
		return nil, classify("failed to find toys by seller", err)
	}
	return toys, nil
}

func (m *MongoStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Toy, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cursor, err := m.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	toys := make([]Toy, 0)
	if err := cursor.All(ctx, &toys); err != nil {
		return nil, err
	}
	return toys, nil
}

// FindByID retrieves a listing by its identifier.
// Returns ErrToyNotFound if no listing exists with the given id.
func (m *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Toy, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var toy Toy
	if err := m.coll.FindOne(ctx, bson.M{FieldID: id}).Decode(&toy); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, perrors.ErrToyNotFound
		}
		return nil, classify("failed to find toy by ID", err)
	}
	return &toy, nil
}

// Insert stores a new listing and returns its generated id.
func (m *MongoStore) Insert(ctx context.Context, fields bson.M) (primitive.ObjectID, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	id := primitive.NewObjectID()
	doc := make(bson.M, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc[FieldID] = id
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return primitive.NilObjectID, classify("failed to insert toy", err)
	}
	return id, nil
}

// UpdateByID sets the mutable attributes of a listing.
func (m *MongoStore) UpdateByID(ctx context.Context, id primitive.ObjectID, update ToyUpdate) (*UpdateResult, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	set := bson.M{"$set": bson.M{
		FieldPrice:              update.Price,
		FieldAvailableQuantity:  update.AvailableQuantity,
		FieldDetailsDescription: update.DetailsDescription,
	}}
	res, err := m.coll.UpdateOne(ctx, bson.M{FieldID: id}, set)
	if err != nil {
		return nil, classify("failed to update toy", err)
	}
	return &UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}, nil
}

// DeleteByID removes a listing by its identifier.
func (m *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	res, err := m.coll.DeleteOne(ctx, bson.M{FieldID: id})
	if err != nil {
		return 0, classify("failed to delete toy", err)
	}
	return res.DeletedCount, nil
}

// Ping checks that the primary is reachable.
func (m *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return classify("failed to ping store", err)
	}
	return nil
}

// classify wraps err with ErrStoreUnavailable when it signals an unreachable or slow store.
func classify(msg string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", msg, perrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err)
}
