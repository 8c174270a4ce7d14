// Package store provides an interface for toy listing storage operations.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names used by queries and updates.
const (
	FieldID                 = "_id"
	FieldProductName        = "productName"
	FieldSubCategory        = "subCategory"
	FieldSellerEmail        = "sellerEmail"
	FieldPrice              = "price"
	FieldAvailableQuantity  = "availableQuantity"
	FieldDetailsDescription = "detailsDescription"
)

// Toy is a stored toy listing. Fields holds every attribute except the identifier, exactly as stored.
type Toy struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Fields bson.M             `bson:",inline"`
}

// ToyUpdate carries the attributes an update may change.
type ToyUpdate struct {
	Price              float64
	AvailableQuantity  int64
	DetailsDescription string
}

// UpdateResult reports the outcome of an update by id.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
}

// ToyStore is an interface for toy listing storage operations.
// It abstracts the underlying document store.
type ToyStore interface {
	// FindAll returns at most limit listings in natural order. limit must be positive.
	FindAll(ctx context.Context, limit int64) ([]Toy, error)

	// FindBySubCategory returns every listing whose subCategory equals category exactly.
	FindBySubCategory(ctx context.Context, category string) ([]Toy, error)

	// SearchByName returns every listing whose productName contains name, ignoring case.
	// name is matched literally.
	SearchByName(ctx context.Context, name string) ([]Toy, error)

	// FindByID retrieves a single listing.
	// Returns ErrToyNotFound if no listing exists with the given id.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Toy, error)

	// FindBySeller returns every listing whose sellerEmail equals email exactly.
	FindBySeller(ctx context.Context, email string) ([]Toy, error)

	// Insert stores fields as a new listing and returns the generated id.
	// fields must not contain "_id".
	Insert(ctx context.Context, fields bson.M) (primitive.ObjectID, error)

	// UpdateByID sets price, availableQuantity and detailsDescription of the listing.
	// A missing id is not an error: the result reports zero matches.
	UpdateByID(ctx context.Context, id primitive.ObjectID, update ToyUpdate) (*UpdateResult, error)

	// DeleteByID removes the listing and returns the number of deleted documents.
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
