// Package service provides the implementation of toy listing business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/internal/store"
	"github.com/abgdnv/toymarket/pkg/messaging"
	"github.com/abgdnv/toymarket/pkg/messaging/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultLimit is the number of listings returned when no limit is given.
const DefaultLimit = 20

// ToyService defines the methods for managing toy listings.
type ToyService interface {
	// FindAll returns at most limit listings. A zero limit returns an empty slice.
	FindAll(ctx context.Context, limit int64) ([]ToyDto, error)

	// FindByCategory returns the listings whose subCategory equals category.
	FindByCategory(ctx context.Context, category string) ([]ToyDto, error)

	// SearchByName returns the listings whose productName contains name, ignoring case.
	SearchByName(ctx context.Context, name string) ([]ToyDto, error)

	// FindByID retrieves a single listing.
	// Returns ErrInvalidIdentifier for a malformed id and ErrToyNotFound if nothing matches.
	FindByID(ctx context.Context, id string) (ToyDto, error)

	// FindBySeller returns the listings whose sellerEmail equals email.
	FindBySeller(ctx context.Context, email string) ([]ToyDto, error)

	// Create stores a new listing and returns it with its generated id.
	Create(ctx context.Context, toy ToyCreateDto) (ToyDto, error)

	// UpdateByID replaces price, availableQuantity and detailsDescription of a listing.
	// A missing listing yields an acknowledgment with zero counts.
	UpdateByID(ctx context.Context, id string, update ToyUpdateDto) (*UpdateAck, error)

	// DeleteByID removes a listing. A missing listing yields a zero count.
	DeleteByID(ctx context.Context, id string) (*DeleteAck, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Service implements ToyService.
type Service struct {
	store          store.ToyStore
	publisher      messaging.Publisher
	createdCounter metric.Int64Counter
	updatedCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// NewService creates a new instance of ToyService.
func NewService(toyStore store.ToyStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("toy-service")
	return &Service{
		store:          toyStore,
		publisher:      publisher,
		createdCounter: mustCounter(meter, "toys_created", "Total number of created toy listings"),
		updatedCounter: mustCounter(meter, "toys_updated", "Total number of updated toy listings"),
		deletedCounter: mustCounter(meter, "toys_deleted", "Total number of deleted toy listings"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// FindAll returns at most limit listings.
func (s *Service) FindAll(ctx context.Context, limit int64) ([]ToyDto, error) {
	if limit <= 0 {
		return []ToyDto{}, nil
	}
	toys, err := s.store.FindAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch toys: %w", err)
	}
	return toDtos(toys), nil
}

// FindByCategory returns the listings of a category.
func (s *Service) FindByCategory(ctx context.Context, category string) ([]ToyDto, error) {
	toys, err := s.store.FindBySubCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch toys of category %q: %w", category, err)
	}
	return toDtos(toys), nil
}

// SearchByName returns the listings matching name.
func (s *Service) SearchByName(ctx context.Context, name string) ([]ToyDto, error) {
	toys, err := s.store.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search toys by name %q: %w", name, err)
	}
	return toDtos(toys), nil
}

// FindByID retrieves a listing by its id.
func (s *Service) FindByID(ctx context.Context, id string) (ToyDto, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	toy, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch toy by ID %s: %w", id, err)
	}
	return toDto(toy), nil
}

// FindBySeller returns the listings of a seller.
func (s *Service) FindBySeller(ctx context.Context, email string) ([]ToyDto, error) {
	toys, err := s.store.FindBySeller(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch toys of seller %q: %w", email, err)
	}
	return toDtos(toys), nil
}

// Create stores a new listing and publishes ToyCreatedEvent.
func (s *Service) Create(ctx context.Context, toy ToyCreateDto) (ToyDto, error) {
	doc := toy.document()
	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create toy: %w", err)
	}

	s.publish(ctx, events.ToyCreatedEvent{
		Carrier:     traceCarrier(ctx),
		ToyID:       id.Hex(),
		ProductName: toy.ProductName,
		SubCategory: toy.SubCategory,
		SellerEmail: toy.SellerEmail,
		CreatedAt:   time.Now().UTC(),
	})
	s.createdCounter.Add(ctx, 1)

	return toDto(&store.Toy{ID: id, Fields: doc}), nil
}

// UpdateByID replaces the mutable attributes of a listing.
// ToyUpdatedEvent is published only when a listing matched.
func (s *Service) UpdateByID(ctx context.Context, id string, update ToyUpdateDto) (*UpdateAck, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if update.Price == nil || update.AvailableQuantity == nil || update.DetailsDescription == nil {
		return nil, errors.New("update requires price, availableQuantity and detailsDescription")
	}
	values := store.ToyUpdate{
		Price:              *update.Price,
		AvailableQuantity:  *update.AvailableQuantity,
		DetailsDescription: *update.DetailsDescription,
	}
	res, err := s.store.UpdateByID(ctx, oid, values)
	if err != nil {
		return nil, fmt.Errorf("failed to update toy with ID %s: %w", id, err)
	}

	if res.MatchedCount > 0 {
		s.publish(ctx, events.ToyUpdatedEvent{
			Carrier:            traceCarrier(ctx),
			ToyID:              id,
			Price:              values.Price,
			AvailableQuantity:  values.AvailableQuantity,
			DetailsDescription: values.DetailsDescription,
			Modified:           res.ModifiedCount > 0,
			UpdatedAt:          time.Now().UTC(),
		})
		s.updatedCounter.Add(ctx, 1)
	}

	return &UpdateAck{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}, nil
}

// DeleteByID removes a listing. ToyDeletedEvent is published only when a listing was removed.
func (s *Service) DeleteByID(ctx context.Context, id string) (*DeleteAck, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.store.DeleteByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("failed to delete toy with ID %s: %w", id, err)
	}

	if deleted > 0 {
		s.publish(ctx, events.ToyDeletedEvent{
			Carrier:   traceCarrier(ctx),
			ToyID:     id,
			DeletedAt: time.Now().UTC(),
		})
		s.deletedCounter.Add(ctx, 1)
	}

	return &DeleteAck{Acknowledged: true, DeletedCount: deleted}, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish sends an event. The write already succeeded, so failures are only logged.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func traceCarrier(ctx context.Context) propagation.MapCarrier {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// ParseID converts a 24 character hex string into an ObjectID.
// Returns ErrInvalidIdentifier for anything else.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", perrors.ErrInvalidIdentifier, id)
	}
	return oid, nil
}
