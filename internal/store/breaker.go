package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BreakerStore decorates a ToyStore with a circuit breaker.
// Only ErrStoreUnavailable failures count against the breaker; an open breaker
// fails calls fast with ErrStoreUnavailable.
type BreakerStore struct {
	next ToyStore
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps next in a circuit breaker configured by cfg.
func NewBreakerStore(next ToyStore, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerStore {
	st := gobreaker.Settings{
		Name:        "toy-store-cb",
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// not found and bad input are answers, not outages
			return err == nil || !errors.Is(err, perrors.ErrStoreUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
	}
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %w", perrors.ErrStoreUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func (b *BreakerStore) FindAll(ctx context.Context, limit int64) ([]Toy, error) {
	return execute(b.cb, func() ([]Toy, error) { return b.next.FindAll(ctx, limit) })
}

func (b *BreakerStore) FindBySubCategory(ctx context.Context, category string) ([]Toy, error) {
	return execute(b.cb, func() ([]Toy, error) { return b.next.FindBySubCategory(ctx, category) })
}

func (b *BreakerStore) SearchByName(ctx context.Context, name string) ([]Toy, error) {
	return execute(b.cb, func() ([]Toy, error) { return b.next.SearchByName(ctx, name) })
}

func (b *BreakerStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Toy, error) {
	return execute(b.cb, func() (*Toy, error) { return b.next.FindByID(ctx, id) })
}

func (b *BreakerStore) FindBySeller(ctx context.Context, email string) ([]Toy, error) {
	return execute(b.cb, func() ([]Toy, error) { return b.next.FindBySeller(ctx, email) })
}

func (b *BreakerStore) Insert(ctx context.Context, fields bson.M) (primitive.ObjectID, error) {
	return execute(b.cb, func() (primitive.ObjectID, error) { return b.next.Insert(ctx, fields) })
}

func (b *BreakerStore) UpdateByID(ctx context.Context, id primitive.ObjectID, update ToyUpdate) (*UpdateResult, error) {
	return execute(b.cb, func() (*UpdateResult, error) { return b.next.UpdateByID(ctx, id, update) })
}

func (b *BreakerStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return execute(b.cb, func() (int64, error) { return b.next.DeleteByID(ctx, id) })
}

// Ping bypasses the breaker so readiness reflects the store itself.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}
