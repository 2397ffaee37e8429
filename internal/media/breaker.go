package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

// Store is the remote media host contract.
type Store interface {
	Upload(ctx context.Context, file *models.UploadedFile) (*models.ImageDescriptor, error)
	Remove(ctx context.Context, image *models.ImageDescriptor) error
}

const defaultBreakerFailures = 5

// BreakerStore fails fast once the wrapped store keeps failing.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next Store, cfg config.MediaConfig, log *zap.Logger) *BreakerStore {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}

	settings := gobreaker.Settings{
		Name:    "media-store",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMissingObjectKey)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerStore) Upload(ctx context.Context, file *models.UploadedFile) (*models.ImageDescriptor, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Upload(ctx, file)
	})
	if err != nil {
		if isBreakerRejection(err) {
			return nil, fmt.Errorf("%w: %w", ErrUpload, err)
		}
		return nil, err
	}
	return result.(*models.ImageDescriptor), nil
}

func (b *BreakerStore) Remove(ctx context.Context, image *models.ImageDescriptor) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Remove(ctx, image)
	})
	return err
}

// State exposes the breaker state, reported by /health.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
