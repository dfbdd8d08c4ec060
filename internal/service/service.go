// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/embedding"
	"github.com/Shivanand-hulikatti/unihub-events/internal/notify"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

// ValidationError reports a request that is well formed but breaks a rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Notifier queues a notification without waiting for delivery.
type Notifier interface {
	Dispatch(msg notify.Message)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	store    repository.Store
	embedder embedding.Provider
	notifier Notifier
	log      *zap.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	store repository.Store,
	embedder embedding.Provider,
	notifier Notifier,
	log *zap.Logger,
) *EventService {
	return &EventService{store: store, embedder: embedder, notifier: notifier, log: log}
}

// embed calls the provider and normalizes the result. Provider failures are
// reported as dependency failures.
func embed(ctx context.Context, p embedding.Provider, text string) ([]float32, error) {
	v, err := p.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding provider: %v", repository.ErrDependency, err)
	}
	if len(v) != similarity.Dimensions {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, want %d",
			repository.ErrDependency, len(v), similarity.Dimensions)
	}
	return similarity.Normalize(v), nil
}

// checkID reports a malformed id as a missing resource; ids are UUIDs.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s %q", repository.ErrNotFound, kind, id)
	}
	return nil
}
