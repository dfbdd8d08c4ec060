package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/embedding"
	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
)

const maxCapacity = 100_000

// CreateEvent validates the request, embeds the event text and stores the
// event with its questions in one transaction.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	req.Location = strings.TrimSpace(req.Location)

	switch {
	case req.Name == "":
		return nil, invalid("name", "event name is required")
	case req.Type == "":
		return nil, invalid("type", "event type is required")
	case req.Location == "":
		return nil, invalid("location", "location is required")
	case req.Capacity <= 0:
		return nil, invalid("capacity", "capacity must be a positive integer")
	case req.Capacity > maxCapacity:
		return nil, invalid("capacity", "capacity cannot exceed 100,000")
	case req.MaxTickets <= 0 || req.MaxTickets > req.Capacity:
		return nil, invalid("max_tickets", "max_tickets must be between 1 and capacity")
	case req.StartDate.IsZero() || req.EndDate.IsZero():
		return nil, invalid("event_start_date_utc", "start and end dates are required")
	case req.EndDate.Before(req.StartDate):
		return nil, invalid("event_end_date_utc", "event cannot end before it starts")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		return nil, invalid("event_timezone", "unknown timezone %q", req.Timezone)
	}

	eventID := uuid.NewString()
	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			return nil, invalid(fmt.Sprintf("questions[%d]", i), "question text is required")
		}
		if !q.Type.Valid() {
			return nil, invalid(fmt.Sprintf("questions[%d]", i), "unknown question type %q", q.Type)
		}
		choices := q.Choices
		if q.Type == model.QuestionTyped {
			choices = nil
		} else if len(choices) == 0 {
			return nil, invalid(fmt.Sprintf("questions[%d]", i), "%s questions need at least one choice", q.Type)
		}
		questions = append(questions, model.Question{
			ID:       uuid.NewString(),
			EventID:  eventID,
			Position: i,
			Text:     text,
			Type:     q.Type,
			Choices:  choices,
			Required: q.Required,
		})
	}

	if req.CreatorID != "" {
		if err := checkID("creator", req.CreatorID); err != nil {
			return nil, err
		}
		if _, err := s.store.UserByID(ctx, req.CreatorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: creator %s", repository.ErrNotFound, req.CreatorID)
			}
			return nil, fmt.Errorf("get creator: %w", err)
		}
	}

	vec, err := embed(ctx, s.embedder, embedding.EventText(req.Name, req.Description))
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:                     eventID,
		Name:                   req.Name,
		Type:                   req.Type,
		Description:            req.Description,
		Location:               req.Location,
		Image:                  req.Image,
		Capacity:               req.Capacity,
		MaxTickets:             req.MaxTickets,
		StartDate:              req.StartDate.UTC(),
		EndDate:                req.EndDate.UTC(),
		Timezone:               req.Timezone,
		RequiresApproval:       req.RequiresApproval,
		ApprovalSuccessMessage: req.ApprovalSuccessMessage,
		CreatorID:              req.CreatorID,
		Questions:              questions,
		Embedding:              vec,
		CreatedAt:              time.Now().UTC(),
	}

	if err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.InsertEvent(ctx, event)
	}); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("name", event.Name),
		zap.Int("capacity", event.Capacity),
	)
	return event, nil
}

// UpdateEvent applies a partial update. Capacity can shrink only down to the
// current attendee count.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := func(e *model.Event) {
		if req.Name != nil {
			e.Name = strings.TrimSpace(*req.Name)
		}
		if req.Type != nil {
			e.Type = strings.TrimSpace(*req.Type)
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.Location != nil {
			e.Location = strings.TrimSpace(*req.Location)
		}
		if req.Capacity != nil {
			e.Capacity = *req.Capacity
		}
	}

	preview := *current
	patch(&preview)
	switch {
	case preview.Name == "":
		return nil, invalid("name", "event name is required")
	case preview.Type == "":
		return nil, invalid("type", "event type is required")
	case preview.Location == "":
		return nil, invalid("location", "location is required")
	case preview.Capacity <= 0 || preview.Capacity > maxCapacity:
		return nil, invalid("capacity", "capacity must be between 1 and 100,000")
	case preview.Capacity < preview.MaxTickets:
		return nil, invalid("capacity", "capacity cannot be below max_tickets (%d)", preview.MaxTickets)
	}

	// Re-embed outside the transaction so the row lock is not held across
	// the provider call.
	var vec []float32
	if preview.Name != current.Name || preview.Description != current.Description {
		vec, err = embed(ctx, s.embedder, embedding.EventText(preview.Name, preview.Description))
		if err != nil {
			return nil, err
		}
	}

	var updated *model.Event
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		e, err := tx.EventForUpdate(ctx, id)
		if err != nil {
			return err
		}
		patch(e)
		if vec != nil {
			e.Embedding = vec
		}
		ok, err := tx.UpdateEvent(ctx, e)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: capacity %d is below the %d current attendees",
				repository.ErrCapacityExceeded, e.Capacity, e.NumAttendees)
		}
		updated = e
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", repository.ErrNotFound, id)
		}
		return nil, err
	}
	return updated, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := checkID("event", id); err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", repository.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
