package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
)

// SearchEvents returns one page of events matching the filters. A search
// query narrows the result to events similar to the query text and ranks
// them by distance after the primary sort key.
func (s *EventService) SearchEvents(ctx context.Context, req model.EventSearchRequest) (*model.SearchedEventsResponse, error) {
	sort, err := search.EventSort(req.SortBy)
	if err != nil {
		return nil, err
	}
	after, err := search.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	if req.MinAttendees != nil && *req.MinAttendees < 0 {
		return nil, invalid("minAttendees", "must not be negative")
	}

	var vec []float32
	if text := strings.TrimSpace(req.SearchQuery); text != "" {
		if vec, err = embed(ctx, s.embedder, text); err != nil {
			return nil, err
		}
	}

	q, err := search.NewEventQuery(search.EventFilter{
		Types:        req.Types,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		MinAttendees: req.MinAttendees,
	}, vec, sort, req.Limit, after)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.SearchEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}

	resp := &model.SearchedEventsResponse{Events: hits}
	if resp.Events == nil {
		resp.Events = []model.ScoredEvent{}
	}
	if n := len(hits); n > 0 {
		last := hits[n-1]
		resp.NextCursor, resp.HasNext = q.NextCursor(n, search.EventRow(last.Event), last.Distance)
	}
	return resp, nil
}

// Recommend returns up to 20 other events whose embedding lies within the
// recommendation threshold of the event's own, nearest first.
func (s *EventService) Recommend(ctx context.Context, eventID string) ([]model.ScoredEvent, error) {
	e, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(e.Embedding) == 0 {
		return nil, fmt.Errorf("%w: event %s has no embedding", repository.ErrNotFound, eventID)
	}

	hits, err := s.store.SearchEvents(ctx, search.NewRecommendQuery(e.ID, e.Embedding))
	if err != nil {
		return nil, fmt.Errorf("recommend events: %w", err)
	}
	if hits == nil {
		hits = []model.ScoredEvent{}
	}
	return hits, nil
}
