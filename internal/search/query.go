// Package search composes filter clauses, similarity ranking and keyset
// pagination into a single ranked query over events or colleges.
//
// A Query is data: a list of optional clauses, an ordering and an optional
// cursor. The Postgres store renders it to SQL with ToSQL; the in-memory store
// evaluates the same Query with Apply, so both back ends agree on order.
package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

// Page size bounds.
const (
	DefaultLimit = 3
	MaxLimit     = 100
)

var (
	// ErrInvalidSort is returned for an unknown sort key.
	ErrInvalidSort = errors.New("invalid sort key")
	// ErrInvalidCursor is returned when a cursor cannot be decoded or does
	// not fit the query's ordering.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Target selects the table a query runs against.
type Target int

const (
	Events Target = iota
	Colleges
)

// SortKey is the user-facing primary ordering.
type SortKey string

const (
	SortRecency    SortKey = "recency"
	SortPopularity SortKey = "popularity"
	SortNameAsc    SortKey = "name_asc"
)

// EventSort validates an event sort key; empty means recency.
func EventSort(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortRecency:
		return SortRecency, nil
	case SortPopularity:
		return SortPopularity, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// CollegeSort validates a college sort key; colleges only sort by name.
func CollegeSort(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortNameAsc:
		return SortNameAsc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// ClampLimit applies the default and upper bound to a requested page size.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

// Column is a sortable column.
type Column int

const (
	ColNumAttendees Column = iota
	ColStartDate
	ColName
	ColDistance
	ColID
)

// OrderTerm is one key of the ORDER BY list.
type OrderTerm struct {
	Column Column
	Desc   bool
}

// ClauseKind tags which field of a Clause is meaningful.
type ClauseKind int

const (
	ClauseTypeIn           ClauseKind = iota // Strings
	ClauseStartsFrom                         // Time
	ClauseEndsBy                             // Time
	ClauseMinAttendees                       // Int
	ClauseLocationContains                   // Text, case-insensitive
	ClauseWithinDistance                     // Float, needs Query.Vector
	ClauseExcludeID                          // Text
)

// Clause is a single optional filter predicate.
type Clause struct {
	Kind    ClauseKind
	Strings []string
	Text    string
	Time    time.Time
	Int     int
	Float   float64
}

// Query is a ranked, paged search.
type Query struct {
	Target  Target
	Clauses []Clause
	// Vector is the unit-normalized query embedding, nil without a text query.
	Vector []float32
	Order  []OrderTerm
	After  *Cursor
	Limit  int
}

// EventFilter holds the relational filters of an event search.
type EventFilter struct {
	Types        []string
	StartDate    *time.Time
	EndDate      *time.Time
	MinAttendees *int
}

// CollegeFilter holds the relational filters of a college search.
type CollegeFilter struct {
	Location string
}

// NewEventQuery builds the event search. vec must already be normalized.
func NewEventQuery(f EventFilter, vec []float32, sort SortKey, limit int, after *Cursor) (*Query, error) {
	q := &Query{Target: Events, Vector: vec, Limit: ClampLimit(limit), After: after}

	if len(f.Types) > 0 {
		q.Clauses = append(q.Clauses, Clause{Kind: ClauseTypeIn, Strings: f.Types})
	}
	if f.StartDate != nil {
		q.Clauses = append(q.Clauses, Clause{Kind: ClauseStartsFrom, Time: *f.StartDate})
	}
	if f.EndDate != nil {
		q.Clauses = append(q.Clauses, Clause{Kind: ClauseEndsBy, Time: *f.EndDate})
	}
	if f.MinAttendees != nil {
		q.Clauses = append(q.Clauses, Clause{Kind: ClauseMinAttendees, Int: *f.MinAttendees})
	}
	if vec != nil {
		q.Clauses = append(q.Clauses, Clause{
			Kind:  ClauseWithinDistance,
			Float: similarity.MaxDistance(similarity.EventThreshold),
		})
	}

	if sort == SortPopularity {
		q.Order = append(q.Order, OrderTerm{Column: ColNumAttendees, Desc: true})
	} else {
		q.Order = append(q.Order, OrderTerm{Column: ColStartDate})
	}
	if vec != nil {
		q.Order = append(q.Order, OrderTerm{Column: ColDistance})
	}
	q.Order = append(q.Order, OrderTerm{Column: ColID})

	if err := q.checkCursor(); err != nil {
		return nil, err
	}
	return q, nil
}

// NewCollegeQuery builds the college search. vec must already be normalized.
func NewCollegeQuery(f CollegeFilter, vec []float32, limit int, after *Cursor) (*Query, error) {
	q := &Query{Target: Colleges, Vector: vec, Limit: ClampLimit(limit), After: after}

	if f.Location != "" {
		q.Clauses = append(q.Clauses, Clause{Kind: ClauseLocationContains, Text: f.Location})
	}
	if vec != nil {
		q.Clauses = append(q.Clauses, Clause{
			Kind:  ClauseWithinDistance,
			Float: similarity.MaxDistance(similarity.CollegeThreshold),
		})
	}

	q.Order = append(q.Order, OrderTerm{Column: ColName})
	if vec != nil {
		q.Order = append(q.Order, OrderTerm{Column: ColDistance})
	}
	q.Order = append(q.Order, OrderTerm{Column: ColID})

	if err := q.checkCursor(); err != nil {
		return nil, err
	}
	return q, nil
}

// NewRecommendQuery finds events near vec, excluding eventID itself.
func NewRecommendQuery(eventID string, vec []float32) *Query {
	return &Query{
		Target: Events,
		Vector: vec,
		Clauses: []Clause{
			{Kind: ClauseExcludeID, Text: eventID},
			{Kind: ClauseWithinDistance, Float: similarity.MaxDistance(similarity.RecommendationThreshold)},
		},
		Order: []OrderTerm{{Column: ColDistance}, {Column: ColID}},
		Limit: similarity.RecommendationLimit,
	}
}

// checkCursor rejects a cursor that lacks a value for one of the order
// columns, e.g. a cursor from a text search reused without the text.
func (q *Query) checkCursor() error {
	if q.After == nil {
		return nil
	}
	for _, t := range q.Order {
		if !q.After.has(t.Column) {
			return fmt.Errorf("%w: cursor does not match the requested ordering", ErrInvalidCursor)
		}
	}
	return nil
}

// Row is the projection of an event or college the query evaluates.
type Row struct {
	ID           string
	Type         string
	Name         string
	Location     string
	NumAttendees int
	StartDate    time.Time
	EndDate      time.Time
	Embedding    []float32
}

// EventRow projects an event.
func EventRow(e model.Event) Row {
	return Row{
		ID:           e.ID,
		Type:         e.Type,
		Name:         e.Name,
		Location:     e.Location,
		NumAttendees: e.NumAttendees,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Embedding:    e.Embedding,
	}
}

// CollegeRow projects a college.
func CollegeRow(c model.College) Row {
	return Row{ID: c.ID, Name: c.Name, Location: c.Location, Embedding: c.Embedding}
}
