// Package repository implements persistence for events, registrations and
// colleges. The Postgres store uses pgx directly (no ORM) so the attendee
// counter can be moved with a single guarded UPDATE; the memory store backs
// tests and local runs with the same contract.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrCapacityExceeded is returned when an event is full, lacks room for the
// requested tickets, or the request is over the per-registration limit.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrAlreadyRegistered is returned when the same user registers twice.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrNotRegistered is returned when withdrawing a registration that does not exist.
var ErrNotRegistered = errors.New("user is not registered for this event")

// ErrMissingRequiredAnswers is returned when a required question is unanswered.
var ErrMissingRequiredAnswers = errors.New("all required questions must be answered")

// ErrInvalidAnswer is returned for an answer of the wrong shape or one that
// references another event's question.
var ErrInvalidAnswer = errors.New("invalid answer")

// ErrDependency is returned when an external collaborator (embedding
// provider, database) is unavailable.
var ErrDependency = errors.New("dependency failure")

// Reader holds the read paths available both inside and outside a
// transaction.
type Reader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	UserByEmail(ctx context.Context, email string) (*model.AppUser, error)
	UserByID(ctx context.Context, id string) (*model.AppUser, error)
	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	// RegistrationFor returns ErrNotFound when the pair has no registration.
	RegistrationFor(ctx context.Context, eventID, attendeeID string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	ListUserRegistrations(ctx context.Context, attendeeID string) ([]model.Registration, error)
	ListColleges(ctx context.Context) ([]model.College, error)
	SearchEvents(ctx context.Context, q *search.Query) ([]model.ScoredEvent, error)
	SearchColleges(ctx context.Context, q *search.Query) ([]model.ScoredCollege, error)
}

// Tx is the unit of work admission, transitions and creation run in.
type Tx interface {
	Reader

	// EventForUpdate loads the event with its questions and locks the row
	// until the transaction ends.
	EventForUpdate(ctx context.Context, id string) (*model.Event, error)
	// RegistrationForUpdate loads and locks a registration.
	RegistrationForUpdate(ctx context.Context, id string) (*model.Registration, error)
	QuestionByID(ctx context.Context, id string) (*model.Question, error)

	// InsertRegistration returns ErrAlreadyRegistered when (event, attendee)
	// already has a row.
	InsertRegistration(ctx context.Context, r *model.Registration) error
	InsertAnswer(ctx context.Context, a *model.Answer) error
	SetRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus) error
	DeleteRegistration(ctx context.Context, id string) error

	// AdjustAttendeeCount moves num_attendees by delta in one statement
	// against the live row, only if the result stays within
	// [0, capacity]. It reports whether the row was updated.
	AdjustAttendeeCount(ctx context.Context, eventID string, delta int) (bool, error)

	InsertEvent(ctx context.Context, e *model.Event) error
	// UpdateEvent writes the descriptive fields and capacity. It reports
	// false when the new capacity is below the live attendee count.
	UpdateEvent(ctx context.Context, e *model.Event) (bool, error)
	InsertCollege(ctx context.Context, c *model.College) error
	InsertUser(ctx context.Context, u *model.AppUser) error
}

// Store is a transactional repository.
type Store interface {
	Reader
	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
