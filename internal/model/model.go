// Package model defines the core domain types for the events platform.
package model

import (
	"strings"
	"time"
)

// RegistrationStatus is the approval state of a registration.
type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "PENDING"
	StatusApproved  RegistrationStatus = "APPROVED"
	StatusRejected  RegistrationStatus = "REJECTED"
	StatusCancelled RegistrationStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// QuestionType decides which answer shape a question accepts.
type QuestionType string

const (
	QuestionChoice      QuestionType = "CHOICE"
	QuestionMultiSelect QuestionType = "MULTISELECT"
	QuestionTyped       QuestionType = "TYPED"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionChoice, QuestionMultiSelect, QuestionTyped:
		return true
	}
	return false
}

// Event represents an event created by an organizer.
//
// NumAttendees is the sum of tickets across APPROVED registrations. It is
// maintained by atomic deltas in the store and never recomputed on read.
type Event struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Type                   string     `json:"type"`
	Description            string     `json:"description"`
	Location               string     `json:"location"`
	Image                  string     `json:"image,omitempty"`
	Capacity               int        `json:"capacity"`
	MaxTickets             int        `json:"max_tickets"`
	NumAttendees           int        `json:"num_attendees"`
	StartDate              time.Time  `json:"event_start_date_utc"`
	EndDate                time.Time  `json:"event_end_date_utc"`
	Timezone               string     `json:"event_timezone"`
	RequiresApproval       bool       `json:"requires_approval"`
	ApprovalSuccessMessage string     `json:"approval_success_message,omitempty"`
	CreatorID              string     `json:"creator_id,omitempty"`
	Questions              []Question `json:"questions,omitempty"`
	Embedding              []float32  `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	return e.Capacity - e.NumAttendees
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.NumAttendees >= e.Capacity
}

// RequiredQuestionIDs returns the ids of questions that must be answered.
func (e *Event) RequiredQuestionIDs() []string {
	var ids []string
	for _, q := range e.Questions {
		if q.Required {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// Question finds one of the event's questions by id.
func (e *Event) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Question is a custom registration question attached to an event.
type Question struct {
	ID       string       `json:"id"`
	EventID  string       `json:"event_id"`
	Position int          `json:"position"`
	Text     string       `json:"question"`
	Type     QuestionType `json:"type"`
	Choices  []string     `json:"choices"`
	Required bool         `json:"required"`
}

// Registration represents a user's registration for an event.
type Registration struct {
	ID            string             `json:"id"`
	EventID       string             `json:"event_id"`
	AttendeeID    string             `json:"attendee_id"`
	AttendeeEmail string             `json:"attendee_email"`
	DisplayName   string             `json:"display_name"`
	Tickets       int                `json:"tickets"`
	Status        RegistrationStatus `json:"status"`
	Answers       []Answer           `json:"answers,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// AppUser is the identity that creates and attends events.
type AppUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CollegeID string `json:"college_id,omitempty"`
}

// FullName joins first and last name.
func (u *AppUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// College is reference data users belong to.
type College struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredEvent is an event returned by a similarity-aware query. Distance is
// nil when the query had no vector.
type ScoredEvent struct {
	Event
	Distance *float64 `json:"distance,omitempty"`
}

// ScoredCollege is the college counterpart of ScoredEvent.
type ScoredCollege struct {
	College
	Distance *float64 `json:"distance,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BookingResult summarises the outcome of a single registration attempt.
// Used in the concurrent test harness.
type BookingResult struct {
	UserEmail string
	Success   bool
	Error     error
}
