package model

import "time"

// QuestionRequest describes a question submitted with a new event.
type QuestionRequest struct {
	Question string       `json:"question" validate:"required,max=500"`
	Type     QuestionType `json:"type" validate:"required,oneof=CHOICE MULTISELECT TYPED"`
	Choices  []string     `json:"choices" validate:"dive,required"`
	Required bool         `json:"required"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name                   string            `json:"name" validate:"required,max=200"`
	Type                   string            `json:"type" validate:"required,max=50"`
	Description            string            `json:"description" validate:"max=5000"`
	Location               string            `json:"location" validate:"required,max=300"`
	Image                  string            `json:"image" validate:"omitempty,url"`
	Capacity               int               `json:"capacity" validate:"gt=0"`
	MaxTickets             int               `json:"max_tickets" validate:"gt=0"`
	StartDate              time.Time         `json:"event_start_date_utc" validate:"required"`
	EndDate                time.Time         `json:"event_end_date_utc" validate:"required"`
	Timezone               string            `json:"event_timezone" validate:"required"`
	CreatorID              string            `json:"creator_id" validate:"omitempty,uuid"`
	RequiresApproval       bool              `json:"requires_approval"`
	ApprovalSuccessMessage string            `json:"approval_success_message" validate:"max=2000"`
	Questions              []QuestionRequest `json:"questions" validate:"dive"`
}

// UpdateEventRequest is a partial update; nil fields are left untouched.
type UpdateEventRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Type        *string `json:"type" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=300"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
}

// AnswerRequest carries exactly one of SingleAnswer or MultiAnswer.
type AnswerRequest struct {
	QuestionID   string   `json:"question_id" validate:"required"`
	SingleAnswer *string  `json:"single_answer"`
	MultiAnswer  []string `json:"multi_answer"`
}

// Value converts the request into the tagged answer value. It returns false
// when neither or both shapes are present.
func (a AnswerRequest) Value() (AnswerValue, bool) {
	switch {
	case a.SingleAnswer != nil && a.MultiAnswer == nil:
		return SingleAnswer{Value: *a.SingleAnswer}, true
	case a.SingleAnswer == nil && a.MultiAnswer != nil:
		return MultiAnswer{Values: a.MultiAnswer}, true
	}
	return nil, false
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	UserEmail   string             `json:"user_email" validate:"required,email"`
	DisplayName string             `json:"display_name" validate:"max=200"`
	Tickets     int                `json:"tickets" validate:"gte=0"`
	Status      RegistrationStatus `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	Answers     []AnswerRequest    `json:"answers" validate:"dive"`
}

// UnregisterRequest is the payload for withdrawing a registration.
type UnregisterRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
}

// UpdateRegistrationRequest changes a registration's status.
type UpdateRegistrationRequest struct {
	Status RegistrationStatus `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED CANCELLED"`
}

// CreateCollegeRequest is the payload for adding a college.
type CreateCollegeRequest struct {
	Name      string `json:"name" validate:"required,max=300"`
	Location  string `json:"location" validate:"required,max=300"`
	Thumbnail string `json:"thumbnail" validate:"omitempty,url"`
}

// EventSearchRequest holds the filters of an event search.
type EventSearchRequest struct {
	Types        []string
	StartDate    *time.Time
	EndDate      *time.Time
	MinAttendees *int
	SearchQuery  string
	SortBy       string
	Limit        int
	Cursor       string
}

// CollegeSearchRequest holds the filters of a college search.
type CollegeSearchRequest struct {
	Location    string
	SearchQuery string
	SortBy      string
	Limit       int
	Cursor      string
}

// SearchedEventsResponse is one page of event search results.
type SearchedEventsResponse struct {
	Events     []ScoredEvent `json:"events"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasNext    bool          `json:"has_next"`
}

// SearchedCollegesResponse is one page of college search results.
type SearchedCollegesResponse struct {
	Colleges   []ScoredCollege `json:"colleges"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasNext    bool            `json:"has_next"`
}

// RegisteredResponse tells whether a user holds a registration for an event.
type RegisteredResponse struct {
	Exists      bool               `json:"exists"`
	ID          string             `json:"id,omitempty"`
	DisplayName string             `json:"display_name,omitempty"`
	Status      RegistrationStatus `json:"status,omitempty"`
}
