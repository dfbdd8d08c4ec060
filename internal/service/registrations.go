package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/notify"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
)

// Register admits a user to an event. The capacity checks, the registration
// and answer writes and the attendee counter update run in one transaction
// that holds the event row lock, so two requests for the last seats cannot
// both succeed.
func (s *EventService) Register(ctx context.Context, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	email := normalizeEmail(req.UserEmail)
	if email == "" {
		return nil, invalid("user_email", "user_email is required")
	}
	if err := checkID("event", eventID); err != nil {
		return nil, err
	}

	tickets := req.Tickets
	if tickets == 0 {
		tickets = 1
	}
	if tickets < 0 {
		return nil, invalid("tickets", "tickets must be at least 1")
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, invalid("status", "unknown status %q", req.Status)
	}

	var (
		reg   *model.Registration
		event *model.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		e, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return wrapNotFound(err, "event", eventID)
		}
		user, err := tx.UserByEmail(ctx, email)
		if err != nil {
			return wrapNotFound(err, "user", email)
		}

		if e.IsFull() {
			return fmt.Errorf("%w: event is at full capacity", repository.ErrCapacityExceeded)
		}
		if e.NumAttendees+tickets > e.Capacity {
			return fmt.Errorf("%w: not enough capacity for %d tickets, %d remaining",
				repository.ErrCapacityExceeded, tickets, e.Remaining())
		}
		if tickets > e.MaxTickets {
			return fmt.Errorf("%w: ticket limit, you can only request up to %d tickets",
				repository.ErrCapacityExceeded, e.MaxTickets)
		}

		if _, err := tx.RegistrationFor(ctx, e.ID, user.ID); err == nil {
			return repository.ErrAlreadyRegistered
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check existing registration: %w", err)
		}

		if err := checkRequired(e, req.Answers); err != nil {
			return err
		}

		status := req.Status
		if status == "" {
			status = model.StatusApproved
			if e.RequiresApproval {
				status = model.StatusPending
			}
		}
		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			displayName = user.FullName()
		}
		if displayName == "" {
			displayName = user.Email
		}

		now := time.Now().UTC()
		r := &model.Registration{
			ID:            uuid.NewString(),
			EventID:       e.ID,
			AttendeeID:    user.ID,
			AttendeeEmail: user.Email,
			DisplayName:   displayName,
			Tickets:       tickets,
			Status:        status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertRegistration(ctx, r); err != nil {
			return err
		}

		answers, err := buildAnswers(ctx, tx, e, r.ID, req.Answers)
		if err != nil {
			return err
		}
		for i := range answers {
			if err := tx.InsertAnswer(ctx, &answers[i]); err != nil {
				return err
			}
		}
		r.Answers = answers

		if status == model.StatusApproved {
			ok, err := tx.AdjustAttendeeCount(ctx, e.ID, tickets)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: not enough capacity for %d tickets", repository.ErrCapacityExceeded, tickets)
			}
			e.NumAttendees += tickets
		}

		reg, event = r, e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("registration created",
		zap.String("event_id", event.ID),
		zap.String("registration_id", reg.ID),
		zap.String("status", string(reg.Status)),
		zap.Int("tickets", reg.Tickets),
		zap.Int("num_attendees", event.NumAttendees),
	)
	s.notifier.Dispatch(notify.Confirmation(reg.AttendeeEmail, event.Name))
	return reg, nil
}

// checkRequired fails when a required question has no answer.
func checkRequired(e *model.Event, answers []model.AnswerRequest) error {
	for _, id := range e.RequiredQuestionIDs() {
		answered := slices.ContainsFunc(answers, func(a model.AnswerRequest) bool {
			return a.QuestionID == id
		})
		if !answered {
			q, _ := e.Question(id)
			return fmt.Errorf("%w: %q is unanswered", repository.ErrMissingRequiredAnswers, q.Text)
		}
	}
	return nil
}

// buildAnswers validates every submitted answer against its question.
func buildAnswers(ctx context.Context, tx repository.Tx, e *model.Event, regID string, reqs []model.AnswerRequest) ([]model.Answer, error) {
	answers := make([]model.Answer, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, a := range reqs {
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("%w: question %s answered twice", repository.ErrInvalidAnswer, a.QuestionID)
		}
		seen[a.QuestionID] = true

		value, ok := a.Value()
		if !ok {
			return nil, fmt.Errorf("%w: question %s needs exactly one of single_answer or multi_answer",
				repository.ErrInvalidAnswer, a.QuestionID)
		}

		q, found := e.Question(a.QuestionID)
		if !found {
			if err := checkID("question", a.QuestionID); err != nil {
				return nil, err
			}
			other, err := tx.QuestionByID(ctx, a.QuestionID)
			if err != nil {
				return nil, wrapNotFound(err, "question", a.QuestionID)
			}
			return nil, fmt.Errorf("%w: question %s belongs to event %s",
				repository.ErrInvalidAnswer, other.ID, other.EventID)
		}

		if !q.Accepts(value) {
			want := "single_answer"
			if q.Type == model.QuestionMultiSelect {
				want = "multi_answer"
			}
			return nil, fmt.Errorf("%w: %s question %q takes a %s",
				repository.ErrInvalidAnswer, q.Type, q.Text, want)
		}
		if err := checkChoices(q, value); err != nil {
			return nil, err
		}

		answers = append(answers, model.Answer{
			ID:             uuid.NewString(),
			RegistrationID: regID,
			QuestionID:     q.ID,
			Value:          value,
		})
	}
	return answers, nil
}

// checkChoices rejects values outside a choice question's options.
func checkChoices(q model.Question, v model.AnswerValue) error {
	if q.Type == model.QuestionTyped || len(q.Choices) == 0 {
		return nil
	}
	var values []string
	switch v := v.(type) {
	case model.SingleAnswer:
		values = []string{v.Value}
	case model.MultiAnswer:
		values = v.Values
	}
	for _, val := range values {
		if !slices.Contains(q.Choices, val) {
			return fmt.Errorf("%w: %q is not an option of %q", repository.ErrInvalidAnswer, val, q.Text)
		}
	}
	return nil
}

// Unregister withdraws a user's registration, releasing its seats when it
// was approved.
func (s *EventService) Unregister(ctx context.Context, eventID string, req model.UnregisterRequest) error {
	email := normalizeEmail(req.UserEmail)
	if email == "" {
		return invalid("user_email", "user_email is required")
	}
	if err := checkID("event", eventID); err != nil {
		return err
	}

	var released *model.Registration
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		e, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return wrapNotFound(err, "event", eventID)
		}
		user, err := tx.UserByEmail(ctx, email)
		if err != nil {
			return wrapNotFound(err, "user", email)
		}

		r, err := tx.RegistrationFor(ctx, e.ID, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.ErrNotRegistered
			}
			return err
		}

		if r.Status == model.StatusApproved {
			if err := adjust(ctx, tx, e.ID, -r.Tickets); err != nil {
				return err
			}
		}
		if err := tx.DeleteRegistration(ctx, r.ID); err != nil {
			return err
		}
		released = r
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("registration withdrawn",
		zap.String("event_id", eventID),
		zap.String("registration_id", released.ID),
		zap.String("status", string(released.Status)),
	)
	return nil
}

// UpdateRegistrationStatus writes a new status. Leaving APPROVED releases the
// registration's seats; entering APPROVED claims them and is rejected with
// ErrCapacityExceeded when they do not fit.
func (s *EventService) UpdateRegistrationStatus(ctx context.Context, regID string, status model.RegistrationStatus) (*model.Registration, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	if err := checkID("registration", regID); err != nil {
		return nil, err
	}

	var (
		reg      *model.Registration
		event    *model.Event
		approved bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		// Lock order is event then registration, as in Register.
		peek, err := tx.GetRegistration(ctx, regID)
		if err != nil {
			return wrapNotFound(err, "registration", regID)
		}
		e, err := tx.EventForUpdate(ctx, peek.EventID)
		if err != nil {
			return wrapNotFound(err, "event", peek.EventID)
		}
		r, err := tx.RegistrationForUpdate(ctx, regID)
		if err != nil {
			return wrapNotFound(err, "registration", regID)
		}

		event, reg = e, r
		if r.Status == status {
			return nil
		}

		switch {
		case r.Status == model.StatusApproved:
			if err := adjust(ctx, tx, e.ID, -r.Tickets); err != nil {
				return err
			}
			e.NumAttendees -= r.Tickets
		case status == model.StatusApproved:
			ok, err := tx.AdjustAttendeeCount(ctx, e.ID, r.Tickets)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: approving %d tickets would exceed capacity, %d remaining",
					repository.ErrCapacityExceeded, r.Tickets, e.Remaining())
			}
			e.NumAttendees += r.Tickets
			approved = true
		}

		if err := tx.SetRegistrationStatus(ctx, r.ID, status); err != nil {
			return err
		}
		r.Status = status
		r.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("registration status changed",
		zap.String("registration_id", reg.ID),
		zap.String("status", string(reg.Status)),
		zap.Int("num_attendees", event.NumAttendees),
	)
	if approved {
		s.notifier.Dispatch(notify.Approval(reg.AttendeeEmail, event.Name, event.ApprovalSuccessMessage))
	}
	return reg, nil
}

// adjust releases seats; a failed guard means the counter no longer matches
// the approved registrations.
func adjust(ctx context.Context, tx repository.Tx, eventID string, delta int) error {
	ok, err := tx.AdjustAttendeeCount(ctx, eventID, delta)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("attendee counter of event %s cannot move by %d", eventID, delta)
	}
	return nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}

// IsRegistered reports whether userID holds a registration for eventID.
func (s *EventService) IsRegistered(ctx context.Context, eventID, userID string) (*model.RegisteredResponse, error) {
	if err := checkID("event", eventID); err != nil {
		return nil, err
	}
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	r, err := s.store.RegistrationFor(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.RegisteredResponse{Exists: false}, nil
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &model.RegisteredResponse{
		Exists:      true,
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Status:      r.Status,
	}, nil
}

// ListUserRegistrations returns every registration of the user with email.
func (s *EventService) ListUserRegistrations(ctx context.Context, email string) ([]model.Registration, error) {
	email = normalizeEmail(email)
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, wrapNotFound(err, "user", email)
	}
	return s.store.ListUserRegistrations(ctx, user.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func wrapNotFound(err error, kind, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", repository.ErrNotFound, kind, id)
	}
	return err
}
