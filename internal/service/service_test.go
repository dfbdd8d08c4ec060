package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/embedding"
	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/notify"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

var start = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (f *fakeNotifier) Dispatch(msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeNotifier) sent() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.msgs...)
}

// topics maps keywords to axes so similarity in tests is exact.
var topics = []string{"jazz", "chess", "hackathon", "robotics"}

// topicEmbedder puts one unit on the axis of every keyword in the text, or on
// a catch-all axis when none matches.
var topicEmbedder = embedding.ProviderFunc(func(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, similarity.Dimensions)
	text = strings.ToLower(text)
	hit := false
	for i, k := range topics {
		if strings.Contains(text, k) {
			v[i] = 1
			hit = true
		}
	}
	if !hit {
		v[len(topics)] = 1
	}
	return v, nil
})

type fixture struct {
	svc      *EventService
	colleges *CollegeService
	store    *repository.MemoryStore
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	n := &fakeNotifier{}
	return &fixture{
		svc:      NewEventService(store, topicEmbedder, n, zap.NewNop()),
		colleges: NewCollegeService(store, topicEmbedder, zap.NewNop()),
		store:    store,
		notifier: n,
	}
}

func (f *fixture) user(t *testing.T, email string) *model.AppUser {
	t.Helper()
	u := &model.AppUser{ID: uuid.NewString(), Email: email, FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertUser(context.Background(), u)
	}))
	return u
}

func eventRequest(name string, capacity, maxTickets int) model.CreateEventRequest {
	return model.CreateEventRequest{
		Name:       name,
		Type:       "social",
		Location:   "Main Quad",
		Capacity:   capacity,
		MaxTickets: maxTickets,
		StartDate:  start,
		EndDate:    start.Add(2 * time.Hour),
		Timezone:   "America/Los_Angeles",
	}
}

func (f *fixture) event(t *testing.T, req model.CreateEventRequest) *model.Event {
	t.Helper()
	e, err := f.svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	return e
}

func (f *fixture) attendees(t *testing.T, eventID string) int {
	t.Helper()
	e, err := f.svc.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return e.NumAttendees
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("stores normalized embedding and ordered questions", func(t *testing.T) {
		req := eventRequest("  Jazz Night ", 50, 4)
		req.Questions = []model.QuestionRequest{
			{Question: "Instrument?", Type: model.QuestionTyped, Choices: []string{"ignored"}},
			{Question: "Seating", Type: model.QuestionChoice, Choices: []string{"front", "back"}, Required: true},
		}
		e := f.event(t, req)

		assert.Equal(t, "Jazz Night", e.Name)
		assert.Equal(t, 0, e.NumAttendees)
		require.Len(t, e.Embedding, similarity.Dimensions)
		assert.InDelta(t, 1, similarity.Dot(e.Embedding, e.Embedding), 1e-6)

		got, err := f.svc.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, "Instrument?", got.Questions[0].Text)
		assert.Empty(t, got.Questions[0].Choices)
		assert.Equal(t, []string{got.Questions[1].ID}, got.RequiredQuestionIDs())
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		tests := []struct {
			name  string
			edit  func(r *model.CreateEventRequest)
			field string
		}{
			{"blank name", func(r *model.CreateEventRequest) { r.Name = "  " }, "name"},
			{"zero capacity", func(r *model.CreateEventRequest) { r.Capacity = 0 }, "capacity"},
			{"max tickets above capacity", func(r *model.CreateEventRequest) { r.MaxTickets = 51 }, "max_tickets"},
			{"ends before start", func(r *model.CreateEventRequest) { r.EndDate = start.Add(-time.Hour) }, "event_end_date_utc"},
			{"bad timezone", func(r *model.CreateEventRequest) { r.Timezone = "Mars/Olympus" }, "event_timezone"},
			{"choice without options", func(r *model.CreateEventRequest) {
				r.Questions = []model.QuestionRequest{{Question: "Pick", Type: model.QuestionChoice}}
			}, "questions[0]"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := eventRequest("Valid", 50, 4)
				tt.edit(&req)
				_, err := f.svc.CreateEvent(ctx, req)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
			})
		}
	})

	t.Run("unknown creator", func(t *testing.T) {
		req := eventRequest("Orphan", 5, 1)
		req.CreatorID = uuid.NewString()
		_, err := f.svc.CreateEvent(ctx, req)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("embedding failure is a dependency failure", func(t *testing.T) {
		broken := NewEventService(f.store, embedding.ProviderFunc(func(context.Context, string) ([]float32, error) {
			return nil, errors.New("openai: 503")
		}), f.notifier, zap.NewNop())
		_, err := broken.CreateEvent(ctx, eventRequest("Down", 5, 1))
		assert.ErrorIs(t, err, repository.ErrDependency)
	})
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Chess Club", 10, 5))
	for i := 0; i < 2; i++ {
		u := f.user(t, fmt.Sprintf("p%d@example.edu", i))
		_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 3})
		require.NoError(t, err)
	}

	small := 5
	_, err := f.svc.UpdateEvent(ctx, e.ID, model.UpdateEventRequest{Capacity: &small})
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Equal(t, 6, f.attendees(t, e.ID))

	name := "Robotics Club"
	capacity := 6
	updated, err := f.svc.UpdateEvent(ctx, e.ID, model.UpdateEventRequest{Name: &name, Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, "Robotics Club", updated.Name)
	assert.Equal(t, 6, updated.Capacity)

	got, err := f.svc.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	robotics, _ := topicEmbedder.Embed(ctx, "robotics")
	assert.InDelta(t, 0, similarity.Distance(got.Embedding, similarity.Normalize(robotics)), 1e-6)

	_, err = f.svc.UpdateEvent(ctx, uuid.NewString(), model.UpdateEventRequest{Name: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterCapacityScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Hackathon", 10, 4))

	for i := 0; i < 2; i++ {
		u := f.user(t, fmt.Sprintf("early%d@example.edu", i))
		_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 4})
		require.NoError(t, err)
	}
	require.Equal(t, 8, f.attendees(t, e.ID))

	late := f.user(t, "late@example.edu")
	_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: late.Email, Tickets: 3})
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "not enough capacity")

	reg, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: late.Email, Tickets: 2})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, reg.Status)
	assert.Equal(t, 10, f.attendees(t, e.ID))

	last := f.user(t, "last@example.edu")
	_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: last.Email, Tickets: 1})
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "full")
}

func TestRegisterTicketLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Lecture", 10, 2))
	u := f.user(t, "greedy@example.edu")

	_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 3})
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "ticket limit")

	regs, err := f.svc.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, regs)
	assert.Equal(t, 0, f.attendees(t, e.ID))
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Mixer", 10, 2))
	u := f.user(t, "twice@example.edu")

	_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: "  TWICE@example.edu "})
		assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
	}
	assert.Equal(t, 1, f.attendees(t, e.ID))
}

func TestRegisterUnknownEntities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Mixer", 10, 2))
	u := f.user(t, "known@example.edu")

	_, err := f.svc.Register(ctx, uuid.NewString(), model.RegisterRequest{UserEmail: u.Email})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Register(ctx, "not-a-uuid", model.RegisterRequest{UserEmail: u.Email})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: "ghost@example.edu"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterDefaultsAndConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := eventRequest("Gala", 10, 2)
	req.RequiresApproval = true
	e := f.event(t, req)
	u := f.user(t, "ada@example.edu")

	reg, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reg.Status)
	assert.Equal(t, 1, reg.Tickets)
	assert.Equal(t, "Ada Lovelace", reg.DisplayName)
	assert.Equal(t, 0, f.attendees(t, e.ID), "pending registrations hold no seats")

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.edu", sent[0].To)
	assert.Equal(t, notify.ConfirmationSubject, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Gala")
}

func TestRegisterRequiredQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := eventRequest("Workshop", 10, 2)
	req.Questions = []model.QuestionRequest{
		{Question: "T-shirt size", Type: model.QuestionChoice, Choices: []string{"S", "M", "L"}, Required: true},
		{Question: "Topics", Type: model.QuestionMultiSelect, Choices: []string{"go", "sql"}},
	}
	e := f.event(t, req)
	required, optional := e.Questions[0], e.Questions[1]
	u := f.user(t, "q@example.edu")

	_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email})
	require.ErrorIs(t, err, repository.ErrMissingRequiredAnswers)

	_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{
		UserEmail: u.Email,
		Answers:   []model.AnswerRequest{{QuestionID: optional.ID, MultiAnswer: []string{"go"}}},
	})
	require.ErrorIs(t, err, repository.ErrMissingRequiredAnswers)

	size := "M"
	reg, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{
		UserEmail: u.Email,
		Answers: []model.AnswerRequest{
			{QuestionID: required.ID, SingleAnswer: &size},
			{QuestionID: optional.ID, MultiAnswer: []string{"go", "sql"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, reg.Answers, 2)

	regs, err := f.svc.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, model.SingleAnswer{Value: "M"}, regs[0].Answers[0].Value)
	assert.Equal(t, model.MultiAnswer{Values: []string{"go", "sql"}}, regs[0].Answers[1].Value)
}

func TestRegisterInvalidAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := eventRequest("Survey", 10, 2)
	req.Questions = []model.QuestionRequest{
		{Question: "Size", Type: model.QuestionChoice, Choices: []string{"S", "M"}},
		{Question: "Topics", Type: model.QuestionMultiSelect, Choices: []string{"go", "sql"}},
		{Question: "Why?", Type: model.QuestionTyped},
	}
	e := f.event(t, req)
	choice, multi, typed := e.Questions[0], e.Questions[1], e.Questions[2]

	otherReq := eventRequest("Other", 10, 2)
	otherReq.Questions = []model.QuestionRequest{{Question: "Elsewhere", Type: model.QuestionTyped}}
	other := f.event(t, otherReq)

	s := func(v string) *string { return &v }
	tests := []struct {
		name    string
		answers []model.AnswerRequest
		want    error
	}{
		{"multi for choice", []model.AnswerRequest{{QuestionID: choice.ID, MultiAnswer: []string{"S"}}}, repository.ErrInvalidAnswer},
		{"single for multiselect", []model.AnswerRequest{{QuestionID: multi.ID, SingleAnswer: s("go")}}, repository.ErrInvalidAnswer},
		{"multi for typed", []model.AnswerRequest{{QuestionID: typed.ID, MultiAnswer: []string{"x"}}}, repository.ErrInvalidAnswer},
		{"both shapes", []model.AnswerRequest{{QuestionID: typed.ID, SingleAnswer: s("x"), MultiAnswer: []string{"y"}}}, repository.ErrInvalidAnswer},
		{"neither shape", []model.AnswerRequest{{QuestionID: typed.ID}}, repository.ErrInvalidAnswer},
		{"not an option", []model.AnswerRequest{{QuestionID: choice.ID, SingleAnswer: s("XL")}}, repository.ErrInvalidAnswer},
		{"answered twice", []model.AnswerRequest{{QuestionID: typed.ID, SingleAnswer: s("a")}, {QuestionID: typed.ID, SingleAnswer: s("b")}}, repository.ErrInvalidAnswer},
		{"question of another event", []model.AnswerRequest{{QuestionID: other.Questions[0].ID, SingleAnswer: s("x")}}, repository.ErrInvalidAnswer},
		{"unknown question", []model.AnswerRequest{{QuestionID: uuid.NewString(), SingleAnswer: s("x")}}, repository.ErrNotFound},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := f.user(t, fmt.Sprintf("bad%d@example.edu", i))
			_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Answers: tt.answers})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	regs, err := f.svc.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, regs, "rejected registrations must not be stored")
	assert.Equal(t, 0, f.attendees(t, e.ID))
}

func TestUnregister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Concert", 10, 4))
	u := f.user(t, "fan@example.edu")

	err := f.svc.Unregister(ctx, e.ID, model.UnregisterRequest{UserEmail: u.Email})
	assert.ErrorIs(t, err, repository.ErrNotRegistered)
	assert.Equal(t, 0, f.attendees(t, e.ID))

	_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, f.attendees(t, e.ID))

	require.NoError(t, f.svc.Unregister(ctx, e.ID, model.UnregisterRequest{UserEmail: u.Email}))
	assert.Equal(t, 0, f.attendees(t, e.ID))

	err = f.svc.Unregister(ctx, e.ID, model.UnregisterRequest{UserEmail: u.Email})
	assert.ErrorIs(t, err, repository.ErrNotRegistered)

	// A pending registration releases nothing.
	_, err = f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 2, Status: model.StatusPending})
	require.NoError(t, err)
	require.NoError(t, f.svc.Unregister(ctx, e.ID, model.UnregisterRequest{UserEmail: u.Email}))
	assert.Equal(t, 0, f.attendees(t, e.ID))
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("approve cancel approve", func(t *testing.T) {
		f := newFixture(t)
		req := eventRequest("Gala", 10, 4)
		req.RequiresApproval = true
		req.ApprovalSuccessMessage = "You're in. Dress code: black tie."
		e := f.event(t, req)
		u := f.user(t, "guest@example.edu")

		reg, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: u.Email, Tickets: 3})
		require.NoError(t, err)
		require.Equal(t, model.StatusPending, reg.Status)

		steps := []struct {
			status model.RegistrationStatus
			want   int
		}{
			{model.StatusApproved, 3},
			{model.StatusApproved, 3},
			{model.StatusCancelled, 0},
			{model.StatusRejected, 0},
			{model.StatusApproved, 3},
			{model.StatusPending, 0},
		}
		for _, st := range steps {
			got, err := f.svc.UpdateRegistrationStatus(ctx, reg.ID, st.status)
			require.NoError(t, err)
			assert.Equal(t, st.status, got.Status)
			assert.Equal(t, st.want, f.attendees(t, e.ID), "after %s", st.status)
		}

		var approvals []notify.Message
		for _, m := range f.notifier.sent() {
			if m.Subject == notify.ApprovalSubject {
				approvals = append(approvals, m)
			}
		}
		require.Len(t, approvals, 2)
		assert.Equal(t, "You're in. Dress code: black tie.", approvals[0].Body)
	})

	t.Run("approval beyond capacity is rejected", func(t *testing.T) {
		f := newFixture(t)
		req := eventRequest("Tiny", 4, 3)
		req.RequiresApproval = true
		e := f.event(t, req)

		a, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: f.user(t, "a@example.edu").Email, Tickets: 3})
		require.NoError(t, err)
		b, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: f.user(t, "b@example.edu").Email, Tickets: 2})
		require.NoError(t, err)

		_, err = f.svc.UpdateRegistrationStatus(ctx, a.ID, model.StatusApproved)
		require.NoError(t, err)

		_, err = f.svc.UpdateRegistrationStatus(ctx, b.ID, model.StatusApproved)
		require.ErrorIs(t, err, repository.ErrCapacityExceeded)
		assert.Equal(t, 3, f.attendees(t, e.ID))

		got, err := f.store.GetRegistration(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, got.Status, "status unchanged on rejection")
	})

	t.Run("unknown registration and status", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateRegistrationStatus(ctx, uuid.NewString(), model.StatusApproved)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = f.svc.UpdateRegistrationStatus(ctx, uuid.NewString(), "MAYBE")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestConcurrentRegistrations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, eventRequest("Hackathon Finals", 5, 1))

	const attempts = 20
	emails := make([]string, attempts)
	for i := range emails {
		emails[i] = f.user(t, fmt.Sprintf("racer%d@example.edu", i)).Email
	}

	results := make(chan model.BookingResult, attempts)
	var wg sync.WaitGroup
	for _, email := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: email})
			results <- model.BookingResult{UserEmail: email, Success: err == nil, Error: err}
		}(email)
	}
	wg.Wait()
	close(results)

	success := 0
	for r := range results {
		if r.Success {
			success++
			continue
		}
		assert.ErrorIs(t, r.Error, repository.ErrCapacityExceeded, r.UserEmail)
	}
	assert.Equal(t, 5, success)
	assert.Equal(t, 5, f.attendees(t, e.ID))
}

func TestConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := eventRequest("Limited Seminar", 5, 1)
	req.RequiresApproval = true
	e := f.event(t, req)

	var ids []string
	for i := 0; i < 12; i++ {
		reg, err := f.svc.Register(ctx, e.ID, model.RegisterRequest{UserEmail: f.user(t, fmt.Sprintf("w%d@example.edu", i)).Email})
		require.NoError(t, err)
		ids = append(ids, reg.ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.svc.UpdateRegistrationStatus(ctx, id, model.StatusApproved); err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, approved)
	assert.Equal(t, 5, f.attendees(t, e.ID))
}

func TestRegistrationQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e1 := f.event(t, eventRequest("Jazz Night", 10, 2))
	e2 := f.event(t, eventRequest("Chess Open", 10, 2))
	u := f.user(t, "reader@example.edu")

	res, err := f.svc.IsRegistered(ctx, e1.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, res.Exists)

	reg, err := f.svc.Register(ctx, e1.ID, model.RegisterRequest{UserEmail: u.Email, DisplayName: "Countess"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, e2.ID, model.RegisterRequest{UserEmail: u.Email})
	require.NoError(t, err)

	res, err = f.svc.IsRegistered(ctx, e1.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &model.RegisteredResponse{Exists: true, ID: reg.ID, DisplayName: "Countess", Status: model.StatusApproved}, res)

	mine, err := f.svc.ListUserRegistrations(ctx, "Reader@Example.edu")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.ListUserRegistrations(ctx, "nobody@example.edu")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.ListRegistrations(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
