package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

var start = time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)

func testEvent(name string, capacity int, at time.Time) *model.Event {
	id := uuid.NewString()
	return &model.Event{
		ID:         id,
		Name:       name,
		Type:       "social",
		Location:   "Main Quad",
		Capacity:   capacity,
		MaxTickets: capacity,
		StartDate:  at,
		EndDate:    at.Add(2 * time.Hour),
		Timezone:   "UTC",
		CreatedAt:  start,
		Questions: []model.Question{
			{ID: uuid.NewString(), EventID: id, Position: 0, Text: "Diet?", Type: model.QuestionChoice, Choices: []string{"veg", "none"}, Required: true},
			{ID: uuid.NewString(), EventID: id, Position: 1, Text: "Topics", Type: model.QuestionMultiSelect, Choices: []string{"go", "db"}},
		},
	}
}

func testUser(email string) *model.AppUser {
	return &model.AppUser{ID: uuid.NewString(), Email: email, FirstName: "Ada", LastName: "Lovelace"}
}

func testRegistration(e *model.Event, u *model.AppUser, tickets int, status model.RegistrationStatus) *model.Registration {
	return &model.Registration{
		ID:          uuid.NewString(),
		EventID:     e.ID,
		AttendeeID:  u.ID,
		DisplayName: u.FullName(),
		Tickets:     tickets,
		Status:      status,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
}

func seed(t *testing.T, s Store, e *model.Event, users ...*model.AppUser) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx Tx) error {
		for _, u := range users {
			if err := tx.InsertUser(context.Background(), u); err != nil {
				return err
			}
		}
		if e != nil {
			return tx.InsertEvent(context.Background(), e)
		}
		return nil
	})
	require.NoError(t, err)
}

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("event round trip keeps question order", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Hack Night", 10, start)
		seed(t, s, e)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.Name, got.Name)
		assert.Equal(t, 0, got.NumAttendees)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, "Diet?", got.Questions[0].Text)
		assert.Equal(t, []string{"go", "db"}, got.Questions[1].Choices)
		assert.Equal(t, []string{e.Questions[0].ID}, got.RequiredQuestionIDs())

		_, err = s.GetEvent(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("attendee count stays within capacity", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Small Room", 3, start)
		seed(t, s, e)

		adjust := func(delta int) bool {
			var ok bool
			require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
				var err error
				ok, err = tx.AdjustAttendeeCount(ctx, e.ID, delta)
				return err
			}))
			return ok
		}

		assert.True(t, adjust(2))
		assert.False(t, adjust(2), "would exceed capacity")
		assert.True(t, adjust(1))
		assert.False(t, adjust(-4), "would go negative")
		assert.True(t, adjust(-3))

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.NumAttendees)
	})

	t.Run("one registration per attendee and event", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Career Fair", 10, start)
		u := testUser("ada@example.edu")
		seed(t, s, e, u)

		insert := func() error {
			return s.WithTx(ctx, func(tx Tx) error {
				return tx.InsertRegistration(ctx, testRegistration(e, u, 1, model.StatusPending))
			})
		}
		require.NoError(t, insert())
		assert.ErrorIs(t, insert(), ErrAlreadyRegistered)

		regs, err := s.ListRegistrations(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, "ada@example.edu", regs[0].AttendeeEmail)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Rollback", 5, start)
		u := testUser("rb@example.edu")
		seed(t, s, e, u)

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx Tx) error {
			if _, err := tx.AdjustAttendeeCount(ctx, e.ID, 2); err != nil {
				return err
			}
			if err := tx.InsertRegistration(ctx, testRegistration(e, u, 2, model.StatusApproved)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.NumAttendees)
		_, err = s.RegistrationFor(ctx, e.ID, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("answers keep their shape", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Answers", 5, start)
		u := testUser("ans@example.edu")
		seed(t, s, e, u)

		r := testRegistration(e, u, 1, model.StatusApproved)
		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			if err := tx.InsertRegistration(ctx, r); err != nil {
				return err
			}
			if err := tx.InsertAnswer(ctx, &model.Answer{
				ID: uuid.NewString(), RegistrationID: r.ID, QuestionID: e.Questions[0].ID,
				Value: model.SingleAnswer{Value: "veg"},
			}); err != nil {
				return err
			}
			return tx.InsertAnswer(ctx, &model.Answer{
				ID: uuid.NewString(), RegistrationID: r.ID, QuestionID: e.Questions[1].ID,
				Value: model.MultiAnswer{Values: []string{"go", "db"}},
			})
		}))

		got, err := s.GetRegistration(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, got.Answers, 2)
		assert.Equal(t, model.SingleAnswer{Value: "veg"}, got.Answers[0].Value)
		assert.Equal(t, model.MultiAnswer{Values: []string{"go", "db"}}, got.Answers[1].Value)

		mine, err := s.ListUserRegistrations(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Len(t, mine[0].Answers, 2)
	})

	t.Run("status change and delete", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Status", 5, start)
		u := testUser("st@example.edu")
		seed(t, s, e, u)

		r := testRegistration(e, u, 1, model.StatusPending)
		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			if err := tx.InsertRegistration(ctx, r); err != nil {
				return err
			}
			return tx.SetRegistrationStatus(ctx, r.ID, model.StatusApproved)
		}))
		got, err := s.GetRegistration(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, got.Status)

		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			return tx.DeleteRegistration(ctx, r.ID)
		}))
		_, err = s.GetRegistration(ctx, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.WithTx(ctx, func(tx Tx) error { return tx.DeleteRegistration(ctx, r.ID) })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("capacity cannot drop below attendees", func(t *testing.T) {
		s := newStore(t)
		e := testEvent("Shrink", 10, start)
		seed(t, s, e)

		var ok bool
		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			if _, err := tx.AdjustAttendeeCount(ctx, e.ID, 6); err != nil {
				return err
			}
			cur, err := tx.EventForUpdate(ctx, e.ID)
			if err != nil {
				return err
			}
			cur.Capacity = 5
			ok, err = tx.UpdateEvent(ctx, cur)
			return err
		}))
		assert.False(t, ok)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Capacity)
	})

	t.Run("search events by popularity then text", func(t *testing.T) {
		s := newStore(t)
		near := similarity.Normalize(oneHot(0, 1))
		far := similarity.Normalize(oneHot(1, 1))

		a := testEvent("A", 10, start)
		a.Embedding = near
		b := testEvent("B", 10, start.Add(time.Hour))
		b.Embedding = near
		c := testEvent("C", 10, start.Add(2*time.Hour))
		c.Embedding = far
		seed(t, s, a)
		seed(t, s, b)
		seed(t, s, c)
		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			_, err := tx.AdjustAttendeeCount(ctx, b.ID, 4)
			return err
		}))

		q, err := search.NewEventQuery(search.EventFilter{}, nil, search.SortPopularity, 10, nil)
		require.NoError(t, err)
		hits, err := s.SearchEvents(ctx, q)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, b.ID, hits[0].ID)
		assert.Nil(t, hits[0].Distance)

		q, err = search.NewEventQuery(search.EventFilter{}, near, search.SortRecency, 10, nil)
		require.NoError(t, err)
		hits, err = s.SearchEvents(ctx, q)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, a.ID, hits[0].ID)
		assert.Equal(t, b.ID, hits[1].ID)
		require.NotNil(t, hits[0].Distance)
		assert.InDelta(t, 0, *hits[0].Distance, 1e-5)

		rec, err := s.SearchEvents(ctx, search.NewRecommendQuery(a.ID, near))
		require.NoError(t, err)
		require.Len(t, rec, 1)
		assert.Equal(t, b.ID, rec[0].ID)
	})

	t.Run("colleges by name with location filter", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
			for _, c := range []model.College{
				{ID: uuid.NewString(), Name: "Stanford", Location: "Stanford, CA", CreatedAt: start},
				{ID: uuid.NewString(), Name: "Berkeley", Location: "Berkeley, CA", CreatedAt: start},
				{ID: uuid.NewString(), Name: "UT Austin", Location: "Austin, TX", CreatedAt: start},
			} {
				if err := tx.InsertCollege(ctx, &c); err != nil {
					return err
				}
			}
			return nil
		}))

		q, err := search.NewCollegeQuery(search.CollegeFilter{Location: "ca"}, nil, 10, nil)
		require.NoError(t, err)
		hits, err := s.SearchColleges(ctx, q)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "Berkeley", hits[0].Name)
		assert.Equal(t, "Stanford", hits[1].Name)

		all, err := s.ListColleges(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

// oneHot returns a vector of the stored width with v at index i.
func oneHot(i int, v float32) []float32 {
	out := make([]float32, similarity.Dimensions)
	out[i] = v
	return out
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewMemoryStore().WithTx(ctx, func(Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
