package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
)

// MemoryStore keeps everything in process memory. Transactions are
// serialized by a single mutex and run against a copy of the state, which is
// swapped in only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

type memState struct {
	events    map[string]model.Event
	questions map[string]model.Question
	users     map[string]model.AppUser
	regs      map[string]model.Registration
	colleges  map[string]model.College
}

func newMemState() *memState {
	return &memState{
		events:    map[string]model.Event{},
		questions: map[string]model.Question{},
		users:     map[string]model.AppUser{},
		regs:      map[string]model.Registration{},
		colleges:  map[string]model.College{},
	}
}

// clone copies the maps. Slices inside values are never mutated in place,
// so sharing them between copies is safe.
func (s *memState) clone() *memState {
	return &memState{
		events:    cloneMap(s.events),
		questions: cloneMap(s.questions),
		users:     cloneMap(s.users),
		regs:      cloneMap(s.regs),
		colleges:  cloneMap(s.colleges),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithTx runs fn with exclusive access to a copy of the state.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(memTx{work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) read() memTx {
	return memTx{s.state}
}

func (s *MemoryStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().GetEvent(ctx, id)
}

func (s *MemoryStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ListEvents(ctx)
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().UserByEmail(ctx, email)
}

func (s *MemoryStore) UserByID(ctx context.Context, id string) (*model.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().UserByID(ctx, id)
}

func (s *MemoryStore) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().GetRegistration(ctx, id)
}

func (s *MemoryStore) RegistrationFor(ctx context.Context, eventID, attendeeID string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().RegistrationFor(ctx, eventID, attendeeID)
}

func (s *MemoryStore) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ListRegistrations(ctx, eventID)
}

func (s *MemoryStore) ListUserRegistrations(ctx context.Context, attendeeID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ListUserRegistrations(ctx, attendeeID)
}

func (s *MemoryStore) ListColleges(ctx context.Context) ([]model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ListColleges(ctx)
}

func (s *MemoryStore) SearchEvents(ctx context.Context, q *search.Query) ([]model.ScoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SearchEvents(ctx, q)
}

func (s *MemoryStore) SearchColleges(ctx context.Context, q *search.Query) ([]model.ScoredCollege, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SearchColleges(ctx, q)
}

// memTx implements Tx over one memState. The caller holds the store mutex.
type memTx struct {
	st *memState
}

func (t memTx) event(id string) (*model.Event, error) {
	e, ok := t.st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.Questions = t.eventQuestions(id)
	return &e, nil
}

func (t memTx) eventQuestions(eventID string) []model.Question {
	var qs []model.Question
	for _, q := range t.st.questions {
		if q.EventID == eventID {
			qs = append(qs, q)
		}
	}
	slices.SortFunc(qs, func(a, b model.Question) int { return cmp.Compare(a.Position, b.Position) })
	return qs
}

// registration fills the attendee email the way the SQL join does.
func (t memTx) registration(r model.Registration) model.Registration {
	if u, ok := t.st.users[r.AttendeeID]; ok {
		r.AttendeeEmail = u.Email
	}
	r.Answers = slices.Clone(r.Answers)
	return r
}

func (t memTx) GetEvent(_ context.Context, id string) (*model.Event, error) {
	return t.event(id)
}

func (t memTx) EventForUpdate(_ context.Context, id string) (*model.Event, error) {
	return t.event(id)
}

func (t memTx) ListEvents(_ context.Context) ([]model.Event, error) {
	events := make([]model.Event, 0, len(t.st.events))
	for id := range t.st.events {
		e, _ := t.event(id)
		events = append(events, *e)
	}
	slices.SortFunc(events, func(a, b model.Event) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return events, nil
}

func (t memTx) QuestionByID(_ context.Context, id string) (*model.Question, error) {
	q, ok := t.st.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (t memTx) UserByEmail(_ context.Context, email string) (*model.AppUser, error) {
	for _, u := range t.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (t memTx) UserByID(_ context.Context, id string) (*model.AppUser, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t memTx) GetRegistration(_ context.Context, id string) (*model.Registration, error) {
	r, ok := t.st.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	r = t.registration(r)
	return &r, nil
}

func (t memTx) RegistrationForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return t.GetRegistration(ctx, id)
}

func (t memTx) RegistrationFor(_ context.Context, eventID, attendeeID string) (*model.Registration, error) {
	for _, r := range t.st.regs {
		if r.EventID == eventID && r.AttendeeID == attendeeID {
			r = t.registration(r)
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (t memTx) ListRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	return t.filterRegistrations(func(r model.Registration) bool { return r.EventID == eventID }), nil
}

func (t memTx) ListUserRegistrations(_ context.Context, attendeeID string) ([]model.Registration, error) {
	return t.filterRegistrations(func(r model.Registration) bool { return r.AttendeeID == attendeeID }), nil
}

func (t memTx) filterRegistrations(keep func(model.Registration) bool) []model.Registration {
	var regs []model.Registration
	for _, r := range t.st.regs {
		if keep(r) {
			regs = append(regs, t.registration(r))
		}
	}
	slices.SortFunc(regs, func(a, b model.Registration) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return regs
}

func (t memTx) ListColleges(_ context.Context) ([]model.College, error) {
	colleges := make([]model.College, 0, len(t.st.colleges))
	for _, c := range t.st.colleges {
		colleges = append(colleges, c)
	}
	slices.SortFunc(colleges, func(a, b model.College) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return colleges, nil
}

func (t memTx) SearchEvents(_ context.Context, q *search.Query) ([]model.ScoredEvent, error) {
	rows := make([]search.Row, 0, len(t.st.events))
	for _, e := range t.st.events {
		rows = append(rows, search.EventRow(e))
	}
	hits := q.Apply(rows)
	out := make([]model.ScoredEvent, 0, len(hits))
	for _, h := range hits {
		e, _ := t.event(h.Row.ID)
		out = append(out, model.ScoredEvent{Event: *e, Distance: h.Distance})
	}
	return out, nil
}

func (t memTx) SearchColleges(_ context.Context, q *search.Query) ([]model.ScoredCollege, error) {
	rows := make([]search.Row, 0, len(t.st.colleges))
	for _, c := range t.st.colleges {
		rows = append(rows, search.CollegeRow(c))
	}
	hits := q.Apply(rows)
	out := make([]model.ScoredCollege, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.ScoredCollege{College: t.st.colleges[h.Row.ID], Distance: h.Distance})
	}
	return out, nil
}

func (t memTx) InsertRegistration(_ context.Context, r *model.Registration) error {
	for _, existing := range t.st.regs {
		if existing.EventID == r.EventID && existing.AttendeeID == r.AttendeeID {
			return ErrAlreadyRegistered
		}
	}
	if _, ok := t.st.events[r.EventID]; !ok {
		return fmt.Errorf("insert registration: event %s: %w", r.EventID, ErrNotFound)
	}
	stored := *r
	stored.Answers = nil
	stored.AttendeeEmail = ""
	t.st.regs[r.ID] = stored
	return nil
}

func (t memTx) InsertAnswer(_ context.Context, a *model.Answer) error {
	r, ok := t.st.regs[a.RegistrationID]
	if !ok {
		return fmt.Errorf("insert answer: registration %s: %w", a.RegistrationID, ErrNotFound)
	}
	if _, ok := t.st.questions[a.QuestionID]; !ok {
		return fmt.Errorf("insert answer: question %s: %w", a.QuestionID, ErrNotFound)
	}
	r.Answers = append(slices.Clip(r.Answers), *a)
	t.st.regs[r.ID] = r
	return nil
}

func (t memTx) SetRegistrationStatus(_ context.Context, id string, status model.RegistrationStatus) error {
	r, ok := t.st.regs[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	t.st.regs[id] = r
	return nil
}

func (t memTx) DeleteRegistration(_ context.Context, id string) error {
	if _, ok := t.st.regs[id]; !ok {
		return ErrNotFound
	}
	delete(t.st.regs, id)
	return nil
}

func (t memTx) AdjustAttendeeCount(_ context.Context, eventID string, delta int) (bool, error) {
	e, ok := t.st.events[eventID]
	if !ok {
		return false, nil
	}
	n := e.NumAttendees + delta
	if n < 0 || n > e.Capacity {
		return false, nil
	}
	e.NumAttendees = n
	t.st.events[eventID] = e
	return true, nil
}

func (t memTx) InsertEvent(_ context.Context, e *model.Event) error {
	if _, ok := t.st.events[e.ID]; ok {
		return fmt.Errorf("insert event: duplicate id %s", e.ID)
	}
	stored := *e
	stored.Questions = nil
	t.st.events[e.ID] = stored
	for _, q := range e.Questions {
		q.EventID = e.ID
		t.st.questions[q.ID] = q
	}
	return nil
}

func (t memTx) UpdateEvent(_ context.Context, e *model.Event) (bool, error) {
	cur, ok := t.st.events[e.ID]
	if !ok || cur.NumAttendees > e.Capacity {
		return false, nil
	}
	cur.Name = e.Name
	cur.Type = e.Type
	cur.Description = e.Description
	cur.Location = e.Location
	cur.Capacity = e.Capacity
	cur.Embedding = e.Embedding
	t.st.events[e.ID] = cur
	return true, nil
}

func (t memTx) InsertCollege(_ context.Context, c *model.College) error {
	if _, ok := t.st.colleges[c.ID]; ok {
		return fmt.Errorf("insert college: duplicate id %s", c.ID)
	}
	t.st.colleges[c.ID] = *c
	return nil
}

func (t memTx) InsertUser(_ context.Context, u *model.AppUser) error {
	for _, existing := range t.st.users {
		if existing.Email == u.Email {
			return fmt.Errorf("insert user: email %s already in use", u.Email)
		}
	}
	t.st.users[u.ID] = *u
	return nil
}
