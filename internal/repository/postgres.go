package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
)

var eventColumnList = []string{
	"id", "name", "type", "description", "location", "image", "capacity", "max_tickets",
	"num_attendees", "event_start_date_utc", "event_end_date_utc", "event_timezone",
	"requires_approval", "approval_success_message", "creator_user_id", "embedding", "created_at",
}

var collegeColumnList = []string{"id", "name", "location", "thumbnail", "embedding", "created_at"}

var (
	eventColumns   = strings.Join(eventColumnList, ", ")
	collegeColumns = strings.Join(collegeColumnList, ", ")
)

const questionColumns = `id, event_id, position, question, type, choices, required`

const registrationSelect = `
	SELECT r.id, r.event_id, r.attendee_user_id, u.email, r.display_name,
	       r.tickets, r.status, r.created_at, r.updated_at
	FROM registrations r
	JOIN app_users u ON u.id = r.attendee_user_id`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore is the PostgreSQL + pgvector implementation of Store.
type PGStore struct {
	pool *pgxpool.Pool
	queries
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, queries: queries{db: pool}}
}

// WithTx runs fn inside a single database transaction. Every step fn takes
// is atomic: either all of it is visible to other connections or none is.
func (s *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrDependency, err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{queries: queries{db: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	queries
}

// queries holds every statement; it runs against the pool or a transaction.
type queries struct {
	db querier
}

func scanEvent(row pgx.Row, extra ...any) (*model.Event, error) {
	var (
		e       model.Event
		creator *string
		emb     *pgvector.Vector
	)
	dest := []any{
		&e.ID, &e.Name, &e.Type, &e.Description, &e.Location, &e.Image, &e.Capacity, &e.MaxTickets,
		&e.NumAttendees, &e.StartDate, &e.EndDate, &e.Timezone,
		&e.RequiresApproval, &e.ApprovalSuccessMessage, &creator, &emb, &e.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if creator != nil {
		e.CreatorID = *creator
	}
	if emb != nil {
		e.Embedding = emb.Slice()
	}
	return &e, nil
}

func scanCollege(row pgx.Row, extra ...any) (*model.College, error) {
	var (
		c         model.College
		thumbnail *string
		emb       *pgvector.Vector
	)
	dest := []any{&c.ID, &c.Name, &c.Location, &thumbnail, &emb, &c.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if thumbnail != nil {
		c.Thumbnail = *thumbnail
	}
	if emb != nil {
		c.Embedding = emb.Slice()
	}
	return &c, nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var r model.Registration
	err := row.Scan(&r.ID, &r.EventID, &r.AttendeeID, &r.AttendeeEmail, &r.DisplayName,
		&r.Tickets, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func vectorArg(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetEvent returns a single event with its questions or ErrNotFound.
func (q queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return q.loadEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// EventForUpdate is GetEvent plus SELECT … FOR UPDATE. Concurrent admissions
// for the same event queue behind this row lock, so the capacity they read is
// the committed one.
func (q queries) EventForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return q.loadEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (q queries) loadEvent(ctx context.Context, sql, id string) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	e.Questions, err = q.questions(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (q queries) questions(ctx context.Context, eventID string) ([]model.Question, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE event_id = $1 ORDER BY position ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var qs []model.Question
	for rows.Next() {
		var qu model.Question
		if err := rows.Scan(&qu.ID, &qu.EventID, &qu.Position, &qu.Text, &qu.Type, &qu.Choices, &qu.Required); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qs = append(qs, qu)
	}
	return qs, rows.Err()
}

// QuestionByID returns any event's question by id.
func (q queries) QuestionByID(ctx context.Context, id string) (*model.Question, error) {
	var qu model.Question
	err := q.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id).
		Scan(&qu.ID, &qu.EventID, &qu.Position, &qu.Text, &qu.Type, &qu.Choices, &qu.Required)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &qu, nil
}

// ListEvents returns all events ordered by start date.
func (q queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_start_date_utc ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// SearchEvents runs a ranked event query.
func (q queries) SearchEvents(ctx context.Context, sq *search.Query) ([]model.ScoredEvent, error) {
	sql, args, err := sq.ToSQL(eventColumnList...)
	if err != nil {
		return nil, fmt.Errorf("build event search: %w", err)
	}
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var hits []model.ScoredEvent
	for rows.Next() {
		var dist *float64
		e, err := scanEvent(rows, &dist)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		hits = append(hits, model.ScoredEvent{Event: *e, Distance: dist})
	}
	return hits, rows.Err()
}

// SearchColleges runs a ranked college query.
func (q queries) SearchColleges(ctx context.Context, sq *search.Query) ([]model.ScoredCollege, error) {
	sql, args, err := sq.ToSQL(collegeColumnList...)
	if err != nil {
		return nil, fmt.Errorf("build college search: %w", err)
	}
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search colleges: %w", err)
	}
	defer rows.Close()

	var hits []model.ScoredCollege
	for rows.Next() {
		var dist *float64
		c, err := scanCollege(rows, &dist)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		hits = append(hits, model.ScoredCollege{College: *c, Distance: dist})
	}
	return hits, rows.Err()
}

// ListColleges returns all colleges ordered by name.
func (q queries) ListColleges(ctx context.Context) ([]model.College, error) {
	rows, err := q.db.Query(ctx, `SELECT `+collegeColumns+` FROM colleges ORDER BY name COLLATE "C" ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer rows.Close()

	var colleges []model.College
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		colleges = append(colleges, *c)
	}
	return colleges, rows.Err()
}

// UserByEmail resolves an attendee identity.
func (q queries) UserByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	return q.loadUser(ctx, `WHERE email = $1`, email)
}

// UserByID resolves a user by id.
func (q queries) UserByID(ctx context.Context, id string) (*model.AppUser, error) {
	return q.loadUser(ctx, `WHERE id = $1`, id)
}

func (q queries) loadUser(ctx context.Context, where string, arg string) (*model.AppUser, error) {
	var (
		u       model.AppUser
		college *string
	)
	err := q.db.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, college_id FROM app_users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &college)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if college != nil {
		u.CollegeID = *college
	}
	return &u, nil
}

// GetRegistration returns a registration with its answers.
func (q queries) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return q.loadRegistration(ctx, registrationSelect+` WHERE r.id = $1`, id)
}

// RegistrationForUpdate locks the registration row.
func (q queries) RegistrationForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	return q.loadRegistration(ctx, registrationSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id)
}

// RegistrationFor returns the registration of attendeeID for eventID.
func (q queries) RegistrationFor(ctx context.Context, eventID, attendeeID string) (*model.Registration, error) {
	return q.loadRegistration(ctx,
		registrationSelect+` WHERE r.event_id = $1 AND r.attendee_user_id = $2`, eventID, attendeeID)
}

func (q queries) loadRegistration(ctx context.Context, sql string, args ...any) (*model.Registration, error) {
	r, err := scanRegistration(q.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	regs := []model.Registration{*r}
	if err := q.attachAnswers(ctx, regs); err != nil {
		return nil, err
	}
	return &regs[0], nil
}

// ListRegistrations returns all registrations for a given event.
func (q queries) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	return q.listRegistrations(ctx, registrationSelect+` WHERE r.event_id = $1 ORDER BY r.created_at ASC, r.id ASC`, eventID)
}

// ListUserRegistrations returns every registration held by attendeeID.
func (q queries) ListUserRegistrations(ctx context.Context, attendeeID string) ([]model.Registration, error) {
	return q.listRegistrations(ctx, registrationSelect+` WHERE r.attendee_user_id = $1 ORDER BY r.created_at ASC, r.id ASC`, attendeeID)
}

func (q queries) listRegistrations(ctx context.Context, sql, arg string) ([]model.Registration, error) {
	rows, err := q.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := q.attachAnswers(ctx, regs); err != nil {
		return nil, err
	}
	return regs, nil
}

func (q queries) attachAnswers(ctx context.Context, regs []model.Registration) error {
	if len(regs) == 0 {
		return nil
	}
	ids := make([]string, len(regs))
	index := make(map[string]int, len(regs))
	for i, r := range regs {
		ids[i] = r.ID
		index[r.ID] = i
	}

	rows, err := q.db.Query(ctx,
		`SELECT a.id, a.registration_id, a.question_id, a.single_answer, a.multi_answer
		 FROM answers a
		 JOIN questions qu ON qu.id = a.question_id
		 WHERE a.registration_id = ANY($1)
		 ORDER BY qu.position ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a      model.Answer
			single *string
			multi  []string
		)
		if err := rows.Scan(&a.ID, &a.RegistrationID, &a.QuestionID, &single, &multi); err != nil {
			return fmt.Errorf("scan answer: %w", err)
		}
		a.Value = model.AnswerFromParts(single, multi)
		i := index[a.RegistrationID]
		regs[i].Answers = append(regs[i].Answers, a)
	}
	return rows.Err()
}

// InsertRegistration creates the registration record. The unique
// (event_id, attendee_user_id) constraint is the final word on duplicates.
func (q queries) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO registrations (id, event_id, attendee_user_id, display_name, tickets, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.EventID, r.AttendeeID, r.DisplayName, r.Tickets, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// InsertAnswer stores one answer.
func (q queries) InsertAnswer(ctx context.Context, a *model.Answer) error {
	single, multi := a.Parts()
	_, err := q.db.Exec(ctx,
		`INSERT INTO answers (id, registration_id, question_id, single_answer, multi_answer)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.RegistrationID, a.QuestionID, single, multi,
	)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// SetRegistrationStatus writes a new status.
func (q queries) SetRegistrationStatus(ctx context.Context, id string, status model.RegistrationStatus) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE registrations SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRegistration removes a registration; answers cascade.
func (q queries) DeleteRegistration(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustAttendeeCount increments the counter in the database rather than
// writing back a value read earlier, so concurrent writers cannot lose each
// other's updates. The WHERE guard keeps 0 <= num_attendees <= capacity.
func (q queries) AdjustAttendeeCount(ctx context.Context, eventID string, delta int) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE events
		 SET num_attendees = num_attendees + $2
		 WHERE id = $1
		   AND num_attendees + $2 >= 0
		   AND num_attendees + $2 <= capacity`,
		eventID, delta,
	)
	if err != nil {
		return false, fmt.Errorf("adjust num_attendees: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertEvent inserts an event and its questions.
func (q queries) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.Name, e.Type, e.Description, e.Location, e.Image, e.Capacity, e.MaxTickets,
		e.NumAttendees, e.StartDate, e.EndDate, e.Timezone,
		e.RequiresApproval, e.ApprovalSuccessMessage, nullable(e.CreatorID), vectorArg(e.Embedding), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for _, qu := range e.Questions {
		choices := qu.Choices
		if choices == nil {
			choices = []string{}
		}
		_, err := q.db.Exec(ctx,
			`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			qu.ID, e.ID, qu.Position, qu.Text, qu.Type, choices, qu.Required,
		)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}

// UpdateEvent writes the mutable fields. The capacity guard is evaluated
// against the live counter.
func (q queries) UpdateEvent(ctx context.Context, e *model.Event) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE events
		 SET name = $2, type = $3, description = $4, location = $5, capacity = $6, embedding = $7
		 WHERE id = $1 AND num_attendees <= $6`,
		e.ID, e.Name, e.Type, e.Description, e.Location, e.Capacity, vectorArg(e.Embedding),
	)
	if err != nil {
		return false, fmt.Errorf("update event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertCollege stores a college.
func (q queries) InsertCollege(ctx context.Context, c *model.College) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO colleges (`+collegeColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Location, nullable(c.Thumbnail), vectorArg(c.Embedding), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert college: %w", err)
	}
	return nil
}

// InsertUser stores a user record.
func (q queries) InsertUser(ctx context.Context, u *model.AppUser) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO app_users (id, email, first_name, last_name, college_id) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.FirstName, u.LastName, nullable(u.CollegeID),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
