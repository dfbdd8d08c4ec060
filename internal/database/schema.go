package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS colleges (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		location    TEXT NOT NULL,
		thumbnail   TEXT,
		embedding   vector(1536),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS app_users (
		id          UUID PRIMARY KEY,
		email       TEXT NOT NULL UNIQUE,
		first_name  TEXT NOT NULL DEFAULT '',
		last_name   TEXT NOT NULL DEFAULT '',
		college_id  UUID REFERENCES colleges(id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id                        UUID PRIMARY KEY,
		name                      TEXT NOT NULL,
		type                      TEXT NOT NULL,
		description               TEXT NOT NULL DEFAULT '',
		location                  TEXT NOT NULL,
		image                     TEXT NOT NULL DEFAULT '',
		capacity                  INT NOT NULL CHECK (capacity > 0),
		max_tickets               INT NOT NULL CHECK (max_tickets > 0),
		num_attendees             INT NOT NULL DEFAULT 0,
		event_start_date_utc      TIMESTAMPTZ NOT NULL,
		event_end_date_utc        TIMESTAMPTZ NOT NULL,
		event_timezone            TEXT NOT NULL,
		requires_approval         BOOLEAN NOT NULL DEFAULT false,
		approval_success_message  TEXT NOT NULL DEFAULT '',
		creator_user_id           UUID REFERENCES app_users(id),
		embedding                 vector(1536),
		created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT events_attendees_within_capacity
			CHECK (num_attendees >= 0 AND num_attendees <= capacity)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id        UUID PRIMARY KEY,
		event_id  UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		position  INT NOT NULL,
		question  TEXT NOT NULL,
		type      TEXT NOT NULL CHECK (type IN ('CHOICE', 'MULTISELECT', 'TYPED')),
		choices   TEXT[] NOT NULL DEFAULT '{}',
		required  BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id                UUID PRIMARY KEY,
		event_id          UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		attendee_user_id  UUID NOT NULL REFERENCES app_users(id),
		display_name      TEXT NOT NULL DEFAULT '',
		tickets           INT NOT NULL CHECK (tickets > 0),
		status            TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'CANCELLED')),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (event_id, attendee_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id               UUID PRIMARY KEY,
		registration_id  UUID NOT NULL REFERENCES registrations(id) ON DELETE CASCADE,
		question_id      UUID NOT NULL REFERENCES questions(id),
		single_answer    TEXT,
		multi_answer     TEXT[],
		CHECK ((single_answer IS NULL) <> (multi_answer IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_event ON questions(event_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_attendee ON registrations(attendee_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_registration ON answers(registration_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_start ON events(event_start_date_utc, id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_popularity ON events(num_attendees DESC, id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_embedding ON events USING hnsw (embedding vector_cosine_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_colleges_embedding ON colleges USING hnsw (embedding vector_cosine_ops)`,
}

// Migrate creates the tables and indexes when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
