package search

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

var errNoVector = errors.New("distance clause without a query vector")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Table names per target.
const (
	EventsTable   = "events"
	CollegesTable = "colleges"
)

func (q *Query) table() string {
	if q.Target == Colleges {
		return CollegesTable
	}
	return EventsTable
}

// ToSQL renders the query for Postgres with pgvector. The selected columns
// are followed by a distance column, NULL when the query has no vector.
func (q *Query) ToSQL(columns ...string) (string, []any, error) {
	b := psql.Select(columns...).From(q.table())

	if q.Vector != nil {
		b = b.Column(sq.Expr("(embedding <=> ?) AS distance", q.vectorArg()))
	} else {
		b = b.Column("NULL::float8 AS distance")
	}

	for _, c := range q.Clauses {
		pred, err := q.clauseSQL(c)
		if err != nil {
			return "", nil, err
		}
		b = b.Where(pred)
	}

	if q.After != nil {
		pred, err := q.keysetSQL()
		if err != nil {
			return "", nil, err
		}
		b = b.Where(pred)
	}

	for _, t := range q.Order {
		b = b.OrderBy(orderSQL(t))
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b.ToSql()
}

func (q *Query) vectorArg() pgvector.Vector {
	return pgvector.NewVector(q.Vector)
}

func (q *Query) clauseSQL(c Clause) (sq.Sqlizer, error) {
	switch c.Kind {
	case ClauseTypeIn:
		return sq.Expr("type = ANY(?)", c.Strings), nil
	case ClauseStartsFrom:
		return sq.GtOrEq{"event_start_date_utc": c.Time}, nil
	case ClauseEndsBy:
		return sq.LtOrEq{"event_end_date_utc": c.Time}, nil
	case ClauseMinAttendees:
		return sq.GtOrEq{"num_attendees": c.Int}, nil
	case ClauseLocationContains:
		return sq.Expr("location ILIKE ?", "%"+escapeLike(c.Text)+"%"), nil
	case ClauseWithinDistance:
		if q.Vector == nil {
			return nil, errNoVector
		}
		return sq.Expr("(embedding <=> ?) <= ?", q.vectorArg(), c.Float), nil
	case ClauseExcludeID:
		return sq.NotEq{"id": c.Text}, nil
	}
	return nil, fmt.Errorf("unknown clause kind %d", c.Kind)
}

// keysetSQL expands the lexicographic comparison
// (k0, k1, ..., kn) > (v0, v1, ..., vn), honouring each key's direction:
//
//	k0 > v0 OR (k0 = v0 AND k1 > v1) OR ...
func (q *Query) keysetSQL() (sq.Sqlizer, error) {
	var or sq.Or
	for i, t := range q.Order {
		var and sq.And
		for _, prev := range q.Order[:i] {
			p, err := q.compareSQL(prev, "=")
			if err != nil {
				return nil, err
			}
			and = append(and, p)
		}
		op := ">"
		if t.Desc {
			op = "<"
		}
		p, err := q.compareSQL(t, op)
		if err != nil {
			return nil, err
		}
		if len(and) == 0 {
			or = append(or, p)
			continue
		}
		or = append(or, append(and, p))
	}
	return or, nil
}

func (q *Query) compareSQL(t OrderTerm, op string) (sq.Sqlizer, error) {
	c := q.After
	switch t.Column {
	case ColNumAttendees:
		return sq.Expr("num_attendees "+op+" ?", *c.NumAttendees), nil
	case ColStartDate:
		return sq.Expr("event_start_date_utc "+op+" ?", *c.StartDate), nil
	case ColName:
		return sq.Expr(`name COLLATE "C" `+op+" ?", *c.Name), nil
	case ColDistance:
		if q.Vector == nil {
			return nil, errNoVector
		}
		return sq.Expr("(embedding <=> ?) "+op+" ?", q.vectorArg(), *c.Distance), nil
	case ColID:
		return sq.Expr("id "+op+" ?", c.ID), nil
	}
	return nil, fmt.Errorf("unknown column %d", t.Column)
}

func orderSQL(t OrderTerm) string {
	dir := " ASC"
	if t.Desc {
		dir = " DESC"
	}
	switch t.Column {
	case ColNumAttendees:
		return "num_attendees" + dir
	case ColStartDate:
		return "event_start_date_utc" + dir
	case ColName:
		return `name COLLATE "C"` + dir
	case ColDistance:
		return "distance" + dir
	default:
		return "id" + dir
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
