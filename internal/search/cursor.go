package search

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor holds the sort-key values of the last row of a page. Only the
// fields of the query's order columns are set.
type Cursor struct {
	NumAttendees *int       `json:"n,omitempty"`
	StartDate    *time.Time `json:"s,omitempty"`
	Name         *string    `json:"nm,omitempty"`
	Distance     *float64   `json:"d,omitempty"`
	ID           string     `json:"id"`
}

func (c *Cursor) has(col Column) bool {
	switch col {
	case ColNumAttendees:
		return c.NumAttendees != nil
	case ColStartDate:
		return c.StartDate != nil
	case ColName:
		return c.Name != nil
	case ColDistance:
		return c.Distance != nil
	case ColID:
		return c.ID != ""
	}
	return false
}

// Encode returns the opaque token handed to clients.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by Encode. An empty token yields a nil
// cursor, meaning the first page.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	return &c, nil
}

// CursorFor captures r's values for every order column of q.
func (q *Query) CursorFor(r Row, distance *float64) Cursor {
	c := Cursor{ID: r.ID}
	for _, t := range q.Order {
		switch t.Column {
		case ColNumAttendees:
			n := r.NumAttendees
			c.NumAttendees = &n
		case ColStartDate:
			s := r.StartDate
			c.StartDate = &s
		case ColName:
			nm := r.Name
			c.Name = &nm
		case ColDistance:
			if distance != nil {
				d := *distance
				c.Distance = &d
			}
		}
	}
	return c
}

// NextCursor reports whether another page may follow a page of n rows whose
// last row is last, and the token to fetch it. A page is considered full,
// and therefore followed, when it holds exactly Limit rows.
func (q *Query) NextCursor(n int, last Row, distance *float64) (string, bool) {
	if n == 0 || n < q.Limit {
		return "", false
	}
	return q.CursorFor(last, distance).Encode(), true
}
