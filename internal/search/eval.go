package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Shivanand-hulikatti/unihub-events/internal/similarity"
)

// Hit is a row that passed the query together with its distance.
type Hit struct {
	Row      Row
	Distance *float64
}

// Apply evaluates q over rows in memory: filter, cursor, order, limit.
func (q *Query) Apply(rows []Row) []Hit {
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		d := q.distance(r)
		if !q.match(r, d) {
			continue
		}
		if q.After != nil && q.compareCursor(r, d) <= 0 {
			continue
		}
		hits = append(hits, Hit{Row: r, Distance: d})
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		return q.compare(a.Row, a.Distance, b.Row, b.Distance)
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits
}

func (q *Query) distance(r Row) *float64 {
	if q.Vector == nil || len(r.Embedding) == 0 {
		return nil
	}
	d := similarity.Distance(q.Vector, r.Embedding)
	return &d
}

func (q *Query) match(r Row, d *float64) bool {
	for _, c := range q.Clauses {
		switch c.Kind {
		case ClauseTypeIn:
			if !slices.Contains(c.Strings, r.Type) {
				return false
			}
		case ClauseStartsFrom:
			if r.StartDate.Before(c.Time) {
				return false
			}
		case ClauseEndsBy:
			if r.EndDate.After(c.Time) {
				return false
			}
		case ClauseMinAttendees:
			if r.NumAttendees < c.Int {
				return false
			}
		case ClauseLocationContains:
			if !strings.Contains(strings.ToLower(r.Location), strings.ToLower(c.Text)) {
				return false
			}
		case ClauseWithinDistance:
			if d == nil || *d > c.Float {
				return false
			}
		case ClauseExcludeID:
			if r.ID == c.Text {
				return false
			}
		}
	}
	return true
}

func (q *Query) compare(a Row, da *float64, b Row, db *float64) int {
	for _, t := range q.Order {
		var c int
		switch t.Column {
		case ColNumAttendees:
			c = cmp.Compare(a.NumAttendees, b.NumAttendees)
		case ColStartDate:
			c = a.StartDate.Compare(b.StartDate)
		case ColName:
			c = strings.Compare(a.Name, b.Name)
		case ColDistance:
			c = compareDistance(da, db)
		case ColID:
			c = strings.Compare(a.ID, b.ID)
		}
		if t.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareCursor orders r against the cursor position; positive means r comes
// after it.
func (q *Query) compareCursor(r Row, d *float64) int {
	c := q.After
	for _, t := range q.Order {
		var v int
		switch t.Column {
		case ColNumAttendees:
			v = cmp.Compare(r.NumAttendees, *c.NumAttendees)
		case ColStartDate:
			v = r.StartDate.Compare(*c.StartDate)
		case ColName:
			v = strings.Compare(r.Name, *c.Name)
		case ColDistance:
			v = compareDistance(d, c.Distance)
		case ColID:
			v = strings.Compare(r.ID, c.ID)
		}
		if t.Desc {
			v = -v
		}
		if v != 0 {
			return v
		}
	}
	return 0
}

// compareDistance sorts nil last, like NULLS LAST for ascending order.
func compareDistance(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}
