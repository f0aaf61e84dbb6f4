// Package query filters and renders patch listings. A filter is an
// accumulated AND of field predicates; rendering goes through one token
// table that also generates the embedded help text.
package query

import (
	"fmt"
	"time"

	"github.com/osesov/gerrit-cli/internal/gerrit"
)

// PatchRecord is one row of a listing: an immutable snapshot of a remote
// change for the duration of one query.
type PatchRecord struct {
	Number    int
	Owner     string
	Subject   string
	Branch    string
	Topic     string
	Age       time.Duration
	Starred   bool
	Watched   bool
	Draft     bool
	Reviewed  bool
	Assigned  bool
	Mine      bool
	Reviewers []string
}

// FromChange builds a record from server change metadata. self is the
// identity of the invoking user, used for the mine/assigned flags; now
// anchors the age computation. Watched is not part of change metadata
// and stays false until the caller marks it from a watched-changes
// lookup.
func FromChange(c *gerrit.ChangeInfo, self string, now time.Time) PatchRecord {
	rec := PatchRecord{
		Number:   c.Number,
		Owner:    c.Owner.Identity(),
		Subject:  c.Subject,
		Branch:   c.Branch,
		Topic:    c.Topic,
		Starred:  c.Starred,
		Draft:    c.Draft(),
		Reviewed: c.Reviewed,
	}
	if !c.Updated.IsZero() {
		rec.Age = now.Sub(c.Updated.Time)
	}
	rec.Mine = self != "" && rec.Owner == self
	rec.Assigned = self != "" && c.Assignee.Identity() == self
	for _, a := range c.Reviewers["REVIEWER"] {
		rec.Reviewers = append(rec.Reviewers, a.Identity())
	}
	return rec
}

// FormatAge renders a duration the way listings show it: the largest whole
// unit, e.g. "3w", "2d", "5h", "12m".
func FormatAge(d time.Duration) string {
	switch {
	case d >= 7*24*time.Hour:
		return fmt.Sprintf("%dw", int(d/(7*24*time.Hour)))
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return "now"
	}
}
