package query

import (
	"fmt"
	"strconv"
)

// Field names a filterable PatchRecord attribute.
type Field string

// Filterable fields. String fields compare against a value; flag fields
// test a boolean.
const (
	FieldOwner    Field = "owner"
	FieldBranch   Field = "branch"
	FieldTopic    Field = "topic"
	FieldReviewer Field = "reviewer"
	FieldNumber   Field = "number"
	FieldMine     Field = "mine"
	FieldDrafts   Field = "drafts"
	FieldStarred  Field = "starred"
	FieldWatched  Field = "watched"
	FieldReviewed Field = "reviewed"
	FieldAssigned Field = "assigned"
)

// InvalidFilterError reports contradictory or malformed filter input. It is
// raised during filter construction, before any query executes.
type InvalidFilterError struct {
	Field  Field
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter on %s: %s", e.Field, e.Reason)
}

// predicate is one accumulated (field, expected, negate) triple.
type predicate struct {
	value  string // string fields only
	negate bool
}

// Filter is an accumulated set of predicates combined with logical AND.
// The zero value matches everything.
type Filter struct {
	preds map[Field][]predicate
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{preds: map[Field][]predicate{}}
}

// SetValue adds a string-field predicate. An unsatisfiable combination is
// a contradiction, not an override: silently picking one predicate would
// hide user error. Mixed polarity with different values (own by X, not by
// Y) is merely redundant and accumulates.
func (f *Filter) SetValue(field Field, value string, negate bool) error {
	if value == "" {
		return &InvalidFilterError{Field: field, Reason: "empty value"}
	}
	return f.set(field, predicate{value: value, negate: negate})
}

// SetFlag adds a boolean-field predicate; negate expects the flag unset.
func (f *Filter) SetFlag(field Field, negate bool) error {
	return f.set(field, predicate{negate: negate})
}

func (f *Filter) set(field Field, p predicate) error {
	for _, prev := range f.preds[field] {
		if prev == p {
			return nil // repeating the same predicate is harmless
		}
		if prev.negate != p.negate {
			if prev.value == p.value {
				return &InvalidFilterError{Field: field, Reason: "requires and excludes the same thing"}
			}
			continue
		}
		// Same polarity, different value. Excluding several values is
		// satisfiable; so is requiring several reviewers, since a change
		// carries a list of them. A scalar field cannot equal two values.
		if p.negate || field == FieldReviewer {
			continue
		}
		return &InvalidFilterError{
			Field:  field,
			Reason: fmt.Sprintf("cannot equal both %q and %q", prev.value, p.value),
		}
	}
	f.preds[field] = append(f.preds[field], p)
	return nil
}

// Empty reports whether no predicates are set.
func (f *Filter) Empty() bool {
	return len(f.preds) == 0
}

// Apply returns the records matching every predicate. Predicate order is
// irrelevant: AND composition is associative and commutative.
func (f *Filter) Apply(records []PatchRecord) []PatchRecord {
	if f.Empty() {
		return records
	}
	var out []PatchRecord
	for _, rec := range records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (f *Filter) matches(rec PatchRecord) bool {
	for field, preds := range f.preds {
		for _, p := range preds {
			if fieldMatches(field, p, rec) == p.negate {
				return false
			}
		}
	}
	return true
}

// fieldMatches evaluates one predicate without negation applied.
func fieldMatches(field Field, p predicate, rec PatchRecord) bool {
	switch field {
	case FieldOwner:
		return rec.Owner == p.value
	case FieldBranch:
		return rec.Branch == p.value
	case FieldTopic:
		return rec.Topic == p.value
	case FieldNumber:
		return strconv.Itoa(rec.Number) == p.value
	case FieldReviewer:
		for _, r := range rec.Reviewers {
			if r == p.value {
				return true
			}
		}
		return false
	case FieldMine:
		return rec.Mine
	case FieldDrafts:
		return rec.Draft
	case FieldStarred:
		return rec.Starred
	case FieldWatched:
		return rec.Watched
	case FieldReviewed:
		return rec.Reviewed
	case FieldAssigned:
		return rec.Assigned
	default:
		return false
	}
}
