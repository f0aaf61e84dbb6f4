// Package squads manages named, persisted groups of reviewer identities
// usable as assignment shorthand.
package squads

import "fmt"

// Marker prefixes a reviewer token that names a squad, as in "@backend".
const Marker = "@"

// Squad is a named ordered set of reviewer identities, scoped to one named
// server configuration.
type Squad struct {
	Server  string
	Name    string
	Members []string
}

// NotFoundError reports an operation on a squad that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("squad %q does not exist", e.Name)
}

// NameConflictError reports a rename onto a name that is already taken.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("squad %q already exists", e.Name)
}
