package squads

import (
	"strings"
)

// Registry applies the squad rules over a store, scoped to one named server
// configuration.
type Registry struct {
	store  *Store
	server string
}

// NewRegistry creates a registry for one server's squads.
func NewRegistry(store *Store, server string) *Registry {
	return &Registry{store: store, server: server}
}

// List returns all squads, ordered by name.
func (r *Registry) List() ([]*Squad, error) {
	return r.store.list(r.server)
}

// Get returns one squad, or NotFoundError.
func (r *Registry) Get(name string) (*Squad, error) {
	squad, err := r.store.get(r.server, name)
	if err != nil {
		return nil, err
	}
	if squad == nil {
		return nil, &NotFoundError{Name: name}
	}
	return squad, nil
}

// Set replaces a squad's members wholesale, creating the squad if needed.
func (r *Registry) Set(name string, members []string) error {
	return r.store.replace(r.server, name, dedupe(members))
}

// Add appends members to a squad, creating it if needed. Adding an
// already-present member is a no-op.
func (r *Registry) Add(name string, members []string) error {
	squad, err := r.store.get(r.server, name)
	if err != nil {
		return err
	}
	var current []string
	if squad != nil {
		current = squad.Members
	}
	return r.store.replace(r.server, name, dedupe(append(current, members...)))
}

// Remove drops members from a squad. Removing an absent member is a no-op;
// removing from an unknown squad is an error.
func (r *Registry) Remove(name string, members []string) error {
	squad, err := r.store.get(r.server, name)
	if err != nil {
		return err
	}
	if squad == nil {
		return &NotFoundError{Name: name}
	}
	drop := map[string]bool{}
	for _, m := range members {
		drop[m] = true
	}
	var kept []string
	for _, m := range squad.Members {
		if !drop[m] {
			kept = append(kept, m)
		}
	}
	return r.store.replace(r.server, name, kept)
}

// Delete removes a squad entirely.
func (r *Registry) Delete(name string) error {
	existed, err := r.store.delete(r.server, name)
	if err != nil {
		return err
	}
	if !existed {
		return &NotFoundError{Name: name}
	}
	return nil
}

// Rename changes a squad's name. It fails if the source is unknown or the
// destination is taken, leaving both squads unchanged.
func (r *Registry) Rename(oldName, newName string) error {
	src, err := r.store.get(r.server, oldName)
	if err != nil {
		return err
	}
	if src == nil {
		return &NotFoundError{Name: oldName}
	}
	dst, err := r.store.get(r.server, newName)
	if err != nil {
		return err
	}
	if dst != nil {
		return &NameConflictError{Name: newName}
	}
	return r.store.rename(r.server, oldName, newName)
}

// ExpandReviewers resolves squad markers in a reviewer list: "@name"
// expands to the squad's members in order, other tokens pass through.
// Duplicates after expansion collapse, keeping first position. Expansion
// happens once, at the point of use; it is never persisted as an alias.
func (r *Registry) ExpandReviewers(reviewers []string) ([]string, error) {
	var out []string
	for _, token := range reviewers {
		if !strings.HasPrefix(token, Marker) {
			out = append(out, token)
			continue
		}
		squad, err := r.Get(strings.TrimPrefix(token, Marker))
		if err != nil {
			return nil, err
		}
		out = append(out, squad.Members...)
	}
	return dedupe(out), nil
}

// dedupe removes duplicates preserving first occurrence order.
func dedupe(members []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range members {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
