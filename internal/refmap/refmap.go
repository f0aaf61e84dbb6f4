// Package refmap resolves local topic branches to remote changes and back.
// It is strictly read-only: both sides of the mapping can be mutated
// externally at any time, so results are snapshots, never cached across
// invocations.
package refmap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/osesov/gerrit-cli/internal/change"
	"github.com/osesov/gerrit-cli/internal/gerrit"
	"github.com/osesov/gerrit-cli/internal/git"
	"github.com/osesov/gerrit-cli/internal/logging"
)

// Repo is the subset of git operations the mapper reads.
type Repo interface {
	LocalBranches(ctx context.Context) ([]*git.Branch, error)
	Pending(ctx context.Context, b *git.Branch) ([]*git.Commit, error)
}

// ChangeService is the subset of the Gerrit API the mapper queries.
type ChangeService interface {
	QueryChanges(ctx context.Context, query string, options ...string) ([]*gerrit.ChangeInfo, error)
}

// ChangeRef ties one local commit to its remote change. Remote is nil for a
// commit that has not been pushed yet (no Change-Id, or no matching change
// on the server).
type ChangeRef struct {
	Commit *git.Commit
	Remote *gerrit.ChangeInfo
}

// Pushed reports whether the commit has a matching change on the server.
func (r *ChangeRef) Pushed() bool {
	return r.Remote != nil
}

// AmbiguousError reports a Change-Id that matches more than one open change
// with differing target branches. Acting on either would corrupt the next
// push, so callers must not pick one silently.
type AmbiguousError struct {
	ChangeID string
	Branches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("change %s is ambiguous: open on branches %s",
		e.ChangeID, strings.Join(e.Branches, ", "))
}

// NotFoundError reports an identifier that no local branch tracks.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no local branch tracks %s", e.Ref)
}

// Mapper correlates local branches with remote changes.
type Mapper struct {
	repo   Repo
	server ChangeService
}

// New creates a mapper over a repository and a change service.
func New(repo Repo, server ChangeService) *Mapper {
	return &Mapper{repo: repo, server: server}
}

// queryOptions are requested on every change lookup so ChangeRefs carry
// patch set numbers and draft state.
var queryOptions = []string{"CURRENT_REVISION", "DETAILED_ACCOUNTS"}

// maxConcurrentQueries bounds the read-only fan-out to the server.
const maxConcurrentQueries = 4

// BranchChanges maps every commit unique to the branch to its remote
// change, in commit order. Commits without a pushed change produce refs
// with a nil Remote.
func (m *Mapper) BranchChanges(ctx context.Context, b *git.Branch) ([]*ChangeRef, error) {
	commits, err := m.repo.Pending(ctx, b)
	if err != nil {
		return nil, err
	}
	refs := make([]*ChangeRef, len(commits))
	for i, c := range commits {
		refs[i] = &ChangeRef{Commit: c}
	}

	// Lookups are independent reads and commute; issue them concurrently.
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sem  = make(chan struct{}, maxConcurrentQueries)
		errs []error
	)
	for _, ref := range refs {
		if ref.Commit.ChangeID == "" {
			continue
		}
		wg.Add(1)
		go func(ref *ChangeRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			remote, err := m.lookupChangeID(ctx, ref.Commit.ChangeID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ref.Remote = remote
		}(ref)
	}
	wg.Wait()
	if len(errs) > 0 {
		// Never act on a partial mapping: surface the first failure.
		return nil, errs[0]
	}
	return refs, nil
}

// lookupChangeID finds the open change for a Change-Id. Multiple matches on
// the same target branch collapse to the newest; differing target branches
// are an ambiguity the caller must resolve.
func (m *Mapper) lookupChangeID(ctx context.Context, changeID string) (*gerrit.ChangeInfo, error) {
	matches, err := m.server.QueryChanges(ctx, "change:"+changeID+" status:open", queryOptions...)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}
	branches := map[string]bool{}
	for _, c := range matches {
		branches[c.Branch] = true
	}
	if len(branches) > 1 {
		names := make([]string, 0, len(branches))
		for b := range branches {
			names = append(names, b)
		}
		sort.Strings(names)
		return nil, &AmbiguousError{ChangeID: changeID, Branches: names}
	}
	logging.Debug("multiple open changes for id on one branch, using first", "change_id", changeID)
	return matches[0], nil
}

// BranchForIdentity finds the local branch that tracks the given change
// reference. A topic reference that names an existing local branch resolves
// to that branch without a server round trip.
func (m *Mapper) BranchForIdentity(ctx context.Context, id change.Identity) (*git.Branch, error) {
	branches, err := m.repo.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}

	if id.Kind == change.KindTopic {
		for _, b := range branches {
			if b.Name == id.Topic {
				return b, nil
			}
		}
	}

	wanted, err := m.changeIDsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(wanted) > 0 {
		for _, b := range branches {
			if !b.HasUpstream() {
				continue
			}
			commits, err := m.repo.Pending(ctx, b)
			if err != nil {
				return nil, err
			}
			for _, c := range commits {
				if wanted[c.ChangeID] {
					return b, nil
				}
			}
		}
	}
	return nil, &NotFoundError{Ref: id.String()}
}

// changeIDsFor resolves an identity to the set of Change-Ids it denotes.
func (m *Mapper) changeIDsFor(ctx context.Context, id change.Identity) (map[string]bool, error) {
	if id.Kind == change.KindChangeID {
		return map[string]bool{id.ChangeID: true}, nil
	}
	matches, err := m.server.QueryChanges(ctx, id.QueryTerm())
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(matches))
	for _, c := range matches {
		if c.ChangeID != "" {
			ids[c.ChangeID] = true
		}
	}
	return ids, nil
}

// ResolveChange resolves an identity to a single remote change, requesting
// current-revision data so callers can fetch patch sets.
func (m *Mapper) ResolveChange(ctx context.Context, id change.Identity) (*gerrit.ChangeInfo, error) {
	matches, err := m.server.QueryChanges(ctx, id.QueryTerm(), queryOptions...)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Ref: id.String()}
	case 1:
		return matches[0], nil
	}
	branches := map[string]bool{}
	for _, c := range matches {
		branches[c.Branch] = true
	}
	if len(branches) > 1 {
		names := make([]string, 0, len(branches))
		for b := range branches {
			names = append(names, b)
		}
		sort.Strings(names)
		return nil, &AmbiguousError{ChangeID: id.String(), Branches: names}
	}
	return matches[0], nil
}
