// Package clean decides which local topic branches are safe to delete
// because every change they carry has been merged upstream.
package clean

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osesov/gerrit-cli/internal/git"
	"github.com/osesov/gerrit-cli/internal/logging"
)

// Repo is the subset of git operations the scanner uses.
type Repo interface {
	CurrentBranch(ctx context.Context) (*git.Branch, error)
	LocalBranches(ctx context.Context) ([]*git.Branch, error)
	Pending(ctx context.Context, b *git.Branch) ([]*git.Commit, error)
	ChangeIDMerged(ctx context.Context, upstream, changeID string) (bool, error)
	LastCommitTime(ctx context.Context, name string) (time.Time, error)
	DeleteBranch(ctx context.Context, name string, force bool) error
}

// KeepReason explains why a branch was not proposed for removal.
type KeepReason int

const (
	// KeepCurrent: the checked-out branch is never deleted.
	KeepCurrent KeepReason = iota
	// KeepUnpushed: at least one unique commit has no Change-Id trailer.
	KeepUnpushed
	// KeepUnmerged: at least one Change-Id is not found upstream. A topic
	// with one merged and one open change stays whole.
	KeepUnmerged
	// KeepTooYoung: the branch is fully merged but newer than the age
	// threshold.
	KeepTooYoung
)

func (r KeepReason) String() string {
	switch r {
	case KeepCurrent:
		return "currently checked out"
	case KeepUnpushed:
		return "has commits never pushed for review"
	case KeepUnmerged:
		return "has unmerged changes"
	case KeepTooYoung:
		return "younger than age threshold"
	default:
		return "kept"
	}
}

// Kept is a branch excluded from removal, with the reason and the
// Change-Ids still outstanding (for KeepUnmerged).
type Kept struct {
	Branch  *git.Branch
	Reason  KeepReason
	OpenIDs []string
}

// Result is the outcome of a scan. Scanning never deletes anything; Remove
// acts on ToRemove separately so dry runs share the exact same logic.
type Result struct {
	ToRemove []*git.Branch
	Kept     []*Kept
}

// Options control a scan.
type Options struct {
	// MinAge excludes branches whose tip commit is newer than this
	// threshold. Zero disables the filter.
	MinAge time.Duration
	// Now is the reference time for the age filter; zero means time.Now.
	Now time.Time
}

// Scanner walks local topic branches and correlates their Change-Ids with
// upstream history.
type Scanner struct {
	repo Repo
}

// NewScanner creates a scanner over a repository.
func NewScanner(repo Repo) *Scanner {
	return &Scanner{repo: repo}
}

// Scan determines which topic branches are fully merged. A branch is
// proposed for removal only when every one of its unique commits carries a
// Change-Id found in the upstream history; partially merged topics are
// always kept.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	current, err := s.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	branches, err := s.repo.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, b := range branches {
		if !isTopicBranch(b) {
			continue
		}
		if b.Name == current.Name {
			result.Kept = append(result.Kept, &Kept{Branch: b, Reason: KeepCurrent})
			continue
		}

		kept, err := s.examine(ctx, b)
		if err != nil {
			return nil, err
		}
		if kept != nil {
			result.Kept = append(result.Kept, kept)
			continue
		}

		if opts.MinAge > 0 {
			tip, err := s.repo.LastCommitTime(ctx, b.Name)
			if err != nil {
				return nil, err
			}
			if now.Sub(tip) < opts.MinAge {
				result.Kept = append(result.Kept, &Kept{Branch: b, Reason: KeepTooYoung})
				continue
			}
		}

		result.ToRemove = append(result.ToRemove, b)
	}
	return result, nil
}

// examine checks one branch's commits against upstream history. It returns
// a non-nil Kept when the branch must stay, nil when it is fully merged.
func (s *Scanner) examine(ctx context.Context, b *git.Branch) (*Kept, error) {
	commits, err := s.repo.Pending(ctx, b)
	if err != nil {
		return nil, err
	}
	var open []string
	for _, c := range commits {
		if c.ChangeID == "" {
			return &Kept{Branch: b, Reason: KeepUnpushed}, nil
		}
		merged, err := s.repo.ChangeIDMerged(ctx, b.Upstream, c.ChangeID)
		if err != nil {
			return nil, err
		}
		if !merged {
			open = append(open, c.ChangeID)
		}
	}
	if len(open) > 0 {
		return &Kept{Branch: b, Reason: KeepUnmerged, OpenIDs: open}, nil
	}
	return nil, nil
}

// isTopicBranch reports whether b is a local work branch rather than a
// tracking branch of its own remote counterpart.
func isTopicBranch(b *git.Branch) bool {
	if !b.HasUpstream() {
		return false
	}
	return !strings.HasSuffix(b.Upstream, "/"+b.Name)
}

// RemoveError collects per-branch deletion failures. Deletions are
// independent, so one failure does not stop the rest; the caller reports
// partial success.
type RemoveError struct {
	Failed map[string]error
}

func (e *RemoveError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	return fmt.Sprintf("failed to delete %d branch(es): %s", len(e.Failed), strings.Join(names, ", "))
}

// Remove deletes the given branches. Merge verification already happened
// during Scan, so deletion is forced; git's own merged check would reject
// branches whose commits were rewritten on submit.
func (s *Scanner) Remove(ctx context.Context, branches []*git.Branch) ([]string, error) {
	var removed []string
	failed := map[string]error{}
	for _, b := range branches {
		if err := s.repo.DeleteBranch(ctx, b.Name, true); err != nil {
			logging.Warn("branch deletion failed", "branch", b.Name, "error", err)
			failed[b.Name] = err
			continue
		}
		removed = append(removed, b.Name)
	}
	if len(failed) > 0 {
		return removed, &RemoveError{Failed: failed}
	}
	return removed, nil
}
