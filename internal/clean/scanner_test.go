package clean

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/osesov/gerrit-cli/internal/git"
)

const (
	idMerged1 = "I1111111111111111111111111111111111111111"
	idMerged2 = "I2222222222222222222222222222222222222222"
	idOpen    = "I3333333333333333333333333333333333333333"
)

// fakeRepo is an in-memory clean.Repo.
type fakeRepo struct {
	current  string
	branches []*git.Branch
	pending  map[string][]*git.Commit
	merged   map[string]bool
	tips     map[string]time.Time
	deleted  []string
	failOn   map[string]error
}

func (f *fakeRepo) CurrentBranch(ctx context.Context) (*git.Branch, error) {
	for _, b := range f.branches {
		if b.Name == f.current {
			return b, nil
		}
	}
	return &git.Branch{Name: f.current}, nil
}

func (f *fakeRepo) LocalBranches(ctx context.Context) ([]*git.Branch, error) {
	return f.branches, nil
}

func (f *fakeRepo) Pending(ctx context.Context, b *git.Branch) ([]*git.Commit, error) {
	return f.pending[b.Name], nil
}

func (f *fakeRepo) ChangeIDMerged(ctx context.Context, upstream, changeID string) (bool, error) {
	return f.merged[changeID], nil
}

func (f *fakeRepo) LastCommitTime(ctx context.Context, name string) (time.Time, error) {
	if t, ok := f.tips[name]; ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unknown branch %s", name)
}

func (f *fakeRepo) DeleteBranch(ctx context.Context, name string, force bool) error {
	if err := f.failOn[name]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func commit(changeID string) *git.Commit {
	return &git.Commit{Hash: "abc", Subject: "subject", ChangeID: changeID}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		current: "main",
		branches: []*git.Branch{
			{Name: "main", Upstream: "origin/main"},
			{Name: "feature-x", Upstream: "origin/main"},
			{Name: "feature-y", Upstream: "origin/main"},
			{Name: "scratch"},
		},
		pending: map[string][]*git.Commit{
			"feature-x": {commit(idMerged1), commit(idMerged2)},
			"feature-y": {commit(idMerged1), commit(idOpen)},
		},
		merged: map[string]bool{idMerged1: true, idMerged2: true},
		tips:   map[string]time.Time{},
	}
}

func keptReasons(result *Result) map[string]KeepReason {
	m := map[string]KeepReason{}
	for _, k := range result.Kept {
		m[k.Branch.Name] = k.Reason
	}
	return m
}

func TestScanFullyMergedProposed(t *testing.T) {
	repo := newFakeRepo()
	result, err := NewScanner(repo).Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(result.ToRemove) != 1 || result.ToRemove[0].Name != "feature-x" {
		t.Errorf("ToRemove = %v, want [feature-x]", result.ToRemove)
	}

	reasons := keptReasons(result)
	if reasons["feature-y"] != KeepUnmerged {
		t.Errorf("feature-y kept with %v, want KeepUnmerged", reasons["feature-y"])
	}
	if _, ok := reasons["scratch"]; ok {
		t.Error("scratch has no upstream and is not a topic branch; it must be ignored")
	}
	if _, ok := reasons["main"]; ok {
		t.Error("main tracks its own remote branch and must be ignored")
	}
}

func TestScanPartialMergeKept(t *testing.T) {
	repo := newFakeRepo()
	result, err := NewScanner(repo).Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	for _, b := range result.ToRemove {
		if b.Name == "feature-y" {
			t.Fatal("feature-y has an open change and must never be proposed for removal")
		}
	}
	for _, k := range result.Kept {
		if k.Branch.Name == "feature-y" {
			if len(k.OpenIDs) != 1 || k.OpenIDs[0] != idOpen {
				t.Errorf("OpenIDs = %v, want [%s]", k.OpenIDs, idOpen)
			}
		}
	}
}

func TestScanCurrentBranchKept(t *testing.T) {
	repo := newFakeRepo()
	repo.current = "feature-x"
	result, err := NewScanner(repo).Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.ToRemove) != 0 {
		t.Errorf("ToRemove = %v, want none while feature-x is checked out", result.ToRemove)
	}
	if keptReasons(result)["feature-x"] != KeepCurrent {
		t.Error("feature-x must be kept as the current branch")
	}
}

func TestScanUnpushedKept(t *testing.T) {
	repo := newFakeRepo()
	repo.pending["feature-x"] = []*git.Commit{commit(idMerged1), commit("")}
	result, err := NewScanner(repo).Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.ToRemove) != 0 {
		t.Errorf("ToRemove = %v, want none", result.ToRemove)
	}
	if keptReasons(result)["feature-x"] != KeepUnpushed {
		t.Error("a branch with a commit lacking a Change-Id must be kept as unpushed")
	}
}

func TestScanAgeThreshold(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.tips["feature-x"] = now.Add(-3 * 24 * time.Hour)

	// Younger than a week: kept even though fully merged.
	result, err := NewScanner(repo).Scan(context.Background(), Options{MinAge: 7 * 24 * time.Hour, Now: now})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.ToRemove) != 0 {
		t.Errorf("ToRemove = %v, want none under the age threshold", result.ToRemove)
	}
	if keptReasons(result)["feature-x"] != KeepTooYoung {
		t.Error("feature-x must be kept as too young")
	}

	// Older than the threshold: proposed.
	result, err = NewScanner(repo).Scan(context.Background(), Options{MinAge: 2 * 24 * time.Hour, Now: now})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.ToRemove) != 1 || result.ToRemove[0].Name != "feature-x" {
		t.Errorf("ToRemove = %v, want [feature-x]", result.ToRemove)
	}
}

func TestRemovePartialFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = map[string]error{"feature-y": fmt.Errorf("ref locked")}
	scanner := NewScanner(repo)

	removed, err := scanner.Remove(context.Background(), []*git.Branch{
		{Name: "feature-x"},
		{Name: "feature-y"},
	})
	if len(removed) != 1 || removed[0] != "feature-x" {
		t.Errorf("removed = %v, want [feature-x]", removed)
	}
	var rerr *RemoveError
	if !errors.As(err, &rerr) {
		t.Fatalf("Remove = %v, want RemoveError", err)
	}
	if _, ok := rerr.Failed["feature-y"]; !ok {
		t.Errorf("Failed = %v, want feature-y present", rerr.Failed)
	}
}
