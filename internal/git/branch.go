package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Branch is a local branch and the upstream ref it tracks. Upstream is empty
// for branches with no upstream configured.
type Branch struct {
	Name     string
	Upstream string
}

// Commit is one commit unique to a topic branch relative to its upstream.
type Commit struct {
	Hash       string
	ShortHash  string
	Parent     string
	Subject    string
	Message    string
	ChangeID   string
	AuthorTime time.Time
}

// HasUpstream reports whether the branch tracks an upstream ref.
func (b *Branch) HasUpstream() bool {
	return b.Upstream != ""
}

// UpstreamName returns the upstream branch name without the remote prefix,
// e.g. "main" for "origin/main".
func (b *Branch) UpstreamName() string {
	if i := strings.IndexByte(b.Upstream, '/'); i >= 0 {
		return b.Upstream[i+1:]
	}
	return b.Upstream
}

// CurrentBranch returns the currently checked out branch. Detached HEAD
// reports an error: every engine operation needs a real branch name.
func (r *Runner) CurrentBranch(ctx context.Context) (*Branch, error) {
	name, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get current branch: %w", err)
	}
	if name == "HEAD" {
		return nil, fmt.Errorf("not on a branch (detached HEAD)")
	}
	upstream, err := r.upstream(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Branch{Name: name, Upstream: upstream}, nil
}

// LocalBranches lists all local branches with their upstreams.
func (r *Runner) LocalBranches(ctx context.Context) ([]*Branch, error) {
	lines, err := r.lines(ctx, "for-each-ref", "--format=%(refname:short)\x00%(upstream:short)", "refs/heads/")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	var branches []*Branch
	for _, line := range lines {
		name, upstream, _ := strings.Cut(line, "\x00")
		branches = append(branches, &Branch{Name: name, Upstream: upstream})
	}
	return branches, nil
}

// upstream returns the upstream tracking ref of a branch, or "" when none
// is configured.
func (r *Runner) upstream(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", name+"@{u}")
	if err != nil {
		cmdErr, ok := err.(*CommandError)
		if ok && (strings.Contains(cmdErr.Output, "no upstream") || strings.Contains(cmdErr.Output, "No upstream")) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve upstream of %s: %w", name, err)
	}
	return out, nil
}

// logFieldCount is the number of %x00-separated fields in pendingLogFormat.
const logFieldCount = 6

const pendingLogFormat = "--format=format:%H%x00%h%x00%P%x00%s%x00%at%x00%B%x00"

// Pending returns the commits unique to branch relative to its upstream,
// oldest first. This is the commit set that maps to remote changes.
func (r *Runner) Pending(ctx context.Context, b *Branch) ([]*Commit, error) {
	if !b.HasUpstream() {
		return nil, fmt.Errorf("branch %s has no upstream", b.Name)
	}
	out, err := r.run(ctx, "log", pendingLogFormat, b.Upstream+".."+b.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending commits of %s: %w", b.Name, err)
	}
	commits, err := parsePendingLog(out)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", b.Name, err)
	}
	return commits, nil
}

// parsePendingLog parses `git log` output in pendingLogFormat. git log emits
// newest first; the result is reversed to commit order.
func parsePendingLog(out string) ([]*Commit, error) {
	fields := strings.Split(out, "\x00")
	if len(fields) < logFieldCount {
		return nil, nil
	}
	var commits []*Commit
	for i := 0; i+logFieldCount <= len(fields); i += logFieldCount {
		ts, err := strconv.ParseInt(strings.TrimSpace(fields[i+4]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed commit timestamp %q", fields[i+4])
		}
		msg := fields[i+5]
		commits = append(commits, &Commit{
			Hash:       strings.TrimSpace(fields[i]),
			ShortHash:  strings.TrimSpace(fields[i+1]),
			Parent:     firstField(fields[i+2]),
			Subject:    strings.TrimSpace(fields[i+3]),
			AuthorTime: time.Unix(ts, 0),
			Message:    msg,
			ChangeID:   ChangeIDFromMessage(msg),
		})
	}
	// Reverse to oldest-first.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// ChangeIDFromMessage extracts the Change-Id trailer from a commit message,
// or "" when the message carries none.
func ChangeIDFromMessage(msg string) string {
	const prefix = "Change-Id: "
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

// ChangeIDMerged reports whether a commit carrying the Change-Id trailer
// exists in the upstream history. Gerrit rewrites commits on submit but
// preserves the trailer, so this is the merge test for a local commit.
func (r *Runner) ChangeIDMerged(ctx context.Context, upstream, changeID string) (bool, error) {
	if changeID == "" {
		return false, nil
	}
	out, err := r.run(ctx, "log", "-1", "--format=format:%H", "--grep", "Change-Id: "+changeID, upstream)
	if err != nil {
		return false, fmt.Errorf("failed to search %s for %s: %w", upstream, changeID, err)
	}
	return out != "", nil
}

// LastCommitTime returns the author time of the tip commit of a branch.
func (r *Runner) LastCommitTime(ctx context.Context, name string) (time.Time, error) {
	out, err := r.run(ctx, "log", "-1", "--format=format:%at", name)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read tip of %s: %w", name, err)
	}
	ts, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q for %s", out, name)
	}
	return time.Unix(ts, 0), nil
}

// CreateBranch creates and checks out a branch at start (HEAD when empty)
// and sets its upstream.
func (r *Runner) CreateBranch(ctx context.Context, name, start, upstream string) error {
	args := []string{"checkout", "-q", "-b", name}
	if start != "" {
		args = append(args, start)
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	if upstream != "" {
		if _, err := r.run(ctx, "branch", "-q", "--set-upstream-to", upstream); err != nil {
			return fmt.Errorf("failed to set upstream of %s: %w", name, err)
		}
	}
	return nil
}

// DeleteBranch removes a local branch. Force is required for branches whose
// commits look unmerged to git; callers verify merge state themselves.
func (r *Runner) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := r.run(ctx, "branch", "-q", flag, name); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to an existing local branch.
func (r *Runner) Checkout(ctx context.Context, name string) error {
	if _, err := r.run(ctx, "checkout", "-q", name); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	return nil
}

// FetchRef fetches a remote ref into FETCH_HEAD.
func (r *Runner) FetchRef(ctx context.Context, ref string) error {
	if _, err := r.run(ctx, "fetch", "-q", "origin", ref); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	return nil
}

// CheckoutFetchHead checks out the last fetched ref, optionally creating a
// branch at it.
func (r *Runner) CheckoutFetchHead(ctx context.Context, branch string) error {
	if branch == "" {
		return r.Checkout(ctx, "FETCH_HEAD")
	}
	if _, err := r.run(ctx, "checkout", "-q", "-B", branch, "FETCH_HEAD"); err != nil {
		return fmt.Errorf("failed to checkout %s at FETCH_HEAD: %w", branch, err)
	}
	return nil
}

// ResetBranch hard-resets a branch to a ref. The branch must be checked out.
func (r *Runner) ResetBranch(ctx context.Context, ref string) error {
	if _, err := r.run(ctx, "reset", "--hard", "-q", ref); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// Push pushes a refspec to origin with optional push options.
func (r *Runner) Push(ctx context.Context, refspec string, pushOptions []string) error {
	args := []string{"push", "-q"}
	for _, o := range pushOptions {
		args = append(args, "-o", o)
	}
	args = append(args, "origin", refspec)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

// HasUncommittedChanges reports staged or unstaged modifications.
func (r *Runner) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check status: %w", err)
	}
	return out != "", nil
}
