// Package git runs git in a repository working directory and exposes the
// small set of repository operations the sync engine depends on.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/osesov/gerrit-cli/internal/logging"
)

// Runner executes git commands in a fixed working directory.
type Runner struct {
	dir string
}

// NewRunner creates a runner rooted at dir. An empty dir uses the process
// working directory.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// CommandError describes a failed git invocation: the command that ran, its
// captured output, and the exit code.
type CommandError struct {
	Args     []string
	Output   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed (exit %d)", strings.Join(e.Args, " "), e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// run executes git with the given arguments and returns trimmed combined
// output. A non-zero exit produces a *CommandError.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		logging.Debug("git command failed", "args", args, "exit", exitCode)
		return "", &CommandError{
			Args:     args,
			Output:   string(output),
			ExitCode: exitCode,
			Err:      err,
		}
	}
	return strings.TrimSpace(string(output)), nil
}

// lines runs git and splits its output into non-blank trimmed lines.
func (r *Runner) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// ConfigGet returns the value of a git config key, or "" if unset.
func (r *Runner) ConfigGet(ctx context.Context, key string) (string, error) {
	out, err := r.run(ctx, "config", "--get", key)
	if err != nil {
		var cmdErr *CommandError
		// Exit code 1 means the key is not set.
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// ConfigSet sets a git config key in the local repository.
func (r *Runner) ConfigSet(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", "--local", key, value)
	return err
}

// ConfigUnset removes a git config key. Unsetting an absent key is a no-op.
func (r *Runner) ConfigUnset(ctx context.Context, key string) error {
	_, err := r.run(ctx, "config", "--local", "--unset", key)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 5 {
			return nil
		}
		return err
	}
	return nil
}

// HookPath returns the absolute path of a named hook script.
func (r *Runner) HookPath(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--git-path", "hooks/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to locate %s hook: %w", name, err)
	}
	return out, nil
}
