package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/hook"
	"github.com/osesov/gerrit-cli/internal/push"
)

func newTopicCmd(opts *globalOptions) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "topic <name>",
		Short: "Create a topic branch for a new review",
		Long: `Create a local topic branch tracking the current branch's upstream
and switch to it. Commits on the branch are later pushed for review
with "up", grouped on the server under the branch name as topic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := push.ValidateTopic(name); err != nil {
				return err
			}

			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			current, err := app.git.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			upstream := current.Upstream
			if upstream == "" {
				// Starting from a tracking-less branch, fall back to the
				// branch itself so the new topic still has a base.
				upstream = current.Name
			}
			base := start
			if base == "" {
				base = upstream
			}

			if err := app.git.CreateBranch(ctx, name, base, upstream); err != nil {
				return err
			}

			if err := ensureHook(ctx, app); err != nil {
				printWarn("Warning: %v", err)
			}

			printSuccess("Created topic branch %s tracking %s", name, upstream)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start point for the new branch (default: the upstream)")

	return cmd
}

// ensureHook installs the commit-msg hook when the repository does not
// have ours yet. Pushing without it produces commits with no Change-Id.
func ensureHook(ctx context.Context, app *appContext) error {
	path, err := app.git.HookPath(ctx, "commit-msg")
	if err != nil {
		return err
	}
	if hook.Installed(path) {
		return nil
	}
	return hook.Install(path)
}
