package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/change"
	"github.com/osesov/gerrit-cli/internal/gerrit"
	"github.com/osesov/gerrit-cli/internal/logging"
	"github.com/osesov/gerrit-cli/internal/refmap"
)

func newCheckoutCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checkout <change>",
		Aliases: []string{"co"},
		Short:   "Check out a change by number, Change-Id, or topic",
		Long: `Check out the branch tracking the given change. When no local branch
tracks it, the change's patch set is fetched from the server into a
fresh local branch. A patch set may be given as NNN/PP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := change.Parse(args[0])
			if err != nil {
				return err
			}
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			return runCheckout(cmd.Context(), app, id)
		},
	}
	return cmd
}

func runCheckout(ctx context.Context, app *appContext, id change.Identity) error {
	// A local branch already tracking the change wins over a fetch;
	// local work on it must not be discarded.
	branch, err := app.mapper.BranchForIdentity(ctx, id)
	if err == nil {
		if err := app.git.Checkout(ctx, branch.Name); err != nil {
			return err
		}
		printSuccess("Switched to branch %s", branch.Name)
		return nil
	}
	var notFound *refmap.NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}

	info, err := app.mapper.ResolveChange(ctx, id)
	if err != nil {
		return err
	}
	ps := id.PatchSet
	if ps == 0 {
		ps = info.CurrentPatchSet()
	}
	if ps == 0 {
		return fmt.Errorf("change %d has no patch sets", info.Number)
	}

	name := localBranchName(info)
	ref := change.PatchSetRef(info.Number, ps)
	logging.Debug("fetching patch set", "ref", ref, "branch", name)
	if err := app.git.FetchRef(ctx, ref); err != nil {
		return err
	}
	if err := app.git.CheckoutFetchHead(ctx, name); err != nil {
		return err
	}
	printSuccess("Checked out change %d patch set %d as %s", info.Number, ps, name)
	return nil
}

func newRecheckoutCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recheckout",
		Aliases: []string{"reco"},
		Short:   "Reset the current branch to its change's latest patch set",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			branch, err := app.git.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			dirty, err := app.git.HasUncommittedChanges(ctx)
			if err != nil {
				return err
			}
			if dirty {
				return fmt.Errorf("working tree has uncommitted changes, commit or stash them first")
			}

			refs, err := app.mapper.BranchChanges(ctx, branch)
			if err != nil {
				return err
			}
			var info *gerrit.ChangeInfo
			for _, r := range refs {
				if r.Pushed() {
					info = r.Remote
					break
				}
			}
			if info == nil {
				return fmt.Errorf("branch %s has no change on the server", branch.Name)
			}
			ps := info.CurrentPatchSet()
			if ps == 0 {
				return fmt.Errorf("change %d has no patch sets", info.Number)
			}

			ref := change.PatchSetRef(info.Number, ps)
			if err := app.git.FetchRef(ctx, ref); err != nil {
				return err
			}
			if err := app.git.ResetBranch(ctx, "FETCH_HEAD"); err != nil {
				return err
			}
			printSuccess("Reset %s to change %d patch set %d", branch.Name, info.Number, ps)
			return nil
		},
	}
	return cmd
}

// localBranchName picks the branch name for a fetched change: the topic
// when the change has one, otherwise a name derived from the number.
func localBranchName(info *gerrit.ChangeInfo) string {
	if info.Topic != "" {
		return info.Topic
	}
	return fmt.Sprintf("change-%d", info.Number)
}
