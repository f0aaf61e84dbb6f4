package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/git"
	"github.com/osesov/gerrit-cli/internal/logging"
	"github.com/osesov/gerrit-cli/internal/push"
)

// draftStateKey returns the git config key recording that a branch was
// last pushed as a draft. The planner uses it to guard against an
// accidental draft-to-public flip.
func draftStateKey(branch string) string {
	return fmt.Sprintf("branch.%s.gerrit-draft", branch)
}

type pushFlags struct {
	branch    string
	topic     string
	noTopic   bool
	force     bool
	hashtags  []string
	comment   string
	reviewers []string
	cc        []string
}

func (f *pushFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.branch, "branch", "b", "", "Target branch on the server (default: the upstream)")
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "Topic label (default: the branch name)")
	cmd.Flags().BoolVar(&f.noTopic, "no-topic", false, "Push without a topic label")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Skip the draft-to-public confirmation")
	cmd.Flags().StringSliceVar(&f.hashtags, "hashtag", nil, "Hashtag to attach (repeatable)")
	cmd.Flags().StringVarP(&f.comment, "comment", "m", "", "Comment to post with the push")
	cmd.Flags().StringSliceVarP(&f.reviewers, "reviewer", "r", nil, "Reviewer to add, @squad expands (repeatable)")
	cmd.Flags().StringSliceVar(&f.cc, "cc", nil, "CC to add (repeatable)")
}

func newPushCmd(opts *globalOptions) *cobra.Command {
	var flags pushFlags

	cmd := &cobra.Command{
		Use:     "up",
		Aliases: []string{"push"},
		Short:   "Push the current branch for review",
		Long: `Push pending commits of the current branch to the review server.
The target is the branch's upstream and the topic defaults to the
branch name, so related commits land under one topic label.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			return runPush(cmd.Context(), app, flags, false)
		},
	}

	flags.register(cmd)
	return cmd
}

func newDraftCmd(opts *globalOptions) *cobra.Command {
	var flags pushFlags

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Push the current branch as a draft review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			return runPush(cmd.Context(), app, flags, true)
		},
	}

	flags.register(cmd)
	return cmd
}

func newNinjaCmd(opts *globalOptions) *cobra.Command {
	var flags pushFlags

	cmd := &cobra.Command{
		Use:     "ninja",
		Aliases: []string{"pubmit"},
		Short:   "Push the current branch and submit immediately",
		Long: `Push pending commits for review and submit every resulting change
in one step. A push that succeeds is not rolled back when a later
submit fails; each change's outcome is reported individually.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := runPush(ctx, app, flags, false); err != nil {
				return err
			}
			return submitBranchChanges(ctx, app)
		},
	}

	flags.register(cmd)
	return cmd
}

func runPush(ctx context.Context, app *appContext, flags pushFlags, draft bool) error {
	branch, err := app.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	reviewers, err := app.expandReviewers(flags.reviewers)
	if err != nil {
		return err
	}

	prev, err := app.git.ConfigGet(ctx, draftStateKey(branch.Name))
	if err != nil {
		return err
	}
	prevDraft := prev == "true"

	plan, err := push.NewPlan(branch, prevDraft, push.Options{
		BranchOverride: flags.branch,
		Topic:          flags.topic,
		NoTopic:        flags.noTopic,
		Draft:          draft,
		Force:          flags.force,
		Hashtags:       flags.hashtags,
		Comment:        flags.comment,
		Reviewers:      reviewers,
		CC:             flags.cc,
	})
	if err != nil {
		return err
	}

	if plan.NeedsConfirm {
		ok := confirm(fmt.Sprintf("Branch %s was last pushed as a draft. Publish it?", branch.Name), false)
		if !ok {
			return fmt.Errorf("aborted: %s was previously pushed as a draft (use --force to publish)", branch.Name)
		}
	}

	logging.WithBranch(branch.Name).Debug("pushing for review", "refspec", plan.RefSpec(), "draft", plan.Draft)
	if err := app.git.Push(ctx, plan.RefSpec(), nil); err != nil {
		return err
	}

	if plan.Draft {
		if err := app.git.ConfigSet(ctx, draftStateKey(branch.Name), "true"); err != nil {
			return err
		}
	} else if prevDraft {
		// Pushing a new patch set to refs/for does not flip an existing
		// draft change; the changes themselves must be published too.
		if err := publishBranchDrafts(ctx, app, branch); err != nil {
			return err
		}
		if err := app.git.ConfigUnset(ctx, draftStateKey(branch.Name)); err != nil {
			return err
		}
	}

	kind := "review"
	if plan.Draft {
		kind = "draft"
	}
	if plan.Topic != "" {
		printSuccess("Pushed %s for %s to %s (topic %s)", branch.Name, kind, plan.Target, plan.Topic)
	} else {
		printSuccess("Pushed %s for %s to %s", branch.Name, kind, plan.Target)
	}
	return nil
}

// publishBranchDrafts publishes every change of the branch still marked
// as a draft on the server. The push already happened, so failures are
// reported per change and never rolled back.
func publishBranchDrafts(ctx context.Context, app *appContext, branch *git.Branch) error {
	refs, err := app.mapper.BranchChanges(ctx, branch)
	if err != nil {
		return err
	}
	var failed []string
	for _, ref := range refs {
		if !ref.Pushed() || !ref.Remote.Draft() {
			continue
		}
		id := fmt.Sprintf("%d", ref.Remote.Number)
		if err := app.client.PublishDraft(ctx, id); err != nil {
			printWarn("Publish failed for change %s: %v", id, err)
			failed = append(failed, id)
			continue
		}
		printSuccess("Published change %s: %s", id, ref.Remote.Subject)
	}
	if len(failed) > 0 {
		return fmt.Errorf("pushed, but %d change(s) are still drafts", len(failed))
	}
	return nil
}

// submitBranchChanges submits every change the current branch maps to.
// Failures are collected, not retried: the push already happened and
// each change stands on its own.
func submitBranchChanges(ctx context.Context, app *appContext) error {
	branch, err := app.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	refs, err := app.mapper.BranchChanges(ctx, branch)
	if err != nil {
		return err
	}

	var failed []string
	for _, ref := range refs {
		if !ref.Pushed() {
			continue
		}
		id := fmt.Sprintf("%d", ref.Remote.Number)
		if _, err := app.client.SubmitChange(ctx, id); err != nil {
			printWarn("Submit failed for change %s: %v", id, err)
			failed = append(failed, id)
			continue
		}
		printSuccess("Submitted change %s: %s", id, ref.Remote.Subject)
	}
	if len(failed) > 0 {
		return fmt.Errorf("submit failed for %d change(s): pushed but not submitted", len(failed))
	}
	return nil
}
