package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/change"
	"github.com/osesov/gerrit-cli/internal/gerrit"
)

// resolveChangeArg parses a change reference argument and resolves it
// against the server, returning the numeric id the REST API wants. A
// number names exactly one change and is fetched directly; the search
// index only enters for Change-Ids and topics.
func resolveChangeArg(ctx context.Context, app *appContext, arg string) (*gerrit.ChangeInfo, string, error) {
	id, err := change.Parse(arg)
	if err != nil {
		return nil, "", err
	}
	if id.Kind == change.KindNumber {
		info, err := app.client.GetChange(ctx, strconv.Itoa(id.Number))
		if err != nil {
			return nil, "", err
		}
		return info, strconv.Itoa(info.Number), nil
	}
	info, err := app.mapper.ResolveChange(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return info, strconv.Itoa(info.Number), nil
}

func newReviewCmd(opts *globalOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "review <change> [score]",
		Short: "Post a Code-Review score and optional message",
		Long: `Post a Code-Review vote on a change. The score is -2 to +2.
Flags come before the positional arguments, so a negative score is not
mistaken for a flag: review -m "needs work" 1234 -1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := 0
			if len(args) == 2 {
				n, err := strconv.Atoi(strings.TrimPrefix(args[1], "+"))
				if err != nil || n < -2 || n > 2 {
					return fmt.Errorf("invalid Code-Review score %q (expected -2..+2)", args[1])
				}
				score = n
			}
			if len(args) == 1 && message == "" {
				return fmt.Errorf("nothing to post: give a score or a message")
			}

			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			info, id, err := resolveChangeArg(ctx, app, args[0])
			if err != nil {
				return err
			}

			input := &gerrit.ReviewInput{Message: message}
			if len(args) == 2 {
				input.Labels = map[string]int{"Code-Review": score}
			}
			if err := app.client.SetReview(ctx, id, "", input); err != nil {
				return err
			}
			printSuccess("Reviewed change %s: %s", id, info.Subject)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Review message")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <change>",
		Short: "Submit a change for merging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			info, id, err := resolveChangeArg(ctx, app, args[0])
			if err != nil {
				return err
			}
			if _, err := app.client.SubmitChange(ctx, id); err != nil {
				return err
			}
			printSuccess("Submitted change %s: %s", id, info.Subject)
			return nil
		},
	}
	return cmd
}

func newAbandonCmd(opts *globalOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "abandon <change>",
		Short: "Abandon a change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			info, id, err := resolveChangeArg(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.client.AbandonChange(ctx, id, message); err != nil {
				return err
			}
			printSuccess("Abandoned change %s: %s", id, info.Subject)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Abandon message")

	return cmd
}

func newCommentCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <change> <message>",
		Short: "Post a comment on a change",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			_, id, err := resolveChangeArg(ctx, app, args[0])
			if err != nil {
				return err
			}
			msg := strings.Join(args[1:], " ")
			if err := app.client.SetReview(ctx, id, "", &gerrit.ReviewInput{Message: msg}); err != nil {
				return err
			}
			printSuccess("Commented on change %s", id)
			return nil
		},
	}
	return cmd
}

func newAssignCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <change> <reviewer>...",
		Short: "Add reviewers to a change, @squad expands",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			_, id, err := resolveChangeArg(ctx, app, args[0])
			if err != nil {
				return err
			}
			reviewers, err := app.expandReviewers(args[1:])
			if err != nil {
				return err
			}

			// Each reviewer is an independent mutation; one failure does
			// not undo the additions that already landed.
			var failed []string
			for _, r := range reviewers {
				if err := app.client.AddReviewer(ctx, id, r); err != nil {
					printWarn("Failed to add %s: %v", r, err)
					failed = append(failed, r)
					continue
				}
				printSuccess("Added reviewer %s to change %s", r, id)
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to add %d of %d reviewer(s)", len(failed), len(reviewers))
			}
			return nil
		},
	}
	return cmd
}
