package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/gerrit"
	"github.com/osesov/gerrit-cli/internal/logging"
	"github.com/osesov/gerrit-cli/internal/query"
)

// filterFlags accumulates the listing filter options. Each field has a
// positive and a --not- negation flag. Unsatisfiable combinations, such
// as a boolean flag with its negation, are rejected before any server
// query runs; mixed polarity on different values merely narrows.
type filterFlags struct {
	owner    string
	author   string
	notOwner string
	branch   string
	notBrch  string
	topic    string
	notTopic string
	reviewer string
	notRev   string

	mine, notMine         bool
	drafts, notDrafts     bool
	starred, notStarred   bool
	watched, notWatched   bool
	reviewed, notReviewed bool
	assigned, notAssigned bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.owner, "owner", "", "Only patches owned by this user")
	fl.StringVar(&f.author, "author", "", "Alias for --owner")
	fl.StringVar(&f.notOwner, "not-owner", "", "Exclude patches owned by this user")
	fl.StringVar(&f.branch, "branch", "", "Only patches targeting this branch")
	fl.StringVar(&f.notBrch, "not-branch", "", "Exclude patches targeting this branch")
	fl.StringVar(&f.topic, "topic", "", "Only patches with this topic")
	fl.StringVar(&f.notTopic, "not-topic", "", "Exclude patches with this topic")
	fl.StringVar(&f.reviewer, "reviewer", "", "Only patches with this reviewer")
	fl.StringVar(&f.notRev, "not-reviewer", "", "Exclude patches with this reviewer")

	fl.BoolVar(&f.mine, "mine", false, "Only my patches")
	fl.BoolVar(&f.notMine, "not-mine", false, "Exclude my patches")
	fl.BoolVar(&f.drafts, "drafts", false, "Only drafts")
	fl.BoolVar(&f.notDrafts, "not-drafts", false, "Exclude drafts")
	fl.BoolVar(&f.starred, "starred", false, "Only starred patches")
	fl.BoolVar(&f.notStarred, "not-starred", false, "Exclude starred patches")
	fl.BoolVar(&f.watched, "watched", false, "Only watched patches")
	fl.BoolVar(&f.notWatched, "not-watched", false, "Exclude watched patches")
	fl.BoolVar(&f.reviewed, "reviewed", false, "Only reviewed patches")
	fl.BoolVar(&f.notReviewed, "not-reviewed", false, "Exclude reviewed patches")
	fl.BoolVar(&f.assigned, "assigned", false, "Only patches assigned to me")
	fl.BoolVar(&f.notAssigned, "not-assigned", false, "Exclude patches assigned to me")
}

// build folds the flags into a Filter. The --author alias feeds the
// owner slot, so --owner and --author with different values contradict.
func (f *filterFlags) build() (*query.Filter, error) {
	filter := query.NewFilter()

	values := []struct {
		field  query.Field
		value  string
		negate bool
	}{
		{query.FieldOwner, f.owner, false},
		{query.FieldOwner, f.author, false},
		{query.FieldOwner, f.notOwner, true},
		{query.FieldBranch, f.branch, false},
		{query.FieldBranch, f.notBrch, true},
		{query.FieldTopic, f.topic, false},
		{query.FieldTopic, f.notTopic, true},
		{query.FieldReviewer, f.reviewer, false},
		{query.FieldReviewer, f.notRev, true},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		if err := filter.SetValue(v.field, v.value, v.negate); err != nil {
			return nil, err
		}
	}

	flags := []struct {
		field  query.Field
		set    bool
		negate bool
	}{
		{query.FieldMine, f.mine, false},
		{query.FieldMine, f.notMine, true},
		{query.FieldDrafts, f.drafts, false},
		{query.FieldDrafts, f.notDrafts, true},
		{query.FieldStarred, f.starred, false},
		{query.FieldStarred, f.notStarred, true},
		{query.FieldWatched, f.watched, false},
		{query.FieldWatched, f.notWatched, true},
		{query.FieldReviewed, f.reviewed, false},
		{query.FieldReviewed, f.notReviewed, true},
		{query.FieldAssigned, f.assigned, false},
		{query.FieldAssigned, f.notAssigned, true},
	}
	for _, v := range flags {
		if !v.set {
			continue
		}
		if err := filter.SetFlag(v.field, v.negate); err != nil {
			return nil, err
		}
	}

	return filter, nil
}

func newPatchesCmd(opts *globalOptions) *cobra.Command {
	var (
		flags    filterFlags
		format   string
		vertical bool
		oneline  bool
		exprSrc  string
	)

	cmd := &cobra.Command{
		Use:     "patches",
		Aliases: []string{"patch", "pa"},
		Short:   "List open patches on the server",
		Long: `List open patches, narrowed by accumulative filters (each extra
flag further restricts the set). Output is a table by default; --format
renders each patch through a token string.

Format tokens:
` + query.TokenHelp(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.build()
			if err != nil {
				return err
			}
			var program *query.Program
			if exprSrc != "" {
				program, err = query.CompileQuery(exprSrc)
				if err != nil {
					return err
				}
			}
			renderer, err := buildRenderer(format, vertical, oneline)
			if err != nil {
				return err
			}

			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			records, err := fetchRecords(cmd.Context(), app)
			if err != nil {
				return err
			}

			records = filter.Apply(records)
			if program != nil {
				records, err = query.ApplyProgram(program, records)
				if err != nil {
					return err
				}
			}
			fmt.Print(renderer.Render(records))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "Token format string, e.g. '%n %a %o %s'")
	cmd.Flags().BoolVar(&vertical, "vertical", false, "One field per line, one block per patch")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "One line per patch")
	cmd.Flags().StringVar(&exprSrc, "query", "", "Expression filter, e.g. 'age_days > 7 && !draft'")

	return cmd
}

func buildRenderer(format string, vertical, oneline bool) (*query.Renderer, error) {
	switch {
	case format != "":
		return query.NewFormatRenderer(format)
	case vertical:
		return query.NewRenderer(query.LayoutVertical), nil
	case oneline:
		return query.NewRenderer(query.LayoutOneline), nil
	default:
		return query.NewRenderer(query.LayoutTable), nil
	}
}

// fetchRecords queries all open changes and snapshots them as patch
// records relative to the calling account.
func fetchRecords(ctx context.Context, app *appContext) ([]query.PatchRecord, error) {
	self := ""
	if acct, err := app.client.Self(ctx); err == nil {
		self = acct.Identity()
	} else {
		logging.Debug("self lookup failed, mine/assigned filters degrade", "error", err)
	}

	changes, err := app.client.QueryChanges(ctx, "status:open",
		"CURRENT_REVISION", "DETAILED_ACCOUNTS", "DETAILED_LABELS", "REVIEWED")
	if err != nil {
		return nil, err
	}

	// Watched state is not a change property in the JSON, only a query
	// operator, so it takes a second lookup marking the matching numbers.
	watched := map[int]bool{}
	if wch, err := app.client.QueryChanges(ctx, "is:watched status:open"); err == nil {
		for _, c := range wch {
			watched[c.Number] = true
		}
	} else {
		logging.Debug("watched lookup failed, watched filter degrades", "error", err)
	}

	now := time.Now()
	records := make([]query.PatchRecord, 0, len(changes))
	for _, c := range changes {
		rec := query.FromChange(c, self, now)
		rec.Watched = watched[c.Number]
		records = append(records, rec)
	}
	return records, nil
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show the current branch's pending commits and their changes",
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
			if !branch.HasUpstream() {
				return fmt.Errorf("branch %s has no upstream", branch.Name)
			}

			refs, err := app.mapper.BranchChanges(ctx, branch)
			if err != nil {
				return err
			}
			fmt.Printf("Branch %s tracking %s\n", branch.Name, branch.Upstream)
			if len(refs) == 0 {
				fmt.Println("No pending commits.")
				return nil
			}
			for _, ref := range refs {
				fmt.Printf("  %s %s\n", ref.Commit.ShortHash, ref.Commit.Subject)
				switch {
				case ref.Remote != nil:
					fmt.Printf("      change %d (%s) patch set %d%s\n",
						ref.Remote.Number, statusWord(ref.Remote), ref.Remote.CurrentPatchSet(), topicSuffix(ref.Remote))
				case ref.Commit.ChangeID == "":
					printWarn("      no Change-Id (commit-msg hook missing?)")
				default:
					printDim("      not pushed yet")
				}
			}
			return nil
		},
	}
	return cmd
}

func statusWord(c *gerrit.ChangeInfo) string {
	switch {
	case c.Draft():
		return "draft"
	default:
		return c.Status
	}
}

func topicSuffix(c *gerrit.ChangeInfo) string {
	if c.Topic == "" {
		return ""
	}
	return ", topic " + c.Topic
}
