package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/clean"
	"github.com/osesov/gerrit-cli/internal/logging"
)

func newCleanCmd(opts *globalOptions) *cobra.Command {
	var (
		dryRun  bool
		force   bool
		ageSpec string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete local topic branches whose changes are merged",
		Long: `Scan local topic branches and delete those whose every pending
commit's Change-Id appears in the upstream history. Partially merged
topics are never deleted. An age threshold like "2w3d" keeps branches
with recent commits even when fully merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanOpts := clean.Options{}
			if ageSpec != "" {
				age, err := clean.ParseAge(ageSpec)
				if err != nil {
					return err
				}
				scanOpts.MinAge = age
			}

			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			scanner := clean.NewScanner(app.git)
			result, err := scanner.Scan(ctx, scanOpts)
			if err != nil {
				return err
			}

			for _, k := range result.Kept {
				printDim("Keeping %s (%s)", k.Branch.Name, k.Reason)
			}
			if len(result.ToRemove) == 0 {
				fmt.Println("No fully merged topic branches to remove.")
				return nil
			}

			fmt.Printf("Branches to remove (%d):\n", len(result.ToRemove))
			for _, b := range result.ToRemove {
				fmt.Printf("  %s\n", b.Name)
			}
			if dryRun {
				return nil
			}
			if !force && !confirm("Delete these branches?", false) {
				fmt.Println("Aborted.")
				return nil
			}

			removed, err := scanner.Remove(ctx, result.ToRemove)
			for _, name := range removed {
				printSuccess("Deleted %s", name)
			}
			logging.Info("merged branches deleted", "count", len(removed))
			if err != nil {
				var rerr *clean.RemoveError
				if errors.As(err, &rerr) {
					for name, cause := range rerr.Failed {
						printWarn("Failed to delete %s: %v", name, cause)
					}
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be deleted without deleting")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")
	cmd.Flags().StringVar(&ageSpec, "age", "", "Only delete branches older than this (e.g. 2w3d5h)")

	return cmd
}
