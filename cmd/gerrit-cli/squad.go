package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/logging"
	"github.com/osesov/gerrit-cli/internal/squads"
)

func newSquadCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "squad",
		Aliases: []string{"team"},
		Short:   "Manage named reviewer groups",
		Long: `Manage squads: named groups of reviewer identities scoped to the
selected server. A reviewer argument of "@name" anywhere a reviewer is
accepted expands to the squad's members.`,
	}

	cmd.AddCommand(
		newSquadListCmd(opts),
		newSquadSetCmd(opts),
		newSquadAddCmd(opts),
		newSquadRemoveCmd(opts),
		newSquadDeleteCmd(opts),
		newSquadRenameCmd(opts),
	)

	return cmd
}

// withSquads runs fn against an open registry, closing the store after.
func withSquads(opts *globalOptions, fn func(*appContext, *squads.Registry) error) error {
	app, err := newAppContext(opts)
	if err != nil {
		return err
	}
	reg, store, err := app.openSquads()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("closing squad store", "error", err)
		}
	}()
	return fn(app, reg)
}

func newSquadListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List squads and their members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				list, err := reg.List()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Println("No squads defined.")
					return nil
				}
				for _, s := range list {
					fmt.Printf("%s:\n", s.Name)
					for _, m := range s.Members {
						fmt.Printf("  %s\n", m)
					}
				}
				return nil
			})
		},
	}
}

func newSquadSetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <member>...",
		Short: "Replace a squad's members wholesale",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				if err := reg.Set(args[0], args[1:]); err != nil {
					return err
				}
				printSuccess("Squad %s set (%d members)", args[0], len(args)-1)
				return nil
			})
		},
	}
}

func newSquadAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <member>...",
		Short: "Add members to a squad, creating it if needed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				if err := reg.Add(args[0], args[1:]); err != nil {
					return err
				}
				printSuccess("Added %d member(s) to squad %s", len(args)-1, args[0])
				return nil
			})
		},
	}
}

func newSquadRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name> <member>...",
		Short: "Remove members from a squad",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				if err := reg.Remove(args[0], args[1:]); err != nil {
					return err
				}
				printSuccess("Removed %d member(s) from squad %s", len(args)-1, args[0])
				return nil
			})
		},
	}
}

func newSquadDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a squad",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				if err := reg.Delete(args[0]); err != nil {
					return err
				}
				printSuccess("Deleted squad %s", args[0])
				return nil
			})
		},
	}
}

func newSquadRenameCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a squad",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquads(opts, func(app *appContext, reg *squads.Registry) error {
				if err := reg.Rename(args[0], args[1]); err != nil {
					return err
				}
				printSuccess("Renamed squad %s to %s", args[0], args[1])
				return nil
			})
		},
	}
}
