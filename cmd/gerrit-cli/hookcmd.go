package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/git"
	"github.com/osesov/gerrit-cli/internal/hook"
)

func newHookCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the Change-Id commit-msg hook",
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install the commit-msg hook into the current repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			runner := git.NewRunner(wd)
			path, err := runner.HookPath(cmd.Context(), "commit-msg")
			if err != nil {
				return err
			}
			if err := hook.Install(path); err != nil {
				return err
			}
			printSuccess("Installed commit-msg hook at %s", path)
			return nil
		},
	}

	// commit-msg is invoked by git, not by users, so it stays out of help.
	commitMsg := &cobra.Command{
		Use:    "commit-msg <file>",
		Short:  "Stamp a Change-Id trailer onto a commit message file",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return hook.Apply(args[0])
		},
	}

	cmd.AddCommand(install, commitMsg)
	return cmd
}
