package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osesov/gerrit-cli/internal/logging"
)

var version = "0.1.0"

func main() {
	var (
		serverName string
		verbose    bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:           "gerrit-cli",
		Short:         "Topic-branch companion for Gerrit code review",
		Long:          `gerrit-cli keeps local topic branches and Gerrit changes in sync: push branches as review topics, check out changes by number or topic, query open patches, and prune merged branches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetLevel("debug")
			}
			logging.WithCommand(cmd.Name()).Debug("command invoked", "args", args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverName, "server", "", "Named Gerrit server from the config (default: default_server)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	opts := &globalOptions{server: &serverName, configPath: &configPath, verbose: &verbose}

	rootCmd.AddCommand(
		newTopicCmd(opts),
		newPushCmd(opts),
		newDraftCmd(opts),
		newNinjaCmd(opts),
		newCheckoutCmd(opts),
		newRecheckoutCmd(opts),
		newCleanCmd(opts),
		newPatchesCmd(opts),
		newStatusCmd(opts),
		newReviewCmd(opts),
		newSubmitCmd(opts),
		newAbandonCmd(opts),
		newCommentCmd(opts),
		newAssignCmd(opts),
		newSquadCmd(opts),
		newHookCmd(opts),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gerrit-cli version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gerrit-cli %s\n", version)
		},
	}
}
