// Package cli implements the tsk command surface. Each command opens
// the store, calls one operation, renders the result, and exits.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "tsk",
	Short: "tsk - file-based task tracking",
	Long: `tsk is a local, serverless task tracker. Tasks live as plain
Markdown records in a directory, organized into parent/child subtrees,
linked by blocking dependencies, and archived automatically once a
whole subtree is closed.

Tasks are referenced by any unambiguous prefix of their id. Multiple
tsk processes can work against the same store; writers coordinate
through an advisory file lock.`,
	// Taxonomy errors map to exit codes in main; cobra must not also
	// print usage for them.
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tsk %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
