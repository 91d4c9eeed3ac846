package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/pkg/models"
)

// completeTaskIDs returns a completion function that lists task ids,
// optionally filtered to one status. Archived tasks are always offered;
// a fragment must resolve against the full id set.
func completeTaskIDs(status models.TaskStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Store == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := Store.List(core.ListFilter{Status: status, IncludeArchived: true})
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string
		for _, t := range tasks {
			if toComplete == "" || strings.HasPrefix(t.ID, toComplete) {
				ids = append(ids, t.ID+"\t"+t.Title)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeStatuses returns completion values for --status flags.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"open\tCreated, not started",
		"active\tIn progress",
		"closed\tFinished",
	}, cobra.ShellCompDirectiveNoFileComp
}
