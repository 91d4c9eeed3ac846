package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
)

var (
	addDescription string
	addParent      string
	addBlocks      []string
	addBefore      string
	addAfter       string
	addSlug        bool
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task with the given title. Without anchors the task is
appended to its sibling group; --before or --after insert it next to an
existing sibling. Parent and blocker arguments accept any unambiguous
id prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		task, err := Store.Create(core.CreateRequest{
			Title:       args[0],
			Description: addDescription,
			Parent:      addParent,
			Blocks:      addBlocks,
			Before:      addBefore,
			After:       addAfter,
			Slug:        addSlug,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created %s\n", task.ID)
		if task.Parent != "" {
			fmt.Printf("  parent: %s\n", task.Parent)
		}
		for _, b := range task.Blocks {
			fmt.Printf("  blocked by: %s\n", b)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Free-text description body")
	addCmd.Flags().StringVarP(&addParent, "parent", "p", "", "Parent task (id prefix)")
	addCmd.Flags().StringArrayVarP(&addBlocks, "blocked-by", "b", nil, "Blocker task (id prefix); repeatable")
	addCmd.Flags().StringVar(&addBefore, "before", "", "Insert before this sibling (id prefix)")
	addCmd.Flags().StringVar(&addAfter, "after", "", "Insert after this sibling (id prefix)")
	addCmd.Flags().BoolVar(&addSlug, "slug", false, "Use a title-slug id regardless of the configured style")
	_ = addCmd.RegisterFlagCompletionFunc("parent", completeTaskIDs(""))
	_ = addCmd.RegisterFlagCompletionFunc("blocked-by", completeTaskIDs(""))
	_ = addCmd.RegisterFlagCompletionFunc("before", completeTaskIDs(""))
	_ = addCmd.RegisterFlagCompletionFunc("after", completeTaskIDs(""))
	rootCmd.AddCommand(addCmd)
}
