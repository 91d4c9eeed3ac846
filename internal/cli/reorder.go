package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	reorderBefore string
	reorderAfter  string
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <fragment>",
	Short: "Move a task within its sibling group",
	Long: `Move a task next to a sibling anchor. Exactly one of --before or
--after is required; only the moved task's record is rewritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		task, err := Store.Reorder(args[0], reorderBefore, reorderAfter)
		if err != nil {
			return err
		}
		fmt.Printf("Moved %s\n", task.ID)
		return nil
	},
}

func init() {
	reorderCmd.Flags().StringVar(&reorderBefore, "before", "", "Place before this sibling (id prefix)")
	reorderCmd.Flags().StringVar(&reorderAfter, "after", "", "Place after this sibling (id prefix)")
	_ = reorderCmd.RegisterFlagCompletionFunc("before", completeTaskIDs(""))
	_ = reorderCmd.RegisterFlagCompletionFunc("after", completeTaskIDs(""))
	reorderCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(reorderCmd)
}
