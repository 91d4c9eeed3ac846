package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/pkg/models"
)

var closeReason string

var closeCmd = &cobra.Command{
	Use:   "close <fragment>",
	Short: "Close a task",
	Long: `Close a task. Closed is terminal. When the close leaves the task's
whole root subtree closed, the subtree moves to the archive in one
piece and stops appearing in default listings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		change, err := Store.SetStatus(args[0], models.StatusClosed, closeReason)
		if err != nil {
			return err
		}
		if !change.Changed {
			fmt.Printf("%s is already closed\n", change.Task.ID)
			return nil
		}
		fmt.Printf("Closed %s\n", change.Task.ID)
		if change.ArchivedRoot != "" {
			fmt.Printf("Archived subtree %s\n", change.ArchivedRoot)
		}
		return nil
	},
}

func init() {
	closeCmd.Flags().StringVar(&closeReason, "reason", "", "Why the task is closed")
	closeCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(closeCmd)
}
