package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm <fragment>",
	Short: "Permanently delete a task and its subtree",
	Long: `Delete a task, all its descendants, and every reference to them
from other tasks' blocker lists. There is no undo; rm prompts unless
--yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		id, err := Store.Resolve(args[0])
		if err != nil {
			return err
		}
		if !rmYes && !confirm(fmt.Sprintf("Delete %s and its whole subtree?", id)) {
			fmt.Println("Aborted.")
			return nil
		}

		result, err := Store.Remove(id)
		if err != nil {
			return err
		}
		for _, rid := range result.Removed {
			fmt.Printf("removed %s\n", rid)
		}
		for _, sid := range result.Stripped {
			fmt.Printf("stripped reference from %s\n", sid)
		}
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Skip the confirmation prompt")
	rmCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(rmCmd)
}
