package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/pkg/models"
)

var startCmd = &cobra.Command{
	Use:   "start <fragment>",
	Short: "Mark a task active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		change, err := Store.SetStatus(args[0], models.StatusActive, "")
		if err != nil {
			return err
		}
		if !change.Changed {
			fmt.Printf("%s is already active\n", change.Task.ID)
			return nil
		}
		fmt.Printf("Started %s\n", change.Task.ID)
		return nil
	},
}

func init() {
	startCmd.ValidArgsFunction = completeTaskIDs(models.StatusOpen)
	rootCmd.AddCommand(startCmd)
}
