package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage blocking dependencies",
	Long: `Add and remove blocking dependencies between tasks. A task with an
open or active blocker is not ready; dependency edges never form
cycles and never duplicate a parent/child relationship.`,
}

var depAddCmd = &cobra.Command{
	Use:   "add <fragment> <blocker>",
	Short: "Record that a task waits on another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		task, err := Store.AddDependency(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s is blocked by %v\n", task.ID, task.Blocks)
		return nil
	},
}

var depRmCmd = &cobra.Command{
	Use:   "rm <fragment> <blocker>",
	Short: "Drop a blocking dependency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		task, err := Store.RemoveDependency(args[0], args[1])
		if err != nil {
			return err
		}
		if len(task.Blocks) == 0 {
			fmt.Printf("%s is no longer blocked\n", task.ID)
		} else {
			fmt.Printf("%s is blocked by %v\n", task.ID, task.Blocks)
		}
		return nil
	},
}

func init() {
	depAddCmd.ValidArgsFunction = completeTaskIDs("")
	depRmCmd.ValidArgsFunction = completeTaskIDs("")
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRmCmd)
	rootCmd.AddCommand(depCmd)
}
