package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readyJSON bool

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List tasks ready to start",
	Long: `List open tasks with no open or active blocker, in tree order.
These are the tasks that can be picked up right now.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		tasks, err := Store.ReadyTasks()
		if err != nil {
			return err
		}

		if readyJSON {
			out := make([]taskJSON, len(tasks))
			for i, t := range tasks {
				out[i] = taskToJSON(t)
			}
			return printJSON(out)
		}

		if len(tasks) == 0 {
			fmt.Println("Nothing is ready.")
			return nil
		}
		for _, t := range tasks {
			fmt.Println(renderTaskLine(t, false))
		}
		return nil
	},
}

func init() {
	readyCmd.Flags().BoolVar(&readyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(readyCmd)
}
