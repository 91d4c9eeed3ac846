package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, descriptions, and close reasons",
	Long: `Case-insensitive substring search across titles, descriptions, and
close reasons. Archived tasks are searched too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		tasks, err := Store.Search(args[0])
		if err != nil {
			return err
		}

		if searchJSON {
			out := make([]taskJSON, len(tasks))
			for i, t := range tasks {
				out[i] = taskToJSON(t)
			}
			return printJSON(out)
		}

		if len(tasks) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, t := range tasks {
			fmt.Println(renderTaskLine(t, false))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(searchCmd)
}
