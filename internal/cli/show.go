package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <fragment>",
	Short: "Show one task in full",
	Long: `Show a task's record plus its relationships: children in sibling
order, the tasks it waits on, and the tasks waiting on it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		detail, err := Store.Get(args[0])
		if err != nil {
			return err
		}

		if showJSON {
			out := struct {
				Task      taskJSON   `json:"task"`
				Blocked   bool       `json:"blocked"`
				Children  []taskJSON `json:"children,omitempty"`
				BlockedBy []taskJSON `json:"blocked_by,omitempty"`
				Blocking  []taskJSON `json:"blocking,omitempty"`
			}{Task: taskToJSON(detail.Task), Blocked: detail.Blocked}
			for _, t := range detail.Children {
				out.Children = append(out.Children, taskToJSON(t))
			}
			for _, t := range detail.BlockedBy {
				out.BlockedBy = append(out.BlockedBy, taskToJSON(t))
			}
			for _, t := range detail.Blocking {
				out.Blocking = append(out.Blocking, taskToJSON(t))
			}
			return printJSON(out)
		}

		t := detail.Task
		fmt.Println(renderTaskLine(t, detail.Blocked))
		fmt.Printf("  created: %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("  updated: %s\n", t.UpdatedAt.Format("2006-01-02 15:04"))
		if t.ClosedAt != nil {
			fmt.Printf("  closed:  %s\n", t.ClosedAt.Format("2006-01-02 15:04"))
		}
		if t.CloseReason != "" {
			fmt.Printf("  reason:  %s\n", t.CloseReason)
		}
		if t.Parent != "" {
			fmt.Printf("  parent:  %s\n", t.Parent)
		}
		if len(detail.BlockedBy) > 0 {
			fmt.Println("  blocked by:")
			for _, b := range detail.BlockedBy {
				fmt.Printf("    %s\n", renderTaskLine(b, false))
			}
		}
		if len(detail.Blocking) > 0 {
			fmt.Println("  blocking:")
			for _, b := range detail.Blocking {
				fmt.Printf("    %s\n", renderTaskLine(b, false))
			}
		}
		if len(detail.Children) > 0 {
			fmt.Println("  children:")
			for _, c := range detail.Children {
				fmt.Printf("    %s\n", renderTaskLine(c, false))
			}
		}
		if t.Description != "" {
			fmt.Printf("\n%s\n", t.Description)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(showCmd)
}
