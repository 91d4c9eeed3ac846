package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
)

var alertsJSON bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate alert conditions against the store",
	Long: `Evaluate the alert thresholds configured in .taskconfig against the
current store: stale active tasks, tasks blocked too long, and too
many open tasks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		tasks, err := Store.List(core.ListFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		alerts := AlertEngine.Evaluate(time.Now().UTC(), tasks)

		if alertsJSON {
			return printJSON(alerts)
		}

		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return nil
		}
		for _, a := range alerts {
			fmt.Printf("[%s] %s\n", a.Severity, a.Message)
			fmt.Printf("  condition: %s, triggered at %s\n",
				a.Condition, a.TriggeredAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(alertsCmd)
}
