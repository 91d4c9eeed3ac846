package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsJSON  bool
	statsSince string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a store census and recent activity",
	Long: `Show a census of the store (tasks by status, ready and blocked
counts) plus activity aggregated from the operation journal over the
--since window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		stats, err := Store.Stats()
		if err != nil {
			return err
		}

		sinceTime, err := parseSinceDuration(statsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		activity, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating activity: %w", err)
		}

		if statsJSON {
			return printJSON(struct {
				Stats    any `json:"stats"`
				Activity any `json:"activity"`
			}{stats, activity})
		}

		fmt.Println("Store")
		fmt.Printf("  %-16s %d\n", "total:", stats.Total)
		fmt.Printf("  %-16s %d\n", "open:", stats.Open)
		fmt.Printf("  %-16s %d\n", "active:", stats.Active)
		fmt.Printf("  %-16s %d\n", "closed:", stats.Closed)
		fmt.Printf("  %-16s %d\n", "archived:", stats.Archived)
		fmt.Printf("  %-16s %d\n", "ready:", stats.Ready)
		fmt.Printf("  %-16s %d\n", "blocked:", stats.Blocked)
		fmt.Printf("  %-16s %d\n", "roots:", stats.Roots)

		fmt.Printf("\nActivity since %s\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-16s %d\n", "events:", activity.EventCount)
		fmt.Printf("  %-16s %d\n", "created:", activity.TasksCreated)
		fmt.Printf("  %-16s %d\n", "started:", activity.TasksStarted)
		fmt.Printf("  %-16s %d\n", "closed:", activity.TasksClosed)
		fmt.Printf("  %-16s %d\n", "removed:", activity.TasksRemoved)
		fmt.Printf("  %-16s %d\n", "archived:", activity.SubtreesArchived)
		fmt.Printf("  %-16s %d\n", "reorders:", activity.Reorders)
		fmt.Printf("  %-16s %d\n", "imports:", activity.Imports)
		fmt.Printf("  %-16s %d\n", "repairs:", activity.Repairs)
		if len(activity.ClosedByReason) > 0 {
			fmt.Println("\n  Closed by reason:")
			for reason, count := range activity.ClosedByReason {
				fmt.Printf("    %-20s %d\n", reason+":", count)
			}
		}
		if activity.NewestEvent != nil {
			fmt.Printf("\n  %-16s %s\n", "newest event:", activity.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "Activity window (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
