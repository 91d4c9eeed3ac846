package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair structural damage in the store",
	Long: `Promote tasks whose parent record no longer exists to roots, sweep
fully closed subtrees stranded outside the archive, and remove empty
container directories. Safe to run any time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		report, err := Store.RepairOrphans()
		if err != nil {
			return err
		}

		if len(report.Promoted) == 0 && len(report.Archived) == 0 && report.RemovedDirs == 0 {
			fmt.Println("Nothing to repair.")
			return nil
		}
		for _, id := range report.Promoted {
			fmt.Printf("promoted %s to a root\n", id)
		}
		for _, id := range report.Archived {
			fmt.Printf("archived subtree %s\n", id)
		}
		if report.RemovedDirs > 0 {
			fmt.Printf("removed %d empty director(ies)\n", report.RemovedDirs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
