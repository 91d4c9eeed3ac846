package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
)

var findCmd = &cobra.Command{
	Use:   "find <fragment>",
	Short: "Resolve an id fragment",
	Long: `Resolve an id fragment to its full task id. An ambiguous fragment
lists every matching candidate and exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		id, err := Store.Resolve(args[0])
		if err != nil {
			var ambig *core.AmbiguousError
			if errors.As(err, &ambig) {
				fmt.Printf("%q matches %d tasks:\n", ambig.Fragment, len(ambig.Candidates))
				for _, c := range ambig.Candidates {
					fmt.Printf("  %s\n", c)
				}
			}
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	findCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(findCmd)
}
