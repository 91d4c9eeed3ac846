package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
)

var importPrefixMap []string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a beads JSONL export",
	Long: `Import tasks from a beads issue-database JSONL export, one JSON
object per line. The whole batch is validated first; the first bad
line or cycle-closing dependency rejects everything and reports its
line number. Use - to read from stdin.

--prefix-map old=new rewrites id prefixes during ingest, so imported
ids can adopt this store's prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		prefixMap := make(map[string]string, len(importPrefixMap))
		for _, pair := range importPrefixMap {
			old, repl, ok := strings.Cut(pair, "=")
			if !ok || old == "" || repl == "" {
				return fmt.Errorf("invalid --prefix-map entry %q (want old=new)", pair)
			}
			prefixMap[old] = repl
		}

		feed := os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import feed: %w", err)
			}
			defer f.Close()
			feed = f
		}

		report, err := Store.Import(feed, core.ImportOptions{PrefixMap: prefixMap})
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d task(s)\n", report.Imported)
		for _, root := range report.Archived {
			fmt.Printf("Archived subtree %s\n", root)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringArrayVar(&importPrefixMap, "prefix-map", nil,
		"Rewrite id prefixes during import (old=new); repeatable")
	rootCmd.AddCommand(importCmd)
}
