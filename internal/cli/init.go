package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/pkg/models"
)

var (
	initPrefix string
	initDir    string
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a task store",
	Long: `Initialize a task store: write a .taskconfig file and create the
tasks directory with its archive mirror. Defaults to the current
directory. Re-running init is safe; existing pieces are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := "."
		if len(args) == 1 {
			base = args[0]
		}
		base, err := filepath.Abs(base)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		cfg := models.DefaultStoreConfig()
		if initPrefix != "" {
			cfg.Prefix = initPrefix
		}
		if initDir != "" {
			cfg.TasksDir = initDir
		}
		if err := core.NewConfigManager(base).ValidateConfig(cfg); err != nil {
			return err
		}

		result, err := core.InitStore(base, cfg, Records)
		if err != nil {
			return err
		}

		for _, path := range result.Created {
			fmt.Printf("created  %s\n", path)
		}
		for _, path := range result.Skipped {
			fmt.Printf("exists   %s\n", path)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "Task id prefix (default \"tsk\")")
	initCmd.Flags().StringVar(&initDir, "dir", "", "Tasks directory relative to the store root (default \".tasks\")")
	rootCmd.AddCommand(initCmd)
}
