package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/observability"
)

var (
	logSince string
	logTypes []string
	logLimit int
	logJSON  bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the operation journal",
	Long: `Show entries from the append-only operation journal. Every mutation
(create, status change, archive, remove, reorder, import, repair)
leaves one entry; --since, --type, and --limit narrow the output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		filter := observability.EventFilter{
			Types: logTypes,
			Limit: logLimit,
		}
		if logSince != "" {
			since, err := parseSinceDuration(logSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return err
		}

		if logJSON {
			return printJSON(events)
		}

		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-20s", e.Time.Format(time.RFC3339), e.Type)
			if task, ok := e.Data["task"].(string); ok {
				line += "  " + task
			}
			if to, ok := e.Data["to"].(string); ok {
				line += "  -> " + to
			}
			fmt.Println(line)
		}
		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d",
// "30d", or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	logCmd.Flags().StringVar(&logSince, "since", "", "Only events after this window start (e.g. 7d, 24h)")
	logCmd.Flags().StringArrayVar(&logTypes, "type", nil, "Only events of this type; repeatable")
	logCmd.Flags().IntVar(&logLimit, "limit", 0, "Only the most recent N events")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(logCmd)
}
