package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/pkg/models"
)

var (
	listStatus   string
	listArchived bool
	listJSON     bool
)

// taskJSON is the stable JSON shape for listings and show.
type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Parent      string   `json:"parent,omitempty"`
	Blocks      []string `json:"blocks,omitempty"`
	PeerIndex   float64  `json:"peer_index"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	ClosedAt    string   `json:"closed_at,omitempty"`
	CloseReason string   `json:"close_reason,omitempty"`
	Archived    bool     `json:"archived,omitempty"`
	Description string   `json:"description,omitempty"`
}

func taskToJSON(t *models.Task) taskJSON {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Status:      string(t.Status),
		Parent:      t.Parent,
		Blocks:      t.Blocks,
		PeerIndex:   t.PeerIndex,
		CreatedAt:   t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		CloseReason: t.CloseReason,
		Archived:    t.Archived,
		Description: t.Description,
	}
	if t.ClosedAt != nil {
		out.ClosedAt = t.ClosedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in tree order",
	Long: `List tasks in depth-first tree order: each root in sibling order,
immediately followed by its descendants. Archived subtrees are hidden
unless --archived is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		tasks, err := Store.List(core.ListFilter{
			Status:          models.TaskStatus(listStatus),
			IncludeArchived: listArchived,
		})
		if err != nil {
			return err
		}

		if listJSON {
			out := make([]taskJSON, len(tasks))
			for i, t := range tasks {
				out[i] = taskToJSON(t)
			}
			return printJSON(out)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, t := range tasks {
			fmt.Println(renderTaskLine(t, false))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (open, active, closed)")
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "Include archived subtrees")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	_ = listCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	rootCmd.AddCommand(listCmd)
}
