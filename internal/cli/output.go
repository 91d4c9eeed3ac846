package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/slabforge/tsk/pkg/models"
)

// Status and marker styles shared by list, show, tree, and the board.
var (
	statusOpen   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusActive = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusClosed = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	blockedMarker  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	archivedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	taskIDStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	taskTitleStyle = lipgloss.NewStyle()
)

func styleForStatus(s models.TaskStatus) lipgloss.Style {
	switch s {
	case models.StatusActive:
		return statusActive
	case models.StatusClosed:
		return statusClosed
	}
	return statusOpen
}

// renderTaskLine formats one task for listings: status, id, title, and
// an optional blocked flag.
func renderTaskLine(t *models.Task, blocked bool) string {
	var b strings.Builder
	status := styleForStatus(t.Status).Render(fmt.Sprintf("%-6s", t.Status))
	if t.Archived {
		status = archivedStyle.Render(fmt.Sprintf("%-6s", "arch"))
	}
	b.WriteString(status)
	b.WriteString("  ")
	b.WriteString(taskIDStyle.Render(t.ID))
	b.WriteString("  ")
	b.WriteString(taskTitleStyle.Render(t.Title))
	if blocked {
		b.WriteString("  ")
		b.WriteString(blockedMarker.Render("[blocked]"))
	}
	return b.String()
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// confirm prompts on stderr and reads a y/N answer from stdin.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
