package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/pkg/models"
)

// Board column indices.
const (
	columnOpen = iota
	columnActive
	columnClosed
	columnCount
)

// recentClosedLimit caps the "recently closed" column.
const recentClosedLimit = 10

type boardTask struct {
	id      string
	title   string
	blocked bool
}

type boardModel struct {
	activeColumn int
	width        int
	height       int

	watcher *fsnotify.Watcher

	// Data.
	open   []boardTask
	active []boardTask
	closed []boardTask

	// State.
	loading bool
	err     error
}

// boardLoadedMsg carries loaded data back to the model.
type boardLoadedMsg struct {
	open   []boardTask
	active []boardTask
	closed []boardTask
	err    error
}

// storeChangedMsg signals that something under the tasks directory
// changed on disk.
type storeChangedMsg struct{}

// Style definitions.
var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activeColumnStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				MarginBottom(1)

	boardHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel(watcher *fsnotify.Watcher) boardModel {
	return boardModel{
		activeColumn: columnOpen,
		watcher:      watcher,
		loading:      true,
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(loadBoard, waitForStoreChange(m.watcher))
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activeColumn = (m.activeColumn + 1) % columnCount
			return m, nil
		case "shift+tab":
			m.activeColumn = (m.activeColumn - 1 + columnCount) % columnCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadBoard
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case storeChangedMsg:
		return m, tea.Batch(loadBoard, waitForStoreChange(m.watcher))

	case boardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.open = msg.open
		m.active = msg.active
		m.closed = msg.closed
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m boardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := boardTitleStyle.Render(" tsk board ")
	help := boardHelpStyle.Render("tab: switch column | r: reload | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading tasks...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	openCol := renderColumn("Open", m.open, statusOpen)
	activeCol := renderColumn("Active", m.active, statusActive)
	closedCol := renderColumn("Recently closed", m.closed, statusClosed)

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		openCol = m.applyColumnStyle(columnOpen, openCol, colWidth-4)
		activeCol = m.applyColumnStyle(columnActive, activeCol, colWidth-4)
		closedCol = m.applyColumnStyle(columnClosed, closedCol, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, openCol, activeCol, closedCol)
	} else {
		colWidth := availableWidth - 4
		if colWidth < 20 {
			colWidth = 20
		}
		openCol = m.applyColumnStyle(columnOpen, openCol, colWidth)
		activeCol = m.applyColumnStyle(columnActive, activeCol, colWidth)
		closedCol = m.applyColumnStyle(columnClosed, closedCol, colWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, openCol, activeCol, closedCol)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m boardModel) applyColumnStyle(column int, content string, width int) string {
	style := columnStyle
	if m.activeColumn == column {
		style = activeColumnStyle
	}
	return style.Width(width).Render(content)
}

func renderColumn(header string, tasks []boardTask, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(columnHeaderStyle.Render(fmt.Sprintf("%s (%d)", header, len(tasks))))
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString("  (empty)")
		return b.String()
	}

	for _, t := range tasks {
		line := fmt.Sprintf("  %s  %s", taskIDStyle.Render(t.id), style.Render(t.title))
		if t.blocked {
			line += " " + blockedMarker.Render("[blocked]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// loadBoard reads the store without taking the lock; the board is a
// read-only viewer and a torn read just means the next change event
// reloads it.
func loadBoard() tea.Msg {
	var result boardLoadedMsg

	if Store == nil {
		result.err = fmt.Errorf("store not initialized")
		return result
	}

	tasks, err := Store.List(core.ListFilter{IncludeArchived: true})
	if err != nil {
		result.err = fmt.Errorf("loading tasks: %w", err)
		return result
	}

	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	isBlocked := func(t *models.Task) bool {
		for _, b := range t.Blocks {
			if blocker, ok := byID[b]; ok && blocker.Status.Blocking() {
				return true
			}
		}
		return false
	}

	var closed []*models.Task
	for _, t := range tasks {
		switch t.Status {
		case models.StatusOpen:
			result.open = append(result.open, boardTask{t.ID, t.Title, isBlocked(t)})
		case models.StatusActive:
			result.active = append(result.active, boardTask{t.ID, t.Title, false})
		case models.StatusClosed:
			closed = append(closed, t)
		}
	}

	sort.Slice(closed, func(i, j int) bool {
		var ti, tj int64
		if closed[i].ClosedAt != nil {
			ti = closed[i].ClosedAt.UnixNano()
		}
		if closed[j].ClosedAt != nil {
			tj = closed[j].ClosedAt.UnixNano()
		}
		return ti > tj
	})
	if len(closed) > recentClosedLimit {
		closed = closed[:recentClosedLimit]
	}
	for _, t := range closed {
		result.closed = append(result.closed, boardTask{t.ID, t.Title, false})
	}

	return result
}

// waitForStoreChange blocks on the next filesystem event under the
// tasks directory. Editor temp files and chmods still count; reloading
// on a false positive is harmless.
func waitForStoreChange(watcher *fsnotify.Watcher) tea.Cmd {
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				return storeChangedMsg{}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return storeChangedMsg{}
			}
		}
	}
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive task board",
	Long: `Launch a read-only terminal board with open, active, and recently
closed columns. The board watches the tasks directory and reloads
when another process changes it.

Navigate between columns with Tab, reload with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating store watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(TasksDir); err != nil {
			return fmt.Errorf("watching %s: %w", TasksDir, err)
		}

		p := tea.NewProgram(newBoardModel(watcher), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
