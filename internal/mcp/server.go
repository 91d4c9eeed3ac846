// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the task store as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/slabforge/tsk/internal/core"
	"github.com/slabforge/tsk/internal/observability"
	"github.com/slabforge/tsk/pkg/models"
)

// Server wraps the task store and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over the given store.
func NewServer(store core.TaskStore, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "tsk", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type addTaskInput struct {
	Title       string   `json:"title" jsonschema:"required,the task title"`
	Description string   `json:"description,omitempty" jsonschema:"optional free-form Markdown description"`
	Parent      string   `json:"parent,omitempty" jsonschema:"id or unique prefix of the parent task"`
	BlockedBy   []string `json:"blocked_by,omitempty" jsonschema:"ids or unique prefixes of tasks that must close first"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task id or any unique prefix of it (e.g. tsk-9f8e7d6c or tsk-9f)"`
}

type taskOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Parent      string   `json:"parent,omitempty"`
	BlockedBy   []string `json:"blocked_by,omitempty"`
	Blocked     bool     `json:"blocked"`
	Archived    bool     `json:"archived"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
	Closed      string   `json:"closed,omitempty"`
	CloseReason string   `json:"close_reason,omitempty"`
	Description string   `json:"description,omitempty"`
}

type getTaskOutput struct {
	Task     taskOutput `json:"task"`
	Children []string   `json:"children,omitempty"`
	Blocking []string   `json:"blocking,omitempty"`
}

type listTasksInput struct {
	Status          string `json:"status,omitempty" jsonschema:"filter tasks by status (open, active, closed)"`
	IncludeArchived bool   `json:"include_archived,omitempty" jsonschema:"include archived tasks in the listing"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type readyTasksInput struct{}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task id or any unique prefix of it"`
	Status string `json:"status" jsonschema:"required,the new status (active or closed)"`
	Reason string `json:"reason,omitempty" jsonschema:"optional close reason, recorded when status is closed"`
}

type updateTaskStatusOutput struct {
	Message      string `json:"message"`
	ArchivedRoot string `json:"archived_root,omitempty"`
}

type searchTasksInput struct {
	Query string `json:"query" jsonschema:"required,case-insensitive substring matched against titles, descriptions, and close reasons"`
}

type getStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"activity window for journal metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type getStatsOutput struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Active   int `json:"active"`
	Closed   int `json:"closed"`
	Archived int `json:"archived"`
	Ready    int `json:"ready"`
	Blocked  int `json:"blocked"`
	Roots    int `json:"roots"`

	TasksCreated     int    `json:"tasks_created"`
	TasksClosed      int    `json:"tasks_closed"`
	SubtreesArchived int    `json:"subtrees_archived"`
	EventCount       int    `json:"event_count"`
	NewestEvent      string `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task. Optionally nest it under a parent and declare blocking dependencies.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by id or unique id prefix, including children, blockers, and blocked state.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with an optional status filter. Archived tasks are hidden unless include_archived is set.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "ready_tasks",
		Description: "List tasks that are open and have no open or active blockers, in board order.",
	}, s.handleReadyTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task through its lifecycle. Valid moves: open to active, open to closed, active to closed. Closing the last task in a fully closed root subtree archives it.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "search_tasks",
		Description: "Search titles, descriptions, and close reasons, archived tasks included.",
	}, s.handleSearchTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get a store census (tasks by status, ready and blocked counts) plus journal activity over a time window.",
	}, s.handleGetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (stale active tasks, tasks blocked too long, too many open tasks).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}

	task, err := s.store.Create(core.CreateRequest{
		Title:       input.Title,
		Description: input.Description,
		Parent:      input.Parent,
		Blocks:      input.BlockedBy,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task, false), nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, getTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), getTaskOutput{}, nil
	}

	detail, err := s.store.Get(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), getTaskOutput{}, nil
	}

	out := getTaskOutput{Task: taskToOutput(detail.Task, detail.Blocked)}
	for _, c := range detail.Children {
		out.Children = append(out.Children, c.ID)
	}
	for _, b := range detail.Blocking {
		out.Blocking = append(out.Blocking, b.ID)
	}
	return nil, out, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := core.ListFilter{IncludeArchived: input.IncludeArchived}
	if input.Status != "" {
		status := models.TaskStatus(input.Status)
		if !status.IsValid() {
			return errorResult(fmt.Sprintf("invalid status %q: must be one of open, active, closed", input.Status)), listTasksOutput{}, nil
		}
		filter.Status = status
	}

	tasks, err := s.store.List(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	return nil, tasksToListOutput(tasks), nil
}

func (s *Server) handleReadyTasks(_ context.Context, _ *gomcp.CallToolRequest, _ readyTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks, err := s.store.ReadyTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("listing ready tasks: %s", err)), listTasksOutput{}, nil
	}
	return nil, tasksToListOutput(tasks), nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), updateTaskStatusOutput{}, nil
	}

	status := models.TaskStatus(input.Status)
	if !status.IsValid() {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of open, active, closed", input.Status)), updateTaskStatusOutput{}, nil
	}

	change, err := s.store.SetStatus(input.TaskID, status, input.Reason)
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}

	out := updateTaskStatusOutput{ArchivedRoot: change.ArchivedRoot}
	if change.Changed {
		out.Message = fmt.Sprintf("task %s moved from %s to %s", change.Task.ID, change.Previous, status)
	} else {
		out.Message = fmt.Sprintf("task %s already %s", change.Task.ID, status)
	}
	return nil, out, nil
}

func (s *Server) handleSearchTasks(_ context.Context, _ *gomcp.CallToolRequest, input searchTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	if input.Query == "" {
		return errorResult("query is required"), listTasksOutput{}, nil
	}

	tasks, err := s.store.Search(input.Query)
	if err != nil {
		return errorResult(fmt.Sprintf("searching tasks: %s", err)), listTasksOutput{}, nil
	}
	return nil, tasksToListOutput(tasks), nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, getStatsOutput, error) {
	stats, err := s.store.Stats()
	if err != nil {
		return errorResult(fmt.Sprintf("reading store stats: %s", err)), getStatsOutput{}, nil
	}

	out := getStatsOutput{
		Total:    stats.Total,
		Open:     stats.Open,
		Active:   stats.Active,
		Closed:   stats.Closed,
		Archived: stats.Archived,
		Ready:    stats.Ready,
		Blocked:  stats.Blocked,
		Roots:    stats.Roots,
	}

	if s.metricsCalc != nil {
		sinceStr := input.Since
		if sinceStr == "" {
			sinceStr = "7d"
		}
		sinceTime, err := parseSince(sinceStr)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing since duration: %s", err)), getStatsOutput{}, nil
		}
		metrics, err := s.metricsCalc.Calculate(sinceTime)
		if err != nil {
			return errorResult(fmt.Sprintf("calculating activity: %s", err)), getStatsOutput{}, nil
		}
		out.TasksCreated = metrics.TasksCreated
		out.TasksClosed = metrics.TasksClosed
		out.SubtreesArchived = metrics.SubtreesArchived
		out.EventCount = metrics.EventCount
		if metrics.NewestEvent != nil {
			out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	tasks, err := s.store.List(core.ListFilter{IncludeArchived: true})
	if err != nil {
		return errorResult(fmt.Sprintf("loading tasks for alerts: %s", err)), getAlertsOutput{}, nil
	}
	alerts := s.alertEngine.Evaluate(time.Now().UTC(), tasks)

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task, blocked bool) taskOutput {
	out := taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Status:      string(t.Status),
		Parent:      t.Parent,
		BlockedBy:   t.Blocks,
		Blocked:     blocked,
		Archived:    t.Archived,
		Created:     t.CreatedAt.Format(time.RFC3339),
		Updated:     t.UpdatedAt.Format(time.RFC3339),
		CloseReason: t.CloseReason,
		Description: t.Description,
	}
	if t.ClosedAt != nil {
		out.Closed = t.ClosedAt.Format(time.RFC3339)
	}
	return out
}

func tasksToListOutput(tasks []*models.Task) listTasksOutput {
	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t, false)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d",
// or "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
