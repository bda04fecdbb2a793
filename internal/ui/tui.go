// Package ui provides an optional terminal interface over the task store.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/task-cli/internal/logging"
	"github.com/nibzard/task-cli/internal/store"
	"github.com/nibzard/task-cli/internal/task"
)

// ErrNotTTY is returned when the TUI is started without a terminal.
var ErrNotTTY = errors.New("tui requires a TTY")

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	refreshInterval time.Duration
	logger          *log.Logger
	now             func() time.Time
}

// WithRefreshInterval sets how often the task file is re-read. Zero disables
// periodic refresh.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.refreshInterval = d
	}
}

// WithLogger sets the logger used for action traces.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		c.logger = logger
	}
}

// WithClock sets the time source used when tasks change.
func WithClock(now func() time.Time) TUIOption {
	return func(c *tuiConfig) {
		c.now = now
	}
}

func newTUIConfig(opts []TUIOption) *tuiConfig {
	c := &tuiConfig{
		refreshInterval: 2 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// RunTUI starts the TUI over st. label is shown in the footer, usually the
// tasks file path.
func RunTUI(ctx context.Context, st store.Store, label string, opts ...TUIOption) error {
	c := newTUIConfig(opts)

	if !IsTTY(os.Stdout) {
		return ErrNotTTY
	}

	model := newTUIModel(ctx, st, label, c)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

type tuiModel struct {
	ctx    context.Context
	store  store.Store
	label  string
	cfg    *tuiConfig
	logger *log.Logger

	tasks    task.Collection
	visible  []task.Task
	cursor   int
	filter   task.Status
	showHelp bool

	loadErr  error
	message  string
	msgIsErr bool
}

type tickMsg time.Time

func newTUIModel(ctx context.Context, st store.Store, label string, c *tuiConfig) *tuiModel {
	if ctx == nil {
		ctx = context.Background()
	}
	return &tuiModel{
		ctx:    ctx,
		store:  st,
		label:  label,
		cfg:    c,
		logger: c.logger,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	if m.cfg.refreshInterval <= 0 {
		return nil
	}
	return tickCmd(m.cfg.refreshInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.refresh()
		if m.cfg.refreshInterval <= 0 {
			return m, nil
		}
		return m, tickCmd(m.cfg.refreshInterval)
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		default:
			m.showHelp = false
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "r", "f5":
		m.refresh()
		m.setMessage("Reloaded", false)
	case "h", "?":
		m.showHelp = true
	case "0":
		m.setFilter("")
	case "1":
		m.setFilter(task.StatusTodo)
	case "2":
		m.setFilter(task.StatusInProgress)
	case "3":
		m.setFilter(task.StatusDone)
	case "p":
		m.markSelected(task.StatusInProgress)
	case "d":
		m.markSelected(task.StatusDone)
	case "x", "delete":
		m.deleteSelected()
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error loading tasks file:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.label)
		return b.String()
	}

	writeOverview(&b, m.tasks, m.filter)
	writeTaskList(&b, m.visible, m.cursor, len(m.tasks) == 0)

	if m.message != "" {
		style := messageStyle
		if m.msgIsErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.message) + "\n\n")
	}
	writeFooter(&b, m.label)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh re-reads the store, keeping the selection on the same task id when
// it is still visible.
func (m *tuiModel) refresh() {
	var loaded task.Collection
	err := m.store.View(m.ctx, func(tasks task.Collection) error {
		loaded = tasks.Clone()
		return nil
	})
	if err != nil {
		m.loadErr = err
		m.tasks = nil
		m.visible = nil
		m.cursor = 0
		return
	}
	m.loadErr = nil

	selected, hadSelection := m.selected()
	m.tasks = loaded
	m.applyFilter()
	if hadSelection {
		m.selectID(selected.ID)
	}
}

func (m *tuiModel) setFilter(status task.Status) {
	m.filter = status
	m.cursor = 0
	m.applyFilter()
	m.message = ""
}

// applyFilter rebuilds the visible rows from the current filter.
func (m *tuiModel) applyFilter() {
	repo := task.NewRepository(m.tasks.Clone())
	m.visible, _ = repo.Filter(m.filter)
	m.clampCursor()
}

func (m *tuiModel) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return task.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m *tuiModel) selectID(id int) {
	for i, t := range m.visible {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *tuiModel) markSelected(status task.Status) {
	t, ok := m.selected()
	if !ok {
		m.setMessage("No task selected", true)
		return
	}
	err := m.apply(func(repo *task.Repository) error {
		_, err := repo.SetStatus(t.ID, status)
		return err
	})
	if err != nil {
		m.setMessage(err.Error(), true)
		return
	}
	m.logger.Debug("marked task", "id", t.ID, "status", status)
	m.setMessage(fmt.Sprintf("Task %d marked %s", t.ID, status), false)
}

func (m *tuiModel) deleteSelected() {
	t, ok := m.selected()
	if !ok {
		m.setMessage("No task selected", true)
		return
	}
	err := m.apply(func(repo *task.Repository) error {
		return repo.Delete(t.ID)
	})
	if err != nil {
		m.setMessage(err.Error(), true)
		return
	}
	m.logger.Debug("deleted task", "id", t.ID)
	m.setMessage(fmt.Sprintf("Task %d deleted", t.ID), false)
}

// apply runs one load, mutate, save cycle and reloads the view.
func (m *tuiModel) apply(fn func(*task.Repository) error) error {
	err := m.store.Update(m.ctx, func(tasks task.Collection) (task.Collection, error) {
		repo := task.NewRepository(tasks, task.WithClock(m.cfg.now))
		if err := fn(repo); err != nil {
			return nil, err
		}
		return repo.Tasks(), nil
	})
	m.refresh()
	return err
}

func (m *tuiModel) setMessage(msg string, isErr bool) {
	m.message = msg
	m.msgIsErr = isErr
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusTodo:       lipgloss.NewStyle(),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

func writeTitle(b *strings.Builder) {
	title := "Task Tracker"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeOverview(b *strings.Builder, tasks task.Collection, filter task.Status) {
	counts := tasks.CountByStatus()
	b.WriteString(fmt.Sprintf("  Todo: %d  In progress: %d  Done: %d\n",
		counts[task.StatusTodo],
		counts[task.StatusInProgress],
		counts[task.StatusDone],
	))
	if filter != "" {
		b.WriteString(fmt.Sprintf("  Filter: %s (0 to clear)\n", filter))
	}
	b.WriteString("\n")
}

func writeTaskList(b *strings.Builder, visible []task.Task, cursor int, empty bool) {
	b.WriteString(headerStyle.Render("Tasks") + "\n\n")
	if empty {
		b.WriteString("  No tasks yet. Add one with 'task-cli add <description>'.\n\n")
		return
	}
	if len(visible) == 0 {
		b.WriteString("  No tasks match this filter.\n\n")
		return
	}
	for i, t := range visible {
		line := formatTask(t)
		if i == cursor {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headerStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  up/k, down/j   Move selection\n")
	b.WriteString("  p              Mark selected task in-progress\n")
	b.WriteString("  d              Mark selected task done\n")
	b.WriteString("  x              Delete selected task\n")
	b.WriteString("  r, F5          Reload tasks file\n")
	b.WriteString("  1 / 2 / 3      Show todo / in-progress / done\n")
	b.WriteString("  0              Show all tasks\n")
	b.WriteString("  h, ?           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
	b.WriteString(dimStyle.Render("Press any key to return") + "\n")
}

func writeFooter(b *strings.Builder, label string) {
	line := "Press ? for help | q to quit"
	if label != "" {
		line += " | " + label
	}
	b.WriteString(dimStyle.Render(line) + "\n")
}

func formatTask(t task.Task) string {
	statusIcon := " "
	switch t.Status {
	case task.StatusInProgress:
		statusIcon = ">"
	case task.StatusDone:
		statusIcon = "x"
	}
	status := statusStyles[t.Status].Render(fmt.Sprintf("%-11s", t.Status))
	return fmt.Sprintf("[%s] %3d  %s  %s", statusIcon, t.ID, status, t.Description)
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
