// Package tui is the interactive terminal view of the bug table. It shows the
// cached collection immediately, refreshes in the background when the cache
// is stale or missing, and lets the user filter and sort with the keyboard.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/internal/table"
	"github.com/danielolaszy/bugtable/internal/termtable"
)

// Refresher fetches a fresh collection and stores it in the cache.
type Refresher interface {
	Refresh(ctx context.Context) (loader.Snapshot, error)
}

// refreshedMsg carries the result of a background refresh.
type refreshedMsg struct {
	snapshot loader.Snapshot
	err      error
}

// Lines drawn around the grid rows: heading and blank, status, the grid's
// top border with header and separator, its bottom border, then blank, help
// and the selected link.
const chromeHeight = 10

// Model is the bubbletea model for the bug table viewer.
type Model struct {
	ctx       context.Context
	table     *table.Table
	refresher Refresher
	keys      KeyMap
	theme     termtable.Theme
	now       func() time.Time

	hyperlinks bool

	state    table.State
	snapshot loader.Snapshot
	loading  bool
	err      error

	cursor int
	offset int
	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithClock replaces time.Now for the Age column and status line.
func WithClock(now func() time.Time) Option {
	return func(model *Model) { model.now = now }
}

// WithHyperlinks makes id cells clickable in terminals that support OSC 8.
func WithHyperlinks(enabled bool) Option {
	return func(model *Model) { model.hyperlinks = enabled }
}

// WithState sets the initial filter and sort state.
func WithState(state table.State) Option {
	return func(model *Model) { model.state = state }
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(keys KeyMap) Option {
	return func(model *Model) { model.keys = keys }
}

// New creates a Model from the loader's start-up decision. When the plan
// calls for a fetch, Init starts one.
func New(ctx context.Context, tbl *table.Table, refresher Refresher, start loader.Start, opts ...Option) Model {
	model := Model{
		ctx:       ctx,
		table:     tbl,
		refresher: refresher,
		keys:      DefaultKeyMap,
		theme:     termtable.DefaultTheme,
		now:       time.Now,
		state:     table.NewState(),
		snapshot:  start.Cached,
		loading:   start.Plan.NeedsFetch(),
	}
	for _, opt := range opts {
		opt(&model)
	}
	return model
}

// Init starts the background refresh when one is needed.
func (model Model) Init() tea.Cmd {
	if model.loading {
		return model.refresh()
	}
	return nil
}

func (model Model) refresh() tea.Cmd {
	ctx, refresher := model.ctx, model.refresher
	return func() tea.Msg {
		snapshot, err := refresher.Refresh(ctx)
		return refreshedMsg{snapshot: snapshot, err: err}
	}
}

// Update handles key presses, window resizes and refresh results.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case refreshedMsg:
		model.loading = false
		if message.err != nil {
			logging.Error("refresh failed", "error", message.err)
			model.err = message.err
			return model, nil
		}
		model.err = nil
		model.snapshot = message.snapshot
		model.clamp()
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.clamp()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)
	}

	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := model.pageSize()
	if page == 0 {
		page = 10
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Up):
		model.cursor--
	case key.Matches(message, model.keys.Down):
		model.cursor++
	case key.Matches(message, model.keys.PageUp):
		model.cursor -= page
	case key.Matches(message, model.keys.PageDown):
		model.cursor += page
	case key.Matches(message, model.keys.Home):
		model.cursor = 0
	case key.Matches(message, model.keys.End):
		model.cursor = model.rowCount() - 1
	case key.Matches(message, model.keys.ToggleOpen):
		model.state = table.Update(model.state, table.ToggleOpenOnly{})
	case key.Matches(message, model.keys.SortColumn):
		n, err := strconv.Atoi(message.String())
		columns := table.Columns()
		if err != nil || n < 1 || n > len(columns) {
			return model, nil
		}
		model.state = table.Update(model.state, table.SortBy{Column: columns[n-1].Key})
	case key.Matches(message, model.keys.Refresh):
		if model.loading {
			return model, nil
		}
		model.loading = true
		model.clamp()
		return model, model.refresh()
	default:
		return model, nil
	}

	model.clamp()
	return model, nil
}

// State returns the current filter and sort state.
func (model Model) State() table.State {
	return model.state
}

// Cursor returns the index of the highlighted row among the visible rows.
func (model Model) Cursor() int {
	return model.cursor
}

func (model Model) rowCount() int {
	return len(table.Visible(model.snapshot.Bugs, model.state))
}

// pageSize is the number of rows that fit on screen, or 0 when the window
// size is unknown.
func (model Model) pageSize() int {
	if model.height == 0 {
		return 0
	}
	return max(model.height-chromeHeight, 1)
}

// clamp keeps the cursor on a visible row and the row on screen.
func (model *Model) clamp() {
	n := model.rowCount()
	model.cursor = min(model.cursor, n-1)
	model.cursor = max(model.cursor, 0)

	page := model.pageSize()
	if page == 0 {
		model.offset = 0
		return
	}
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+page {
		model.offset = model.cursor - page + 1
	}
	model.offset = max(min(model.offset, n-page), 0)
}

// View draws the heading, status line, grid and key help.
func (model Model) View() string {
	now := model.now()

	if model.loading && len(model.snapshot.Bugs) == 0 && model.snapshot.FetchedAt.IsZero() {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("Loading bugs…") + "\n"
	}

	view := model.table.Render(model.snapshot.Bugs, model.state, now)

	opts := termtable.Options{
		Theme:      model.theme,
		Hyperlinks: model.hyperlinks,
		Selected:   model.cursor,
		Offset:     model.offset,
		Limit:      model.pageSize(),
		Width:      model.width,
	}

	var b strings.Builder
	b.WriteString(termtable.Heading(view, model.theme))
	b.WriteString("\n\n")
	b.WriteString(model.statusLine(now))
	b.WriteString("\n")
	b.WriteString(termtable.Grid(view, opts))
	b.WriteString("\n\n")
	b.WriteString(model.helpLine(view))
	return b.String()
}

func (model Model) statusLine(now time.Time) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var parts []string
	if model.state.OpenOnly {
		parts = append(parts, "open only")
	} else {
		parts = append(parts, "all bugs")
	}

	if !model.snapshot.FetchedAt.IsZero() {
		parts = append(parts, "updated "+humanize.RelTime(model.snapshot.FetchedAt, now, "ago", "from now"))
	}

	switch {
	case model.loading:
		parts = append(parts, "refreshing…")
	case model.snapshot.Stale:
		parts = append(parts, "stale")
	}

	line := faint.Render(strings.Join(parts, " · "))
	if model.err != nil {
		line += "  " + lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).
			Render(fmt.Sprintf("refresh failed: %v", model.err))
	}
	return line
}

func (model Model) helpLine(view table.View) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var parts []string
	for _, binding := range model.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	line := faint.Render(strings.Join(parts, "  "))

	if model.cursor >= 0 && model.cursor < len(view.Rows) {
		for _, cell := range view.Rows[model.cursor].Cells {
			if cell.Link != "" {
				line += "\n" + lipgloss.NewStyle().Foreground(model.theme.LinkForeground).Render(cell.Link)
				break
			}
		}
	}
	return line
}
