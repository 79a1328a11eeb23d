package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/table"
	"github.com/danielolaszy/bugtable/pkg/models"
)

var now = time.Date(2016, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeRefresher struct {
	snapshot loader.Snapshot
	err      error
	calls    int
}

func (f *fakeRefresher) Refresh(context.Context) (loader.Snapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

func testBugs() []models.Bug {
	return []models.Bug{
		{ID: 3, Summary: "Grid gap ignored", Status: "NEW", IsOpen: true, Product: "Core"},
		{ID: 1, Summary: "Closed long ago", Status: "RESOLVED", Resolution: "WONTFIX", Product: "Firefox"},
		{ID: 2, Summary: "Scrollbar flicker", Status: "ASSIGNED", IsOpen: true, Product: "Core"},
	}
}

func testTable() *table.Table {
	return table.New("DevAdvocacy Bugs", func(id int) string {
		return fmt.Sprintf("https://bugzilla.mozilla.org/show_bug.cgi?id=%d", id)
	})
}

func newModel(start loader.Start, refresher Refresher) Model {
	return New(context.Background(), testTable(), refresher, start, WithClock(func() time.Time { return now }))
}

func freshStart() loader.Start {
	return loader.Start{
		Plan:   loader.PlanServeFresh,
		Cached: loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-time.Hour)},
	}
}

func press(t *testing.T, model Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var message tea.KeyMsg
		switch k {
		case "up":
			message = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			message = tea.KeyMsg{Type: tea.KeyDown}
		default:
			message = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := model.Update(message)
		model = updated.(Model)
	}
	return model
}

func TestInitFreshCacheDoesNotFetch(t *testing.T) {
	refresher := &fakeRefresher{}
	model := newModel(freshStart(), refresher)

	assert.Nil(t, model.Init())
	assert.Equal(t, 0, refresher.calls)
	assert.Contains(t, ansi.Strip(model.View()), "DevAdvocacy Bugs (Open: 2 / 3)")
}

func TestInitStaleCacheRefreshes(t *testing.T) {
	refresher := &fakeRefresher{snapshot: loader.Snapshot{
		Bugs:      []models.Bug{{ID: 9, Summary: "Brand new", IsOpen: true}},
		FetchedAt: now,
	}}
	start := loader.Start{
		Plan:   loader.PlanServeStale,
		Cached: loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-25 * time.Hour), Stale: true},
	}
	model := newModel(start, refresher)

	view := ansi.Strip(model.View())
	assert.Contains(t, view, "Grid gap ignored")
	assert.Contains(t, view, "refreshing")

	cmd := model.Init()
	require.NotNil(t, cmd)
	updated, _ := model.Update(cmd())
	model = updated.(Model)

	assert.Equal(t, 1, refresher.calls)
	view = ansi.Strip(model.View())
	assert.Contains(t, view, "Brand new")
	assert.NotContains(t, view, "Grid gap ignored")
	assert.NotContains(t, view, "refreshing")
}

func TestInitNoCacheShowsLoading(t *testing.T) {
	refresher := &fakeRefresher{snapshot: loader.Snapshot{Bugs: testBugs(), FetchedAt: now}}
	model := newModel(loader.Start{Plan: loader.PlanFetch}, refresher)

	assert.Contains(t, model.View(), "Loading bugs")

	cmd := model.Init()
	require.NotNil(t, cmd)
	updated, _ := model.Update(cmd())
	model = updated.(Model)
	assert.Contains(t, ansi.Strip(model.View()), "Scrollbar flicker")
}

func TestRefreshFailureKeepsStaleData(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("HTTP 503")}
	start := loader.Start{
		Plan:   loader.PlanServeStale,
		Cached: loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-48 * time.Hour), Stale: true},
	}
	model := newModel(start, refresher)

	updated, _ := model.Update(model.Init()())
	model = updated.(Model)

	view := ansi.Strip(model.View())
	assert.Contains(t, view, "Grid gap ignored")
	assert.Contains(t, view, "refresh failed: HTTP 503")
	assert.Contains(t, view, "stale")
}

func TestToggleOpenOnly(t *testing.T) {
	model := newModel(freshStart(), &fakeRefresher{})
	assert.True(t, model.State().OpenOnly)
	assert.NotContains(t, ansi.Strip(model.View()), "Closed long ago")

	model = press(t, model, "o")
	assert.False(t, model.State().OpenOnly)
	view := ansi.Strip(model.View())
	assert.Contains(t, view, "Closed long ago")
	assert.Contains(t, view, "DevAdvocacy Bugs (Open: 2 / 3)")

	model = press(t, model, " ")
	assert.True(t, model.State().OpenOnly)
}

func TestSortKeys(t *testing.T) {
	model := newModel(freshStart(), &fakeRefresher{})

	model = press(t, model, "1")
	assert.Equal(t, table.Sort{Column: table.ColumnID, Direction: table.Ascending}, model.State().Sort)

	model = press(t, model, "1")
	assert.Equal(t, table.Sort{Column: table.ColumnID, Direction: table.Descending}, model.State().Sort)

	model = press(t, model, "2")
	assert.Equal(t, table.Sort{Column: table.ColumnSummary, Direction: table.Ascending}, model.State().Sort)

	model = press(t, model, "7")
	assert.Equal(t, table.ColumnCreationTime, model.State().Sort.Column)
}

func TestCursorMovement(t *testing.T) {
	model := newModel(freshStart(), &fakeRefresher{})

	model = press(t, model, "up")
	assert.Equal(t, 0, model.Cursor())

	model = press(t, model, "down", "down", "down")
	assert.Equal(t, 1, model.Cursor(), "cursor stops at the last open row")

	model = press(t, model, "o", "G")
	assert.Equal(t, 2, model.Cursor())

	model = press(t, model, "o")
	assert.Equal(t, 1, model.Cursor(), "cursor is clamped when rows disappear")

	model = press(t, model, "k")
	assert.Equal(t, 0, model.Cursor())
	assert.Contains(t, ansi.Strip(model.View()), "https://bugzilla.mozilla.org/show_bug.cgi?id=3")
}

func TestRefreshKey(t *testing.T) {
	refresher := &fakeRefresher{snapshot: loader.Snapshot{Bugs: testBugs()[:1], FetchedAt: now}}
	model := newModel(freshStart(), refresher)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	model = updated.(Model)
	require.NotNil(t, cmd)

	_, again := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again, "no second refresh while one is running")

	updated, _ = model.Update(cmd())
	model = updated.(Model)
	assert.Equal(t, 1, refresher.calls)
	assert.Contains(t, ansi.Strip(model.View()), "Open: 1 / 1")
}

func TestWindowResizeScrolls(t *testing.T) {
	bugs := make([]models.Bug, 30)
	for i := range bugs {
		bugs[i] = models.Bug{ID: i + 1, Summary: fmt.Sprintf("bug %02d", i+1), IsOpen: true}
	}
	start := loader.Start{Plan: loader.PlanServeFresh, Cached: loader.Snapshot{Bugs: bugs, FetchedAt: now}}
	model := newModel(start, &fakeRefresher{})

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 15})
	model = updated.(Model)
	model = press(t, model, "G")

	view := ansi.Strip(model.View())
	assert.Contains(t, view, "bug 30")
	assert.NotContains(t, view, "bug 01")
}

func TestQuit(t *testing.T) {
	model := newModel(freshStart(), &fakeRefresher{})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
