// Package table turns a bug collection and the user's view state into a
// renderable grid. Everything here is pure: the same inputs always produce
// the same View, and the input collection is never modified.
package table

import (
	"fmt"
	"slices"
	"time"

	"github.com/danielolaszy/bugtable/pkg/models"
)

// Cell is one displayed value. Link is set for cells that point at a page.
type Cell struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Row is one displayed bug.
type Row struct {
	ID    int    `json:"id"`
	Open  bool   `json:"open"`
	Cells []Cell `json:"cells"`
}

// Header is one column header together with its sort marker.
type Header struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Sort  Direction `json:"sort"`
}

// View is the complete description of what to draw.
type View struct {
	Heading  string   `json:"heading"`
	Open     int      `json:"open"`
	Total    int      `json:"total"`
	OpenOnly bool     `json:"open_only"`
	Headers  []Header `json:"headers"`
	Rows     []Row    `json:"rows"`
}

// Table renders bug collections.
type Table struct {
	title     string
	detailURL func(id int) string
}

// New creates a Table. detailURL maps a bug id to its issue-detail page and
// may be nil, in which case id cells carry no link.
func New(title string, detailURL func(id int) string) *Table {
	return &Table{title: title, detailURL: detailURL}
}

// Heading formats the title line with open and total counts.
func (t *Table) Heading(open, total int) string {
	if t.title == "" {
		return fmt.Sprintf("Open: %d / %d", open, total)
	}
	return fmt.Sprintf("%s (Open: %d / %d)", t.title, open, total)
}

// Render filters and sorts bugs according to state and formats every cell.
// Counts in the heading always describe the unfiltered collection.
func (t *Table) Render(bugs []models.Bug, state State, now time.Time) View {
	open := models.OpenCount(bugs)

	view := View{
		Heading:  t.Heading(open, len(bugs)),
		Open:     open,
		Total:    len(bugs),
		OpenOnly: state.OpenOnly,
		Headers:  make([]Header, len(columns)),
		Rows:     make([]Row, 0, len(bugs)),
	}

	for i, c := range columns {
		view.Headers[i] = Header{Key: c.Key, Label: c.Header}
		if state.Sort.Active() && state.Sort.Column == c.Key {
			view.Headers[i].Sort = state.Sort.Direction
		}
	}

	for _, b := range Visible(bugs, state) {
		row := Row{ID: b.ID, Open: b.IsOpen, Cells: make([]Cell, len(columns))}
		for i, c := range columns {
			cell := Cell{Text: c.text(b, now)}
			if c.Link && t.detailURL != nil && b.ID != 0 {
				cell.Link = t.detailURL(b.ID)
			}
			row.Cells[i] = cell
		}
		view.Rows = append(view.Rows, row)
	}

	return view
}

// Visible returns the bugs shown under state: open ones only when the filter
// is on, stably ordered by the sort column. The input slice is left untouched.
func Visible(bugs []models.Bug, state State) []models.Bug {
	out := make([]models.Bug, 0, len(bugs))
	for _, b := range bugs {
		if state.OpenOnly && !b.IsOpen {
			continue
		}
		out = append(out, b)
	}

	if !state.Sort.Active() {
		return out
	}
	idx, ok := columnIndex[state.Sort.Column]
	if !ok {
		return out
	}

	value := columns[idx].value
	descending := state.Sort.Direction == Descending
	slices.SortStableFunc(out, func(a, b models.Bug) int {
		c := compareValues(value(a), value(b))
		if descending {
			return -c
		}
		return c
	})

	return out
}
