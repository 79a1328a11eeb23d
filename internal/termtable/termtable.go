// Package termtable draws a table.View for a terminal.
package termtable

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/danielolaszy/bugtable/internal/table"
)

// Theme is the color palette used for terminal output. Colors are ANSI
// 256-color codes.
type Theme struct {
	Heading            lipgloss.Color
	HeaderForeground   lipgloss.Color
	NormalText         lipgloss.Color
	FaintText          lipgloss.Color
	LinkForeground     lipgloss.Color
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color
	BorderColor        lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	Heading:            lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("110"),
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	LinkForeground:     lipgloss.Color("75"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	BorderColor:        lipgloss.Color("240"),
}

// Options controls how a view is drawn.
type Options struct {
	Theme Theme

	// Hyperlinks wraps linked cells in OSC 8 escape sequences so that
	// supporting terminals make them clickable.
	Hyperlinks bool

	// Selected is the index into view.Rows of the highlighted row, or -1.
	Selected int

	// Offset and Limit select the window of rows to draw. A zero Limit
	// draws every row from Offset on.
	Offset int
	Limit  int

	// Width caps the table width. Zero leaves it unconstrained.
	Width int
}

// DefaultOptions draws every row, no selection, no hyperlinks.
func DefaultOptions() Options {
	return Options{Theme: DefaultTheme, Selected: -1}
}

// EmptyMessage is shown in place of the grid when no row is visible.
const EmptyMessage = "No bugs to show."

// Render returns the heading line followed by the grid.
func Render(view table.View, opts Options) string {
	var b strings.Builder
	b.WriteString(Heading(view, opts.Theme))
	b.WriteString("\n\n")
	b.WriteString(Grid(view, opts))
	return b.String()
}

// Heading renders the title line with open and total counts.
func Heading(view table.View, theme Theme) string {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.Heading).Render(view.Heading)
}

// Grid renders the header row and the visible window of rows.
func Grid(view table.View, opts Options) string {
	if len(view.Rows) == 0 {
		return lipgloss.NewStyle().Foreground(opts.Theme.FaintText).Render(EmptyMessage)
	}

	start, end := Window(len(view.Rows), opts.Offset, opts.Limit)
	rows := view.Rows[start:end]

	headers := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		headers[i] = HeaderLabel(h)
	}

	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			data[i][j] = cellText(cell, opts.Hyperlinks)
		}
	}

	theme := opts.Theme
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(theme.NormalText).Padding(0, 1)
	faintStyle := cellStyle.Foreground(theme.FaintText).Faint(true)
	selectedStyle := cellStyle.Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)

	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.BorderColor)).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(rows) {
				return cellStyle
			}
			style := cellStyle
			if !rows[row].Open {
				style = faintStyle
			}
			if start+row == opts.Selected {
				style = selectedStyle
			}
			if col < len(rows[row].Cells) && rows[row].Cells[col].Link != "" && start+row != opts.Selected {
				style = style.Foreground(theme.LinkForeground).Underline(true)
			}
			return style
		})
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}

	return t.String()
}

// HeaderLabel is the column label with an arrow on the sorted column.
func HeaderLabel(h table.Header) string {
	switch h.Sort {
	case table.Ascending:
		return h.Label + " ▲"
	case table.Descending:
		return h.Label + " ▼"
	default:
		return h.Label
	}
}

// Window clamps offset and limit to a collection of n rows and returns the
// half-open range to draw.
func Window(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func cellText(cell table.Cell, hyperlinks bool) string {
	if !hyperlinks || cell.Link == "" || cell.Text == "" {
		return cell.Text
	}
	return fmt.Sprintf("%s%s%s", ansi.SetHyperlink(cell.Link), cell.Text, ansi.ResetHyperlink())
}
