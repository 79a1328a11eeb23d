package table

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielolaszy/bugtable/pkg/models"
)

// Column keys, matching the bug record's JSON attribute names.
const (
	ColumnID           = "id"
	ColumnSummary      = "summary"
	ColumnStatus       = "status"
	ColumnResolution   = "resolution"
	ColumnProduct      = "product"
	ColumnComponent    = "component"
	ColumnCreationTime = "creation_time"
)

// Column describes one table column: the attribute it shows, its header, the
// raw value rows are sorted by and how a cell is displayed.
type Column struct {
	Key    string
	Header string

	// Link marks the column whose cells point at the issue-detail page.
	Link bool

	value func(models.Bug) any
	text  func(models.Bug, time.Time) string
}

var columns = []Column{
	{
		Key:    ColumnID,
		Header: "ID",
		Link:   true,
		value:  func(b models.Bug) any { return b.ID },
		text: func(b models.Bug, _ time.Time) string {
			if b.ID == 0 {
				return ""
			}
			return strconv.Itoa(b.ID)
		},
	},
	stringColumn(ColumnSummary, "Summary", func(b models.Bug) string { return b.Summary }),
	stringColumn(ColumnStatus, "Status", func(b models.Bug) string { return b.Status }),
	stringColumn(ColumnResolution, "Resolution", func(b models.Bug) string { return b.Resolution }),
	stringColumn(ColumnProduct, "Product", func(b models.Bug) string { return b.Product }),
	stringColumn(ColumnComponent, "Component", func(b models.Bug) string { return b.Component }),
	{
		Key:    ColumnCreationTime,
		Header: "Age",
		value:  func(b models.Bug) any { return b.CreationTime },
		text: func(b models.Bug, now time.Time) string {
			return Age(b.CreationTime, now)
		},
	},
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(columns))
	for i, c := range columns {
		m[c.Key] = i
	}
	return m
}()

func stringColumn(key, header string, get func(models.Bug) string) Column {
	return Column{
		Key:    key,
		Header: header,
		value:  func(b models.Bug) any { return get(b) },
		text:   func(b models.Bug, _ time.Time) string { return get(b) },
	}
}

// Columns returns the column definitions in display order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// Age renders how long ago t was, without a suffix ("3 days", "1 month").
// The zero time renders blank.
func Age(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strings.TrimSpace(humanize.RelTime(t, now, "", ""))
}

// compareValues orders two raw column values of the same column.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case int:
		return cmp.Compare(x, b.(int))
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	default:
		return 0
	}
}
