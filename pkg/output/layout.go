package output

import (
	"fmt"
	"strings"
)

// Column is a display column with a fixed print width.
type Column struct {
	Title string
	Width int
}

// Layout arranges columns within a fixed line budget. Columns are admitted
// left to right while their width plus one separator space still fits; the
// rest are dropped. The last admitted column stretches over whatever budget
// remains on the line.
type Layout struct {
	columns  []Column
	maxWidth int
}

func NewLayout(maxWidth int, columns []Column) *Layout {
	l := &Layout{maxWidth: maxWidth}

	used := 0
	for _, c := range columns {
		if used+c.Width+1 > maxWidth {
			break
		}
		used += c.Width + 1
		l.columns = append(l.columns, c)
	}

	if n := len(l.columns); n > 0 {
		usedBefore := used - (l.columns[n-1].Width + 1)
		l.columns[n-1].Width = maxWidth - usedBefore
	}

	return l
}

// Columns returns the admitted columns with their effective widths.
func (l *Layout) Columns() []Column {
	return l.columns
}

// HeaderRow formats the column titles as a row.
func (l *Layout) HeaderRow() string {
	titles := make([]string, len(l.columns))
	for i, c := range l.columns {
		titles[i] = c.Title
	}
	return l.Row(titles)
}

// Row formats one line of values. Values are padded or clipped to their
// column width; values past the admitted columns are discarded.
func (l *Layout) Row(values []string) string {
	var b strings.Builder
	for i, c := range l.columns {
		var v string
		if i < len(values) {
			v = values[i]
		}
		if len(v) > c.Width {
			v = clip(v, c.Width)
		}
		if i == len(l.columns)-1 {
			b.WriteString(v)
		} else {
			fmt.Fprintf(&b, "%-*s ", c.Width, v)
		}
	}
	return b.String()
}

func clip(s string, width int) string {
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
