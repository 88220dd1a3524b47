package view

import (
	"strconv"
	"strings"

	"attenddash/internal/backend"
)

// Display defaults. The "Present" status is a display default the backend is
// trusted to override, not an attendance rule.
const (
	Placeholder   = "—"
	DefaultStatus = "Present"
	EmptyMessage  = "No attendance records found."
)

// Accepted field aliases per display column, in resolution order. Backends
// differ in what they call the same value; the first alias present wins.
var (
	nameAliases   = []string{"name", "user"}
	idAliases     = []string{"user_id", "id", "attendance_id"}
	timeAliases   = []string{"time", "timestamp", "date"}
	statusAliases = []string{"status", "status_type"}
)

// Row is the display projection of one attendance record.
type Row struct {
	Index  int
	Name   string
	ID     string
	Time   string
	Status string
	Hidden bool
}

// Table is one rendered record set. Empty marks the placeholder-row case so
// templates never render zero rows silently.
type Table struct {
	Rows  []Row
	Empty bool
}

// Build projects a record set into display rows, one per record in input
// order, 1-indexed. It never mutates the records and is idempotent: equal
// input produces an equal table.
func Build(records []backend.Record) Table {
	if len(records) == 0 {
		return Table{Empty: true}
	}
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Row{
			Index:  i + 1,
			Name:   resolveName(rec),
			ID:     resolve(rec, idAliases, Placeholder),
			Time:   resolve(rec, timeAliases, Placeholder),
			Status: resolve(rec, statusAliases, DefaultStatus),
		})
	}
	return Table{Rows: rows}
}

// Filter returns a copy of the table with rows hidden unless their name cell
// contains q case-insensitively. The empty query shows every row. Purely
// local: no record set is refetched.
func (t Table) Filter(q string) Table {
	q = strings.ToLower(q)
	out := Table{Rows: make([]Row, len(t.Rows)), Empty: t.Empty}
	copy(out.Rows, t.Rows)
	for i := range out.Rows {
		out.Rows[i].Hidden = !strings.Contains(strings.ToLower(out.Rows[i].Name), q)
	}
	return out
}

// Visible returns the rows left showing after any filtering.
func (t Table) Visible() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Hidden {
			out = append(out, r)
		}
	}
	return out
}

// resolveName handles the split first_name/last_name shape some backends use
// on top of the plain aliases.
func resolveName(rec backend.Record) string {
	if v := resolve(rec, nameAliases, ""); v != "" {
		return v
	}
	first := cellText(rec["first_name"])
	last := cellText(rec["last_name"])
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return Placeholder
}

func resolve(rec backend.Record, aliases []string, fallback string) string {
	for _, alias := range aliases {
		if v := cellText(rec[alias]); v != "" {
			return v
		}
	}
	return fallback
}

// cellText renders a decoded JSON value for display. Numbers arrive as
// float64 and must not pick up an exponent or trailing zeros.
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
