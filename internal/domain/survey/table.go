package survey

import (
	"sort"
	"strings"
)

// AllValue is the filter choice meaning "no restriction".
const AllValue = "Semua"

// Cell is a single response value. A cell that is not Present is the
// missing marker; Numeric cells carry a parsed Number.
type Cell struct {
	Raw     string
	Present bool
	Numeric bool
	Number  float64
}

// TextCell builds a cell from a raw CSV field. Blank fields are missing.
func TextCell(raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return Cell{Raw: raw}
	}
	return Cell{Raw: raw, Present: true}
}

// MissingCell is the missing marker.
func MissingCell() Cell {
	return Cell{}
}

// Row holds cells aligned with Table.Columns.
type Row []Cell

// Table is a loaded, normalized survey snapshot. Tables are read-only once
// returned by the loader; Filter shares rows with its parent.
type Table struct {
	Columns     []string
	Rows        []Row
	Fingerprint string
	Encoding    string

	index map[string]int
}

// NewTable builds a table and its column index.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		if _, exists := t.index[col]; !exists {
			t.index[col] = i
		}
	}
}

// Len reports the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether a column with the exact name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	if t.index == nil {
		t.reindex()
	}
	idx, ok := t.index[name]
	return idx, ok
}

// Cell returns the value at row i for the named column; missing when the
// column is absent.
func (t *Table) Cell(i int, column string) Cell {
	idx, ok := t.ColumnIndex(column)
	if !ok || i < 0 || i >= len(t.Rows) {
		return MissingCell()
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return MissingCell()
	}
	return row[idx]
}

// Distinct returns the sorted distinct present values of a column.
func (t *Table) Distinct(column string) []string {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range t.Rows {
		if idx >= len(row) || !row[idx].Present {
			continue
		}
		v := row[idx].Raw
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filters are exact-equality predicates keyed by column name.
type Filters map[string]string

// Active drops no-op entries: empty values and the AllValue sentinel.
func (f Filters) Active() Filters {
	out := make(Filters, len(f))
	for col, value := range f {
		if value == "" || value == AllValue {
			continue
		}
		out[col] = value
	}
	return out
}

// Filter returns the rows matching every active filter. A filter naming an
// absent column is ignored.
func (t *Table) Filter(filters Filters) *Table {
	type predicate struct {
		idx   int
		value string
	}
	preds := make([]predicate, 0, len(filters))
	for col, value := range filters.Active() {
		idx, ok := t.ColumnIndex(col)
		if !ok {
			continue
		}
		preds = append(preds, predicate{idx: idx, value: value})
	}
	if len(preds) == 0 {
		return t
	}
	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		pass := true
		for _, p := range preds {
			if p.idx >= len(row) || !row[p.idx].Present || row[p.idx].Raw != p.value {
				pass = false
				break
			}
		}
		if pass {
			rows = append(rows, row)
		}
	}
	return &Table{
		Columns:     t.Columns,
		Rows:        rows,
		Fingerprint: t.Fingerprint,
		Encoding:    t.Encoding,
		index:       t.index,
	}
}
