// Package dataset holds the in-memory analysis table: named numeric and text
// columns of equal length. Tables are treated as values; every transformation
// returns a new Table and accessors hand out copies.
package dataset

import (
	"math"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// Kind is the storage kind of a column.
type Kind int

const (
	// Numeric columns store float64 values; NaN marks a missing cell.
	Numeric Kind = iota
	// Text columns store strings with a separate validity mask.
	Text
)

func (k Kind) String() string {
	if k == Numeric {
		return "float64"
	}
	return "string"
}

type column struct {
	name  string
	kind  Kind
	num   []float64
	str   []string
	valid []bool
}

func (c *column) missing(i int) bool {
	if c.kind == Numeric {
		return math.IsNaN(c.num[i])
	}
	return !c.valid[i]
}

// Table is an ordered set of equally long named columns.
type Table struct {
	cols  []*column
	index map[string]int
	nrows int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int), nrows: -1}
}

func (t *Table) add(c *column, n int) error {
	if _, dup := t.index[c.name]; dup {
		return errors.NewValidationError("column", "duplicate column name", c.name)
	}
	if t.nrows >= 0 && n != t.nrows {
		return errors.NewDimensionError("Table.Add("+c.name+")", t.nrows, n, 0)
	}
	t.nrows = n
	t.index[c.name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// AddNumeric appends a numeric column. The slice is copied.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.add(&column{name: name, kind: Numeric, num: append([]float64(nil), values...)}, len(values))
}

// AddText appends a text column. A nil valid mask marks every cell present.
func (t *Table) AddText(name string, values []string, valid []bool) error {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	} else if len(valid) != len(values) {
		return errors.NewDimensionError("Table.AddText("+name+")", len(values), len(valid), 0)
	}
	return t.add(&column{
		name:  name,
		kind:  Text,
		str:   append([]string(nil), values...),
		valid: append([]bool(nil), valid...),
	}, len(values))
}

// NRows returns the number of rows.
func (t *Table) NRows() int {
	if t.nrows < 0 {
		return 0
	}
	return t.nrows
}

// NCols returns the number of columns.
func (t *Table) NCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the storage kind of a column.
func (t *Table) Kind(name string) (Kind, error) {
	c, err := t.lookup("Table.Kind", name)
	if err != nil {
		return 0, err
	}
	return c.kind, nil
}

func (t *Table) lookup(op, name string) (*column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewMissingColumnError(op, name)
	}
	return t.cols[i], nil
}

// Numeric returns a copy of a numeric column.
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.lookup("Table.Numeric", name)
	if err != nil {
		return nil, err
	}
	if c.kind != Numeric {
		return nil, errors.NewValueError("Table.Numeric", "column "+name+" is not numeric")
	}
	return append([]float64(nil), c.num...), nil
}

// Text returns copies of a text column and its validity mask.
func (t *Table) Text(name string) ([]string, []bool, error) {
	c, err := t.lookup("Table.Text", name)
	if err != nil {
		return nil, nil, err
	}
	if c.kind != Text {
		return nil, nil, errors.NewValueError("Table.Text", "column "+name+" is not text")
	}
	return append([]string(nil), c.str...), append([]bool(nil), c.valid...), nil
}

// MissingCounts returns the number of missing cells per column, in column order.
func (t *Table) MissingCounts() []int {
	counts := make([]int, len(t.cols))
	for j, c := range t.cols {
		for i := 0; i < t.NRows(); i++ {
			if c.missing(i) {
				counts[j]++
			}
		}
	}
	return counts
}

// RowHasMissing reports whether any cell of row i is missing.
func (t *Table) RowHasMissing(i int) bool {
	for _, c := range t.cols {
		if c.missing(i) {
			return true
		}
	}
	return false
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := New()
	for _, c := range t.cols {
		if skip[c.name] {
			continue
		}
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	if len(out.cols) > 0 {
		out.nrows = t.nrows
	}
	return out
}

// FilterRows returns a table holding the rows where keep is true.
func (t *Table) FilterRows(keep []bool) (*Table, error) {
	if len(keep) != t.NRows() {
		return nil, errors.NewDimensionError("Table.FilterRows", t.NRows(), len(keep), 0)
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := New()
	for _, c := range t.cols {
		nc := &column{name: c.name, kind: c.kind}
		if c.kind == Numeric {
			nc.num = make([]float64, 0, n)
		} else {
			nc.str = make([]string, 0, n)
			nc.valid = make([]bool, 0, n)
		}
		for i, k := range keep {
			if !k {
				continue
			}
			if c.kind == Numeric {
				nc.num = append(nc.num, c.num[i])
			} else {
				nc.str = append(nc.str, c.str[i])
				nc.valid = append(nc.valid, c.valid[i])
			}
		}
		if err := out.add(nc, n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WithText returns a table where column name is replaced by a fully valid
// text column holding values, keeping the column position.
func (t *Table) WithText(name string, values []string) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewMissingColumnError("Table.WithText", name)
	}
	if len(values) != t.NRows() {
		return nil, errors.NewDimensionError("Table.WithText", t.NRows(), len(values), 0)
	}
	valid := make([]bool, len(values))
	for k := range valid {
		valid[k] = true
	}
	out := &Table{index: make(map[string]int, len(t.index)), nrows: t.nrows}
	for k, v := range t.index {
		out.index[k] = v
	}
	out.cols = append([]*column(nil), t.cols...)
	out.cols[i] = &column{name: name, kind: Text, str: append([]string(nil), values...), valid: valid}
	return out, nil
}

// CellString formats cell (i, name) the way the CSV reader would have read it.
// Missing cells return ok == false.
func (t *Table) CellString(name string, i int) (s string, ok bool, err error) {
	c, err := t.lookup("Table.CellString", name)
	if err != nil {
		return "", false, err
	}
	if c.missing(i) {
		return "", false, nil
	}
	if c.kind == Text {
		return c.str[i], true, nil
	}
	return formatFloat(c.num[i]), true, nil
}
