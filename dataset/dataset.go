// Package dataset implements the mutable in-memory tabular store the
// assistant operates on: ordered typed columns with missing-value masks and
// a cached per-column schema that is recomputed after every mutation.
package dataset

import (
	"fmt"
	"strings"
	"time"
)

// DType is the semantic type of a column. Every operation type-checks
// against this enum before executing.
type DType string

const (
	// TypeNumeric marks float-valued columns.
	TypeNumeric DType = "numeric"
	// TypeText marks free-form string columns.
	TypeText DType = "text"
	// TypeDatetime marks timestamp columns.
	TypeDatetime DType = "datetime"
	// TypeCategorical marks low-cardinality string columns.
	TypeCategorical DType = "categorical"
)

// ColumnNotFoundError reports a reference to a column that does not exist.
// The dataset is guaranteed unchanged when this error is returned.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in the dataset", e.Name)
}

// TypeMismatchError reports an operation applied to a column of the wrong
// semantic type.
type TypeMismatchError struct {
	Column string
	Want   string
	Got    DType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q must be %s, got %s", e.Column, e.Want, e.Got)
}

// Column holds one named column. Exactly one of the value slices is active
// depending on Type: Floats for numeric, Strings for text/categorical,
// Times for datetime. Missing runs parallel to the active slice.
type Column struct {
	Name    string
	Type    DType
	Floats  []float64
	Strings []string
	Times   []time.Time
	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Missing) }

// MissingCount counts rows flagged missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// IsNumeric reports whether the column holds numeric values.
func (c *Column) IsNumeric() bool { return c.Type == TypeNumeric }

// IsStringKind reports whether the column holds string values; both text and
// categorical columns qualify for string filters, mode imputation and bar
// charts.
func (c *Column) IsStringKind() bool { return c.Type == TypeText || c.Type == TypeCategorical }

// IsDatetime reports whether the column holds timestamps.
func (c *Column) IsDatetime() bool { return c.Type == TypeDatetime }

// clone deep-copies the column.
func (c *Column) clone() *Column {
	cp := &Column{Name: c.Name, Type: c.Type}
	if c.Floats != nil {
		cp.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Strings != nil {
		cp.Strings = append([]string(nil), c.Strings...)
	}
	if c.Times != nil {
		cp.Times = append([]time.Time(nil), c.Times...)
	}
	cp.Missing = append([]bool(nil), c.Missing...)
	return cp
}

// keep retains only the rows where mask is true.
func (c *Column) keep(mask []bool) {
	w := 0
	for i, k := range mask {
		if !k {
			continue
		}
		if c.Floats != nil {
			c.Floats[w] = c.Floats[i]
		}
		if c.Strings != nil {
			c.Strings[w] = c.Strings[i]
		}
		if c.Times != nil {
			c.Times[w] = c.Times[i]
		}
		c.Missing[w] = c.Missing[i]
		w++
	}
	if c.Floats != nil {
		c.Floats = c.Floats[:w]
	}
	if c.Strings != nil {
		c.Strings = c.Strings[:w]
	}
	if c.Times != nil {
		c.Times = c.Times[:w]
	}
	c.Missing = c.Missing[:w]
}

// ColumnMeta is the cached schema entry for one column. It is derived state
// owned by the dataset and recomputed on every mutation, never mutated
// independently.
type ColumnMeta struct {
	Name    string `json:"name"`
	Type    DType  `json:"dtype"`
	Missing int    `json:"missing_count"`
}

// Dataset is an ordered set of named typed columns. It is not safe for
// concurrent use; callers serialize access per session.
type Dataset struct {
	cols []*Column
	meta []ColumnMeta
}

// New builds a dataset from pre-typed columns. All columns must have equal
// length.
func New(cols []*Column) (*Dataset, error) {
	if len(cols) > 0 {
		n := cols[0].Len()
		for _, c := range cols[1:] {
			if c.Len() != n {
				return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
			}
		}
	}
	d := &Dataset{cols: cols}
	d.refreshMeta()
	return d, nil
}

// Rows returns the current row count.
func (d *Dataset) Rows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return d.cols[0].Len()
}

// ColumnNames returns the ordered column names.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or a ColumnNotFoundError.
func (d *Dataset) Column(name string) (*Column, error) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, &ColumnNotFoundError{Name: name}
}

// Metadata returns a snapshot of the schema cache.
func (d *Dataset) Metadata() []ColumnMeta {
	out := make([]ColumnMeta, len(d.meta))
	copy(out, d.meta)
	return out
}

// Meta returns the cached schema entry for one column.
func (d *Dataset) Meta(name string) (ColumnMeta, error) {
	for _, m := range d.meta {
		if m.Name == name {
			return m, nil
		}
	}
	return ColumnMeta{}, &ColumnNotFoundError{Name: name}
}

// DatetimeColumns returns the names of all datetime columns.
func (d *Dataset) DatetimeColumns() []string {
	var names []string
	for _, c := range d.cols {
		if c.IsDatetime() {
			names = append(names, c.Name)
		}
	}
	return names
}

// refreshMeta recomputes the schema cache. Every mutating operation calls
// this before returning so the cache is never read stale.
func (d *Dataset) refreshMeta() {
	d.meta = make([]ColumnMeta, len(d.cols))
	for i, c := range d.cols {
		d.meta[i] = ColumnMeta{Name: c.Name, Type: c.Type, Missing: c.MissingCount()}
	}
}

// RefreshMeta recomputes the schema cache. Exposed so the dispatcher can
// enforce the cache invariant after handler-driven mutations.
func (d *Dataset) RefreshMeta() { d.refreshMeta() }

// Clone returns a deep copy safe for independent mutation. The dispatcher
// mutates a clone and commits it back only on success.
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.clone()
	}
	cp := &Dataset{cols: cols}
	cp.refreshMeta()
	return cp
}

// ReplaceWith commits the contents of other into the receiver. Used to apply
// a successfully mutated clone in one step.
func (d *Dataset) ReplaceWith(other *Dataset) {
	d.cols = other.cols
	d.refreshMeta()
}

// keepRows applies a row mask to every column and refreshes the schema cache.
func (d *Dataset) keepRows(mask []bool) {
	for _, c := range d.cols {
		c.keep(mask)
	}
	d.refreshMeta()
}

// numericValues returns the non-missing values of a numeric column.
func (c *Column) numericValues() []float64 {
	out := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// looksLikeIdentifier reports whether a column name refers to an id or index
// column; such columns are excluded from correlation analysis.
func looksLikeIdentifier(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "id") || strings.Contains(lower, "index")
}
