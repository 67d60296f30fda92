package dataset

import (
	"fmt"
	"strings"
	"time"
)

// FilterNumeric keeps the rows where the numeric column satisfies the
// comparison. Supported operators: > < = >= <=. Returns row counts before
// and after filtering. Missing rows never satisfy a comparison.
func (d *Dataset) FilterNumeric(column, op string, value float64) (before, after int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, 0, err
	}
	if !c.IsNumeric() {
		return 0, 0, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}

	var cmp func(float64) bool
	switch op {
	case ">":
		cmp = func(v float64) bool { return v > value }
	case "<":
		cmp = func(v float64) bool { return v < value }
	case "=":
		cmp = func(v float64) bool { return v == value }
	case ">=":
		cmp = func(v float64) bool { return v >= value }
	case "<=":
		cmp = func(v float64) bool { return v <= value }
	default:
		return 0, 0, fmt.Errorf("invalid comparison operator %q, use one of > < = >= <=", op)
	}

	before = d.Rows()
	mask := make([]bool, before)
	for i := range mask {
		mask[i] = !c.Missing[i] && cmp(c.Floats[i])
	}
	d.keepRows(mask)
	return before, d.Rows(), nil
}

// FilterString keeps (or excludes, when include is false) the rows where the
// string column starts with or equals filter.
func (d *Dataset) FilterString(column, filter string, include bool) (before, after int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, 0, err
	}
	if !c.IsStringKind() {
		return 0, 0, &TypeMismatchError{Column: column, Want: "text or categorical", Got: c.Type}
	}

	before = d.Rows()
	mask := make([]bool, before)
	for i := range mask {
		match := !c.Missing[i] && (strings.HasPrefix(c.Strings[i], filter) || c.Strings[i] == filter)
		mask[i] = match == include
	}
	d.keepRows(mask)
	return before, d.Rows(), nil
}

// FilterDatePart keeps the rows where the given part (year, month or day) of
// a datetime column equals value.
func (d *Dataset) FilterDatePart(column, part string, value int) (before, after int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, 0, err
	}
	if !c.IsDatetime() {
		return 0, 0, &TypeMismatchError{Column: column, Want: "datetime", Got: c.Type}
	}

	var pick func(time.Time) int
	switch part {
	case "year":
		pick = func(t time.Time) int { return t.Year() }
	case "month":
		pick = func(t time.Time) int { return int(t.Month()) }
	case "day":
		pick = func(t time.Time) int { return t.Day() }
	default:
		return 0, 0, fmt.Errorf("invalid date part %q, use one of year, month, day", part)
	}

	before = d.Rows()
	mask := make([]bool, before)
	for i := range mask {
		mask[i] = !c.Missing[i] && pick(c.Times[i]) == value
	}
	d.keepRows(mask)
	return before, d.Rows(), nil
}

// FilterDateRange keeps the rows where the datetime column falls within
// [start, end] inclusive, returning the first and last remaining dates.
func (d *Dataset) FilterDateRange(column string, start, end time.Time) (first, last time.Time, err error) {
	c, err := d.Column(column)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !c.IsDatetime() {
		return time.Time{}, time.Time{}, &TypeMismatchError{Column: column, Want: "datetime", Got: c.Type}
	}

	mask := make([]bool, d.Rows())
	for i := range mask {
		if c.Missing[i] {
			continue
		}
		t := c.Times[i]
		mask[i] = !t.Before(start) && !t.After(end)
	}
	d.keepRows(mask)

	for i := range c.Missing {
		if c.Missing[i] {
			continue
		}
		t := c.Times[i]
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	return first, last, nil
}

// DropColumn removes a named column. The dataset is unchanged when the
// column does not exist.
func (d *Dataset) DropColumn(name string) error {
	for i, c := range d.cols {
		if c.Name == name {
			d.cols = append(d.cols[:i], d.cols[i+1:]...)
			d.refreshMeta()
			return nil
		}
	}
	return &ColumnNotFoundError{Name: name}
}
