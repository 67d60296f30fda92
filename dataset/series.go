package dataset

// NumericValues returns the observed values of a numeric column.
func (d *Dataset) NumericValues(column string) ([]float64, error) {
	c, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	return c.numericValues(), nil
}

// NumericSeries returns the observed values of a numeric column together
// with their row indices, for index-vs-value plotting.
func (d *Dataset) NumericSeries(column string) (indices []int, values []float64, err error) {
	c, err := d.Column(column)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsNumeric() {
		return nil, nil, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	for i := range c.Missing {
		if !c.Missing[i] {
			indices = append(indices, i)
			values = append(values, c.Floats[i])
		}
	}
	return indices, values, nil
}

// NumericPairs returns the (x, y) pairs over rows where both numeric
// columns are observed.
func (d *Dataset) NumericPairs(xColumn, yColumn string) ([][2]float64, error) {
	x, err := d.Column(xColumn)
	if err != nil {
		return nil, err
	}
	y, err := d.Column(yColumn)
	if err != nil {
		return nil, err
	}
	if !x.IsNumeric() {
		return nil, &TypeMismatchError{Column: xColumn, Want: "numeric", Got: x.Type}
	}
	if !y.IsNumeric() {
		return nil, &TypeMismatchError{Column: yColumn, Want: "numeric", Got: y.Type}
	}
	var pairs [][2]float64
	for i := range x.Missing {
		if !x.Missing[i] && !y.Missing[i] {
			pairs = append(pairs, [2]float64{x.Floats[i], y.Floats[i]})
		}
	}
	return pairs, nil
}
