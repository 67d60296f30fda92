package dataset

import (
	"fmt"
	"math"
	"sort"
)

// ImputeMeanMedian fills the missing cells of a numeric column with its mean
// or median. Returns the fill value and the number of cells filled.
func (d *Dataset) ImputeMeanMedian(column, strategy string) (fill float64, filled int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, 0, err
	}
	if !c.IsNumeric() {
		return 0, 0, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	values := c.numericValues()
	if len(values) == 0 {
		return 0, 0, fmt.Errorf("column %q has no observed values to impute from", column)
	}

	switch strategy {
	case "mean":
		fill = mean(values)
	case "median":
		fill = median(values)
	default:
		return 0, 0, fmt.Errorf("invalid strategy %q, use mean or median", strategy)
	}

	for i := range c.Missing {
		if c.Missing[i] {
			c.Floats[i] = fill
			c.Missing[i] = false
			filled++
		}
	}
	d.refreshMeta()
	return fill, filled, nil
}

// ImputeMode fills the missing cells of a categorical or text column with
// its most frequent value.
func (d *Dataset) ImputeMode(column string) (mode string, filled int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return "", 0, err
	}
	if !c.IsStringKind() {
		return "", 0, &TypeMismatchError{Column: column, Want: "text or categorical", Got: c.Type}
	}

	counts := map[string]int{}
	for i, v := range c.Strings {
		if !c.Missing[i] {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", 0, fmt.Errorf("column %q has no observed values to impute from", column)
	}
	best := -1
	for v, n := range counts {
		if n > best || (n == best && v < mode) {
			best, mode = n, v
		}
	}

	for i := range c.Missing {
		if c.Missing[i] {
			c.Strings[i] = mode
			c.Missing[i] = false
			filled++
		}
	}
	d.refreshMeta()
	return mode, filled, nil
}

// ImputePlaceholder fills the missing cells of a string column with a fixed
// placeholder value.
func (d *Dataset) ImputePlaceholder(column, placeholder string) (filled int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, err
	}
	if !c.IsStringKind() {
		return 0, &TypeMismatchError{Column: column, Want: "text or categorical", Got: c.Type}
	}
	for i := range c.Missing {
		if c.Missing[i] {
			c.Strings[i] = placeholder
			c.Missing[i] = false
			filled++
		}
	}
	d.refreshMeta()
	return filled, nil
}

// Fill propagates the previous (forward) or next (backward) observed value
// into missing cells. Works on any column type; leading (or trailing) runs
// with no observed neighbor stay missing.
func (d *Dataset) Fill(column, direction string) (filled int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, err
	}
	n := c.Len()

	copyCell := func(dst, src int) {
		switch {
		case c.Floats != nil:
			c.Floats[dst] = c.Floats[src]
		case c.Times != nil:
			c.Times[dst] = c.Times[src]
		default:
			c.Strings[dst] = c.Strings[src]
		}
		c.Missing[dst] = false
		filled++
	}

	switch direction {
	case "forward":
		last := -1
		for i := 0; i < n; i++ {
			if !c.Missing[i] {
				last = i
			} else if last >= 0 {
				copyCell(i, last)
			}
		}
	case "backward":
		next := -1
		for i := n - 1; i >= 0; i-- {
			if !c.Missing[i] {
				next = i
			} else if next >= 0 {
				copyCell(i, next)
			}
		}
	default:
		return 0, fmt.Errorf("invalid direction %q, use forward or backward", direction)
	}
	d.refreshMeta()
	return filled, nil
}

// Interpolate estimates the missing cells of a numeric column from its
// observed neighbors. Linear interpolation fills between bracketing observed
// values and extends the last observed value forward; polynomial fits a
// least-squares quadratic over the observed points and evaluates it at the
// missing positions.
func (d *Dataset) Interpolate(column, method string) (filled int, err error) {
	c, err := d.Column(column)
	if err != nil {
		return 0, err
	}
	if !c.IsNumeric() {
		return 0, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}

	var xs, ys []float64
	for i := range c.Missing {
		if !c.Missing[i] {
			xs = append(xs, float64(i))
			ys = append(ys, c.Floats[i])
		}
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("column %q needs at least two observed values to interpolate", column)
	}

	var estimate func(x float64) (float64, bool)
	switch method {
	case "linear":
		estimate = func(x float64) (float64, bool) {
			if x < xs[0] {
				return 0, false // leading gap, no left neighbor
			}
			if x > xs[len(xs)-1] {
				return ys[len(ys)-1], true
			}
			j := sort.SearchFloat64s(xs, x)
			x0, y0 := xs[j-1], ys[j-1]
			x1, y1 := xs[j], ys[j]
			return y0 + (y1-y0)*(x-x0)/(x1-x0), true
		}
	case "polynomial":
		coeffs, fitErr := fitQuadratic(xs, ys)
		if fitErr != nil {
			return 0, fitErr
		}
		estimate = func(x float64) (float64, bool) {
			return coeffs[0] + coeffs[1]*x + coeffs[2]*x*x, true
		}
	default:
		return 0, fmt.Errorf("invalid interpolation method %q, use linear or polynomial", method)
	}

	for i := range c.Missing {
		if !c.Missing[i] {
			continue
		}
		if v, ok := estimate(float64(i)); ok {
			c.Floats[i] = v
			c.Missing[i] = false
			filled++
		}
	}
	d.refreshMeta()
	return filled, nil
}

// KNNImpute fills missing cells across the given numeric columns using the
// mean of the k nearest rows. Distance is euclidean over the features both
// rows have observed, scaled to the number of compared features.
func (d *Dataset) KNNImpute(columns []string, k int) (filled int, err error) {
	if k < 1 {
		return 0, fmt.Errorf("neighbor count must be at least 1, got %d", k)
	}
	cols := make([]*Column, len(columns))
	for i, name := range columns {
		c, err := d.Column(name)
		if err != nil {
			return 0, err
		}
		if !c.IsNumeric() {
			return 0, &TypeMismatchError{Column: name, Want: "numeric", Got: c.Type}
		}
		cols[i] = c
	}

	n := d.Rows()
	type fillTarget struct{ row, col int }
	var targets []fillTarget
	for j, c := range cols {
		for i := 0; i < n; i++ {
			if c.Missing[i] {
				targets = append(targets, fillTarget{row: i, col: j})
			}
		}
	}

	distance := func(a, b int) (float64, bool) {
		sum, shared := 0.0, 0
		for _, c := range cols {
			if c.Missing[a] || c.Missing[b] {
				continue
			}
			diff := c.Floats[a] - c.Floats[b]
			sum += diff * diff
			shared++
		}
		if shared == 0 {
			return 0, false
		}
		// Scale up for unobserved features so sparse rows are not
		// artificially close.
		return math.Sqrt(sum * float64(len(cols)) / float64(shared)), true
	}

	type neighbor struct {
		dist  float64
		value float64
	}
	values := make([][2]float64, len(targets)) // deferred writes: value, valid flag
	for ti, t := range targets {
		c := cols[t.col]
		var candidates []neighbor
		for other := 0; other < n; other++ {
			if other == t.row || c.Missing[other] {
				continue
			}
			if dist, ok := distance(t.row, other); ok {
				candidates = append(candidates, neighbor{dist: dist, value: c.Floats[other]})
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })
		if len(candidates) > k {
			candidates = candidates[:k]
		}
		sum := 0.0
		for _, nb := range candidates {
			sum += nb.value
		}
		values[ti] = [2]float64{sum / float64(len(candidates)), 1}
	}

	for ti, t := range targets {
		if values[ti][1] == 0 {
			continue
		}
		c := cols[t.col]
		c.Floats[t.row] = values[ti][0]
		c.Missing[t.row] = false
		filled++
	}
	d.refreshMeta()
	return filled, nil
}

// fitQuadratic solves the least-squares quadratic through (xs, ys) via the
// normal equations, returning [c0, c1, c2].
func fitQuadratic(xs, ys []float64) ([3]float64, error) {
	var s [5]float64 // sums of x^0..x^4
	var t [3]float64 // sums of y*x^0..x^2
	for i, x := range xs {
		p := 1.0
		for j := 0; j < 5; j++ {
			s[j] += p
			if j < 3 {
				t[j] += ys[i] * p
			}
			p *= x
		}
	}
	m := [3][4]float64{
		{s[0], s[1], s[2], t[0]},
		{s[1], s[2], s[3], t[1]},
		{s[2], s[3], s[4], t[2]},
	}
	// Gaussian elimination with partial pivoting.
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return [3]float64{}, fmt.Errorf("degenerate points, cannot fit polynomial")
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			for cc := col; cc < 4; cc++ {
				m[r][cc] -= f * m[col][cc]
			}
		}
	}
	return [3]float64{m[0][3] / m[0][0], m[1][3] / m[1][1], m[2][3] / m[2][2]}, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
