package dataset

import (
	"fmt"
	"math"
	"sort"
)

// DescriptiveStats summarizes a numeric column.
type DescriptiveStats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes descriptive statistics over the observed values of a
// numeric column.
func (d *Dataset) Describe(column string) (DescriptiveStats, error) {
	c, err := d.Column(column)
	if err != nil {
		return DescriptiveStats{}, err
	}
	if !c.IsNumeric() {
		return DescriptiveStats{}, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	values := c.numericValues()
	if len(values) == 0 {
		return DescriptiveStats{}, fmt.Errorf("column %q has no observed values", column)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return DescriptiveStats{
		Count:  len(values),
		Mean:   mean(values),
		Std:    std(values),
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}, nil
}

// Correlation is one ranked entry of a correlation query: the absolute
// Pearson correlation with the target expressed as a percentage.
type Correlation struct {
	Column  string
	Percent float64
}

// CorrelationTopK computes the pairwise correlation matrix over the numeric
// columns (excluding identifier-like columns whose name contains "id" or
// "index", case-insensitive) and returns the k columns most correlated with
// target ranked by absolute correlation descending. The target itself is
// never included.
func (d *Dataset) CorrelationTopK(target string, k int) ([]Correlation, error) {
	var cols []*Column
	targetIdx := -1
	for _, c := range d.cols {
		if !c.IsNumeric() || looksLikeIdentifier(c.Name) {
			continue
		}
		if c.Name == target {
			targetIdx = len(cols)
		}
		cols = append(cols, c)
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("column %q is not numeric or is excluded from correlation analysis", target)
	}

	// Full pairwise matrix over pairwise-complete rows.
	matrix := make([][]float64, len(cols))
	for i := range cols {
		matrix[i] = make([]float64, len(cols))
		for j := range cols {
			matrix[i][j] = pearson(cols[i], cols[j])
		}
	}

	ranked := make([]Correlation, 0, len(cols)-1)
	for i, c := range cols {
		if i == targetIdx {
			continue
		}
		r := matrix[targetIdx][i]
		if math.IsNaN(r) {
			continue
		}
		ranked = append(ranked, Correlation{Column: c.Name, Percent: math.Abs(r) * 100})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Percent > ranked[b].Percent })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// pearson computes the Pearson correlation over rows where both columns are
// observed. Returns NaN when there is no variance or fewer than two shared
// rows.
func pearson(a, b *Column) float64 {
	var xs, ys []float64
	for i := range a.Missing {
		if !a.Missing[i] && !b.Missing[i] {
			xs = append(xs, a.Floats[i])
			ys = append(ys, b.Floats[i])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// ValueCount is one entry of a frequency distribution.
type ValueCount struct {
	Value   string
	Count   int
	Percent float64
}

// ValueCounts returns the frequency distribution of a column's observed
// values, most frequent first, with percentages of the total row count.
func (d *Dataset) ValueCounts(column string) ([]ValueCount, error) {
	c, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	total := d.Rows()
	if total == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}

	counts := map[string]int{}
	var order []string
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] {
			continue
		}
		v := c.cellString(i)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(order))
	for _, v := range order {
		out = append(out, ValueCount{Value: v, Count: counts[v], Percent: float64(counts[v]) / float64(total) * 100})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out, nil
}

// cellString renders one observed cell as text.
func (c *Column) cellString(i int) string {
	switch c.Type {
	case TypeNumeric:
		return fmt.Sprintf("%g", c.Floats[i])
	case TypeDatetime:
		return c.Times[i].Format("2006-01-02")
	default:
		return c.Strings[i]
	}
}

// OutlierReport describes IQR-based outlier detection over a numeric column.
type OutlierReport struct {
	Lower    float64
	Upper    float64
	Count    int
	Percent  float64
	Examples []float64 // up to 5 outlying values in row order
}

// Outliers flags values outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func (d *Dataset) Outliers(column string) (OutlierReport, error) {
	c, err := d.Column(column)
	if err != nil {
		return OutlierReport{}, err
	}
	if !c.IsNumeric() {
		return OutlierReport{}, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	values := c.numericValues()
	if len(values) == 0 {
		return OutlierReport{}, fmt.Errorf("column %q has no observed values", column)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	report := OutlierReport{Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}

	total := d.Rows()
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] {
			continue
		}
		v := c.Floats[i]
		if v < report.Lower || v > report.Upper {
			report.Count++
			if len(report.Examples) < 5 {
				report.Examples = append(report.Examples, v)
			}
		}
	}
	report.Percent = float64(report.Count) / float64(total) * 100
	return report, nil
}

// TrendReport summarizes rolling-window trend analysis of a numeric column.
type TrendReport struct {
	Window           int
	Overall          string // upward | downward
	Recent           string // upward | downward over the last window
	Volatility       float64
	Stability        string // stable | volatile
	DirectionChanges int
	CumulativeChange float64 // percent, first to last raw value
	AvgRate          float64 // mean absolute change of the rolling mean
	RecentChange     float64 // percent change of the rolling mean over the last window
	RecentMax        float64
	RecentMin        float64
	Autocorrelation  *float64 // set when a seasonality lag was supplied
	Seasonal         bool
}

// seasonalityThreshold is the autocorrelation above which a lag is reported
// as seasonal.
const seasonalityThreshold = 0.7

// Trend runs rolling-mean trend analysis over the observed values of a
// numeric column. window is the rolling width; lag, when positive, triggers
// autocorrelation-based seasonality detection at that lag.
func (d *Dataset) Trend(column string, window, lag int) (TrendReport, error) {
	c, err := d.Column(column)
	if err != nil {
		return TrendReport{}, err
	}
	if !c.IsNumeric() {
		return TrendReport{}, &TypeMismatchError{Column: column, Want: "numeric", Got: c.Type}
	}
	if window < 2 {
		return TrendReport{}, fmt.Errorf("window must be at least 2, got %d", window)
	}
	values := c.numericValues()
	if len(values) < 2*window {
		return TrendReport{}, fmt.Errorf("column %q needs at least %d observed values for window %d", column, 2*window, window)
	}

	// Rolling mean and rolling (sample) standard deviation.
	nMA := len(values) - window + 1
	ma := make([]float64, nMA)
	volSum := 0.0
	for i := 0; i < nMA; i++ {
		win := values[i : i+window]
		ma[i] = mean(win)
		volSum += std(win)
	}

	// len(values) >= 2*window guarantees nMA > window.
	report := TrendReport{Window: window, Volatility: volSum / float64(nMA)}
	report.Overall = direction(ma[0], ma[nMA-1])
	report.Recent = direction(ma[nMA-1-window], ma[nMA-1])

	// First difference of the rolling mean; the leading element counts as 0.
	diffs := make([]float64, nMA)
	for i := 1; i < nMA; i++ {
		diffs[i] = ma[i] - ma[i-1]
	}
	absSum := 0.0
	for i := range diffs {
		next := false
		if i+1 < len(diffs) {
			next = diffs[i+1] > 0
		}
		if (diffs[i] > 0) != next {
			report.DirectionChanges++
		}
		absSum += math.Abs(diffs[i])
	}
	report.Stability = "volatile"
	if report.DirectionChanges < window {
		report.Stability = "stable"
	}
	report.AvgRate = absSum / float64(len(diffs))

	if values[0] != 0 {
		report.CumulativeChange = (values[len(values)-1] - values[0]) / values[0] * 100
	}
	base := ma[nMA-1-window]
	if base != 0 {
		report.RecentChange = (ma[nMA-1] - base) / base * 100
	}

	recent := values[len(values)-window:]
	report.RecentMax, report.RecentMin = recent[0], recent[0]
	for _, v := range recent[1:] {
		report.RecentMax = math.Max(report.RecentMax, v)
		report.RecentMin = math.Min(report.RecentMin, v)
	}

	if lag > 0 && lag < len(values) {
		r := autocorr(values, lag)
		report.Autocorrelation = &r
		report.Seasonal = r > seasonalityThreshold
	}
	return report, nil
}

func direction(first, last float64) string {
	if last > first {
		return "upward"
	}
	return "downward"
}

// autocorr computes the lagged Pearson autocorrelation of a series.
func autocorr(values []float64, lag int) float64 {
	n := len(values) - lag
	xs := values[:n]
	ys := values[lag:]
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// quantile interpolates linearly between order statistics; sorted must be
// ascending and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// std is the sample standard deviation.
func std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
