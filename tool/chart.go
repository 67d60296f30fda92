package tool

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/RubenCasal/Data-Assistant/artifact"
	"github.com/RubenCasal/Data-Assistant/dataset"
)

// chartSpec is the renderer-facing payload saved to the artifact store. The
// core never rasterizes pixels; it records what to draw under a
// deterministic artifact name.
type chartSpec struct {
	Kind    string    `json:"kind"` // bar | histogram | line | scatter
	Title   string    `json:"title"`
	XLabel  string    `json:"x_label"`
	YLabel  string    `json:"y_label"`
	Color   string    `json:"color,omitempty"`
	Labels  []string  `json:"labels,omitempty"`
	Counts  []int     `json:"counts,omitempty"`
	X       []float64 `json:"x,omitempty"`
	Y       []float64 `json:"y,omitempty"`
	BinEdge []float64 `json:"bin_edges,omitempty"`
}

// histogramBins is the fixed bin count for numeric histograms.
const histogramBins = 10

// saveChart serializes the spec and stores it, surfacing store failures as
// operation errors without touching session state.
func saveChart(store artifact.Store, sessionID, name string, spec chartSpec) (Result, error) {
	payload, err := json.Marshal(spec)
	if err != nil {
		return Result{}, fmt.Errorf("encode chart: %w", err)
	}
	ref, err := store.Save(sessionID, name, payload)
	if err != nil {
		return Result{}, fmt.Errorf("save chart artifact: %w", err)
	}
	return Result{Text: fmt.Sprintf("Figure: %s", name), ArtifactRef: ref}, nil
}

// visualizationTools builds the chart generation tool set. Handlers never
// mutate the dataset; each validates column type preconditions before
// producing an artifact.
func visualizationTools(store artifact.Store, sessionID string) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "bar_chart",
			Description: "Bar chart of the value counts of a categorical column.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the categorical column"),
				"color":       stringProp("Bar color, defaults to red"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				c, err := ds.Column(column)
				if err != nil {
					return Result{}, err
				}
				if !c.IsStringKind() {
					return Result{}, &dataset.TypeMismatchError{Column: column, Want: "categorical", Got: c.Type}
				}
				counts, err := ds.ValueCounts(column)
				if err != nil {
					return Result{}, err
				}
				spec := chartSpec{
					Kind:   "bar",
					Title:  fmt.Sprintf("Bar Chart: %s", column),
					XLabel: column,
					YLabel: "Count",
					Color:  stringArg(args, "color", "red"),
				}
				for _, vc := range counts {
					spec.Labels = append(spec.Labels, vc.Value)
					spec.Counts = append(spec.Counts, vc.Count)
				}
				return saveChart(store, sessionID, fmt.Sprintf("bar_chart_%s.png", column), spec)
			},
		},
		{
			Name:        "histogram",
			Description: "Histogram of a numeric column; falls back to a bar chart for categorical columns.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the column"),
				"color":       stringProp("Fill color, defaults to blue"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				color := stringArg(args, "color", "blue")
				c, err := ds.Column(column)
				if err != nil {
					return Result{}, err
				}
				name := fmt.Sprintf("chart_%s.png", column)

				if c.IsStringKind() {
					counts, err := ds.ValueCounts(column)
					if err != nil {
						return Result{}, err
					}
					spec := chartSpec{
						Kind:   "bar",
						Title:  fmt.Sprintf("Bar Chart: %s", column),
						XLabel: column,
						YLabel: "Count",
						Color:  color,
					}
					for _, vc := range counts {
						spec.Labels = append(spec.Labels, vc.Value)
						spec.Counts = append(spec.Counts, vc.Count)
					}
					return saveChart(store, sessionID, name, spec)
				}

				values, err := ds.NumericValues(column)
				if err != nil {
					return Result{}, err
				}
				if len(values) == 0 {
					return Result{}, fmt.Errorf("column %q has no observed values", column)
				}
				edges, counts := histogram(values, histogramBins)
				spec := chartSpec{
					Kind:    "histogram",
					Title:   fmt.Sprintf("Histogram: %s", column),
					XLabel:  "Value",
					YLabel:  "Frequency",
					Color:   color,
					Counts:  counts,
					BinEdge: edges,
				}
				return saveChart(store, sessionID, name, spec)
			},
		},
		{
			Name:        "line_chart",
			Description: "Line chart of a numeric column over the row index.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column"),
				"color":       stringProp("Line color, defaults to blue"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				indices, values, err := ds.NumericSeries(column)
				if err != nil {
					return Result{}, err
				}
				spec := chartSpec{
					Kind:   "line",
					Title:  fmt.Sprintf("Line Chart: %s", column),
					XLabel: "Index",
					YLabel: column,
					Color:  stringArg(args, "color", "blue"),
					Y:      values,
				}
				spec.X = make([]float64, len(indices))
				for i, idx := range indices {
					spec.X[i] = float64(idx)
				}
				return saveChart(store, sessionID, fmt.Sprintf("line_chart_%s.png", column), spec)
			},
		},
		{
			Name:        "scatter_plot",
			Description: "Scatter plot of two numeric columns.",
			Params: objectSchema(map[string]any{
				"x_column": stringProp("Numeric column for the x-axis"),
				"y_column": stringProp("Numeric column for the y-axis"),
				"color":    stringProp("Point color, defaults to red"),
			}, "x_column", "y_column"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				xCol := stringArg(args, "x_column", "")
				yCol := stringArg(args, "y_column", "")
				pairs, err := ds.NumericPairs(xCol, yCol)
				if err != nil {
					return Result{}, err
				}
				spec := chartSpec{
					Kind:   "scatter",
					Title:  fmt.Sprintf("Scatter Plot: %s vs %s", xCol, yCol),
					XLabel: xCol,
					YLabel: yCol,
					Color:  stringArg(args, "color", "red"),
				}
				for _, p := range pairs {
					spec.X = append(spec.X, p[0])
					spec.Y = append(spec.Y, p[1])
				}
				return saveChart(store, sessionID, fmt.Sprintf("scatter_plot_%s_vs_%s.png", xCol, yCol), spec)
			},
		},
	}
}

// histogram buckets values into equal-width bins, returning the bin edges
// (bins+1 entries) and per-bin counts.
func histogram(values []float64, bins int) ([]float64, []int) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	edges := make([]float64, bins+1)
	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return edges, counts
}
