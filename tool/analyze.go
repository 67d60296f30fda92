package tool

import (
	"fmt"
	"strings"

	"github.com/RubenCasal/Data-Assistant/dataset"
)

// analysisTools builds the statistical analysis tool set. All handlers are
// read-only; the dataset is never mutated by this group.
func analysisTools() []*Descriptor {
	return []*Descriptor{
		{
			Name:        "descriptive_statistics",
			Description: "Basic descriptive statistics for a numeric column: count, mean, std, min, quartiles, max.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				stats, err := ds.Describe(column)
				if err != nil {
					return Result{}, err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Descriptive stats for %s:\n", column)
				fmt.Fprintf(&b, "count: %d\n", stats.Count)
				fmt.Fprintf(&b, "mean: %.2f\n", stats.Mean)
				fmt.Fprintf(&b, "std: %.2f\n", stats.Std)
				fmt.Fprintf(&b, "min: %.2f\n", stats.Min)
				fmt.Fprintf(&b, "25%%: %.2f\n", stats.Q1)
				fmt.Fprintf(&b, "50%%: %.2f\n", stats.Median)
				fmt.Fprintf(&b, "75%%: %.2f\n", stats.Q3)
				fmt.Fprintf(&b, "max: %.2f\n", stats.Max)
				return Result{Text: b.String()}, nil
			},
		},
		{
			Name:        "correlation_matrix",
			Description: "Top 5 columns most correlated with a target numeric column, excluding id/index columns.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Target numeric column"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				top, err := ds.CorrelationTopK(column, 5)
				if err != nil {
					return Result{}, err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Top 5 columns most correlated with '%s':\n", column)
				for _, c := range top {
					fmt.Fprintf(&b, "%s: %.2f%%\n", c.Column, c.Percent)
				}
				return Result{Text: b.String()}, nil
			},
		},
		{
			Name:        "value_counts",
			Description: "Frequency distribution of a column with percentages of the total.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the column"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				counts, err := ds.ValueCounts(column)
				if err != nil {
					return Result{}, err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Frequency analysis for %s:\n", column)
				for _, vc := range counts {
					fmt.Fprintf(&b, "%s: total: %d --> %.2f%%\n", vc.Value, vc.Count, vc.Percent)
				}
				return Result{Text: b.String()}, nil
			},
		},
		{
			Name:        "outlier_detection",
			Description: "Detect outliers in a numeric column using the IQR method.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				report, err := ds.Outliers(column)
				if err != nil {
					return Result{}, err
				}
				var b strings.Builder
				fmt.Fprintf(&b,
					"Outliers detected: %d rows with outliers in %s, representing %.2f%% of the total data.\n",
					report.Count, column, report.Percent,
				)
				if len(report.Examples) > 0 {
					b.WriteString("Principal outliers:\n")
					for i, v := range report.Examples {
						fmt.Fprintf(&b, "%d: %g\n", i+1, v)
					}
				}
				return Result{Text: b.String()}, nil
			},
		},
		{
			Name:        "trend_analysis",
			Description: "Rolling-mean trend analysis of a numeric column: direction, volatility, stability, rate of change and optional seasonality.",
			Params: objectSchema(map[string]any{
				"column_name":        stringProp("Name of the numeric column"),
				"window":             integerProp("Rolling window size, defaults to 5"),
				"seasonality_period": integerProp("Optional autocorrelation lag for seasonality detection"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				window := intArg(args, "window", 5)
				lag := intArg(args, "seasonality_period", 0)
				report, err := ds.Trend(column, window, lag)
				if err != nil {
					return Result{}, err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Moving average calculated with a window of %d periods.\n", report.Window)
				fmt.Fprintf(&b, "Overall trend: %s.\n", report.Overall)
				fmt.Fprintf(&b, "Recent trend (last %d periods): %s.\n", report.Window, report.Recent)
				fmt.Fprintf(&b, "Volatility: %.2f.\n", report.Volatility)
				fmt.Fprintf(&b, "Trend stability: %s with %d directional changes.\n", report.Stability, report.DirectionChanges)
				fmt.Fprintf(&b, "Cumulative change: %.2f%% from start to end.\n", report.CumulativeChange)
				fmt.Fprintf(&b, "Average rate of change: %.2f units per period.\n", report.AvgRate)
				fmt.Fprintf(&b, "Recent percentage change in moving average: %.2f%%.\n", report.RecentChange)
				fmt.Fprintf(&b, "Recent max: %g, Recent min: %g.\n", report.RecentMax, report.RecentMin)
				if report.Autocorrelation != nil {
					if report.Seasonal {
						fmt.Fprintf(&b, "Seasonality detected with a period of %d. Autocorrelation: %.2f.\n", lag, *report.Autocorrelation)
					} else {
						fmt.Fprintf(&b, "No strong seasonality detected for a period of %d. Autocorrelation: %.2f.\n", lag, *report.Autocorrelation)
					}
				}
				return Result{Text: b.String()}, nil
			},
		},
	}
}
