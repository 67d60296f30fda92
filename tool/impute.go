package tool

import (
	"fmt"
	"strings"

	"github.com/RubenCasal/Data-Assistant/dataset"
)

// imputationTools builds the missing-value handling tool set. Strategy
// choice is always supplied by the caller; this layer never infers one.
func imputationTools() []*Descriptor {
	return []*Descriptor{
		{
			Name:        "impute_mean_median",
			Description: "Impute missing values in a numeric column with its mean or median.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column to impute"),
				"strategy":    enumProp("Imputation strategy", "mean", "median"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				strategy := stringArg(args, "strategy", "mean")
				column := stringArg(args, "column_name", "")
				if _, _, err := ds.ImputeMeanMedian(column, strategy); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Imputed missing values in '%s' using %s.", column, strategy)}, nil
			},
		},
		{
			Name:        "impute_mode",
			Description: "Impute missing values in a categorical column with its most frequent value.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the categorical column to impute"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				if _, _, err := ds.ImputeMode(column); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Imputed missing values in '%s' using mode (most frequent value).", column)}, nil
			},
		},
		{
			Name:        "impute_placeholder",
			Description: "Impute missing values in a categorical column with a fixed placeholder value.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the categorical column to impute"),
				"placeholder": stringProp("Placeholder value, defaults to Unknown"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				placeholder := stringArg(args, "placeholder", "Unknown")
				if _, err := ds.ImputePlaceholder(column, placeholder); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Imputed missing values in '%s' with placeholder '%s'.", column, placeholder)}, nil
			},
		},
		{
			Name:        "fill_forward_backward",
			Description: "Propagate the previous (forward) or next (backward) observed value into missing cells.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the column to fill"),
				"direction":   enumProp("Fill direction", "forward", "backward"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				direction := stringArg(args, "direction", "forward")
				if _, err := ds.Fill(column, direction); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Performed %s fill on '%s'.", direction, column)}, nil
			},
		},
		{
			Name:        "interpolate",
			Description: "Estimate missing values of an ordered numeric column by linear or polynomial interpolation.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column to interpolate"),
				"method":      enumProp("Interpolation method", "linear", "polynomial"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				column := stringArg(args, "column_name", "")
				method := stringArg(args, "method", "linear")
				if _, err := ds.Interpolate(column, method); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Interpolated missing values in '%s' using %s interpolation.", column, method)}, nil
			},
		},
		{
			Name:        "knn_impute",
			Description: "Impute missing values across numeric columns from the k nearest rows.",
			Params: objectSchema(map[string]any{
				"columns":     stringArrayProp("Numeric columns to impute together"),
				"n_neighbors": integerProp("Number of neighbors, defaults to 5"),
			}, "columns"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				columns := stringSliceArg(args, "columns")
				if len(columns) == 0 {
					return Result{}, &ValidationError{Field: "columns", Message: "at least one column is required"}
				}
				if _, err := ds.KNNImpute(columns, intArg(args, "n_neighbors", 5)); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("KNN imputation completed for columns: %s.", strings.Join(columns, ", "))}, nil
			},
		},
		{
			Name:        "missing_values",
			Description: "Report the missing-value count and percentage of every column.",
			Params:      objectSchema(map[string]any{}),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				total := ds.Rows()
				var b strings.Builder
				b.WriteString("Missing values information:\n")
				for _, m := range ds.Metadata() {
					pct := 0.0
					if total > 0 {
						pct = float64(m.Missing) / float64(total) * 100
					}
					fmt.Fprintf(&b, "%s: total: %d ---> %.2f%%\n", m.Name, m.Missing, pct)
				}
				return Result{Text: b.String()}, nil
			},
		},
	}
}
