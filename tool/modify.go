package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/RubenCasal/Data-Assistant/dataset"
)

// userDateLayout is the dd-mm-yyyy format used when exchanging dates with
// the user and between date tools.
const userDateLayout = "02-01-2006"

// modificationTools builds the filter / drop / date manipulation tool set.
func modificationTools() []*Descriptor {
	return []*Descriptor{
		{
			Name:        "filter_numeric",
			Description: "Filter rows where a numeric column satisfies a comparison. Operators: > < = >= <=.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the numeric column to filter"),
				"comparison":  enumProp("Comparison operator", ">", "<", "=", ">=", "<="),
				"value":       numberProp("Value to compare against"),
			}, "column_name", "comparison", "value"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				before, after, err := ds.FilterNumeric(stringArg(args, "column_name", ""), stringArg(args, "comparison", ""), floatArg(args, "value"))
				if err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("The data has been filtered successfully: %d --> %d rows.", before, after)}, nil
			},
		},
		{
			Name:        "filter_string",
			Description: "Filter rows where a text column starts with or equals a string. include controls keeping or excluding matches.",
			Params: objectSchema(map[string]any{
				"column_name":   stringProp("Name of the text column to filter"),
				"string_filter": stringProp("Prefix or exact value to match"),
				"include":       booleanProp("Keep matching rows when true, drop them when false"),
			}, "column_name", "string_filter"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				before, after, err := ds.FilterString(stringArg(args, "column_name", ""), stringArg(args, "string_filter", ""), boolArg(args, "include", true))
				if err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("The data has been filtered successfully: %d --> %d rows.", before, after)}, nil
			},
		},
		{
			Name:        "filter_date",
			Description: "Filter rows where the year, month or day of a datetime column equals a value.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the datetime column to filter"),
				"date_part":   enumProp("Part of the date to filter by", "year", "month", "day"),
				"value":       integerProp("Year, month or day value to match"),
			}, "column_name", "date_part", "value"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				part := stringArg(args, "date_part", "")
				before, after, err := ds.FilterDatePart(stringArg(args, "column_name", ""), part, intArg(args, "value", 0))
				if err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("The data has been filtered by %s successfully: %d --> %d rows.", part, before, after)}, nil
			},
		},
		{
			Name:        "date_range",
			Description: "Keep only the rows whose datetime column falls within a start/end date range.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the datetime column"),
				"start_date":  stringProp("Range start, dd-mm-yyyy or yyyy-mm-dd"),
				"end_date":    stringProp("Range end, dd-mm-yyyy or yyyy-mm-dd"),
			}, "column_name", "start_date", "end_date"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				start, err := dataset.ParseDate(stringArg(args, "start_date", ""))
				if err != nil {
					return Result{}, err
				}
				end, err := dataset.ParseDate(stringArg(args, "end_date", ""))
				if err != nil {
					return Result{}, err
				}
				first, last, err := ds.FilterDateRange(stringArg(args, "column_name", ""), start, end)
				if err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf(
					"The update was successful, the first date is %s and the last date is %s",
					first.Format(userDateLayout), last.Format(userDateLayout),
				)}, nil
			},
		},
		{
			Name:        "drop_column",
			Description: "Drop a named column from the dataset.",
			Params: objectSchema(map[string]any{
				"column_name": stringProp("Name of the column to drop"),
			}, "column_name"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				name := stringArg(args, "column_name", "")
				if err := ds.DropColumn(name); err != nil {
					return Result{}, err
				}
				return Result{Text: fmt.Sprintf("Column '%s' was successfully dropped.", name)}, nil
			},
		},
		{
			Name:        "current_date",
			Description: "Return the current date in dd-mm-yyyy format.",
			Params:      objectSchema(map[string]any{}),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				return Result{Text: time.Now().Format(userDateLayout)}, nil
			},
		},
		{
			Name:        "shift_date",
			Description: "Add or subtract a number of years from a date in dd-mm-yyyy format.",
			Params: objectSchema(map[string]any{
				"date":      stringProp("Base date, dd-mm-yyyy"),
				"operation": enumProp("Whether to add or subtract years", "add", "subtract"),
				"years":     integerProp("Number of years to shift"),
			}, "date", "operation", "years"),
			Handler: func(ds *dataset.Dataset, args map[string]any) (Result, error) {
				base, err := dataset.ParseDate(stringArg(args, "date", ""))
				if err != nil {
					return Result{}, err
				}
				years := intArg(args, "years", 0)
				switch strings.ToLower(stringArg(args, "operation", "")) {
				case "add":
				case "subtract":
					years = -years
				default:
					return Result{}, &ValidationError{Field: "operation", Message: "must be add or subtract"}
				}
				return Result{Text: base.AddDate(years, 0, 0).Format(userDateLayout)}, nil
			},
		},
	}
}
