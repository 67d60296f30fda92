package tool

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubenCasal/Data-Assistant/artifact"
	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/oracle"
)

const testCSV = `date,sales,region
01-01-2023,10,north
02-01-2023,20,south
03-01-2023,,north
04-01-2023,40,east
05-01-2023,50,south
`

func newFixture(t *testing.T) (*dataset.Dataset, *Registry, *artifact.InMemoryStore) {
	t.Helper()
	ds, err := dataset.FromCSV([]byte(testCSV))
	require.NoError(t, err)
	store := artifact.NewInMemoryStore()
	return ds, NewRegistry(store, "s1"), store
}

func call(name string, args map[string]any) oracle.ToolCall {
	return oracle.ToolCall{ID: "call-" + name, Name: name, Args: args}
}

// -------------------- Registry --------------------

func TestRegistry_GroupsAndLookup(t *testing.T) {
	_, reg, _ := newFixture(t)

	assert.True(t, reg.Has("filter_numeric"))
	assert.True(t, reg.Has("knn_impute"))
	assert.True(t, reg.Has("trend_analysis"))
	assert.True(t, reg.Has("scatter_plot"))

	_, err := reg.Get("nope")
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)

	schemas := reg.Schemas(GroupVisualize)
	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"bar_chart", "histogram", "line_chart", "scatter_plot"}, names)
}

// -------------------- Dispatch basics --------------------

func TestDispatch_FilterNumeric(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("filter_numeric", map[string]any{"column_name": "sales", "comparison": ">=", "value": 20.0}),
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "The data has been filtered successfully: 5 --> 3 rows.", res.Text)
	assert.Equal(t, 3, ds.Rows())

	// Schema cache was refreshed on commit.
	m, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)
}

func TestDispatch_UnknownTool(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("nope", nil)})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "unknown tool")
	assert.Equal(t, 5, ds.Rows())
}

func TestDispatch_ValidationFailure(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("filter_numeric", map[string]any{"column_name": "sales"})})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "required argument is missing")
	assert.Equal(t, 5, ds.Rows())
}

func TestDispatch_HandlerErrorLeavesDatasetUntouched(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("filter_numeric", map[string]any{"column_name": "region", "comparison": ">", "value": 1.0}),
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "region")
	assert.Equal(t, 5, ds.Rows())

	m, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Missing)
}

func TestDispatch_EmptyBatch(t *testing.T) {
	ds, reg, _ := newFixture(t)
	res := NewDispatcher(reg).Dispatch(ds, nil)
	assert.True(t, res.IsError)
}

// -------------------- Batch policies --------------------

func TestDispatch_LastWins(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("filter_numeric", map[string]any{"column_name": "sales", "comparison": ">=", "value": 20.0}),
		call("drop_column", map[string]any{"column_name": "region"}),
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "Column 'region' was successfully dropped.", res.Text)

	// Both calls were executed in order.
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, []string{"date", "sales"}, ds.ColumnNames())
}

func TestDispatch_SingleOnly(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg, func(o *DispatcherOptions) { o.Policy = SingleOnly })

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("drop_column", map[string]any{"column_name": "region"}),
		call("drop_column", map[string]any{"column_name": "sales"}),
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "exactly one operation")
	assert.Len(t, ds.ColumnNames(), 3)
}

func TestDispatch_Concatenate(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg, func(o *DispatcherOptions) { o.Policy = Concatenate })

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("missing_values", nil),
		call("drop_column", map[string]any{"column_name": "region"}),
	})
	assert.False(t, res.IsError)
	parts := strings.Split(res.Text, "\n")
	assert.Contains(t, parts, "Column 'region' was successfully dropped.")
	assert.Contains(t, res.Text, "Missing values information:")
}

// -------------------- Nested resolution --------------------

func TestDispatch_NestedDateResolution(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	// start_date names the shift_date tool; the dispatcher resolves it with
	// the current date and the outer operation/years before the range runs.
	res := d.Dispatch(ds, []oracle.ToolCall{
		call("date_range", map[string]any{
			"column_name": "date",
			"start_date":  "shift_date",
			"end_date":    "current_date",
			"operation":   "subtract",
			"years":       1.0,
		}),
	})
	assert.False(t, res.IsError)
	assert.Contains(t, res.Text, "The update was successful")
	assert.NotContains(t, res.Text, "shift_date")
	// All fixture dates are in 2023, outside [now-1y, now].
	assert.Equal(t, 0, ds.Rows())
}

func TestDispatch_NestedExplicitRange(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("date_range", map[string]any{
			"column_name": "date",
			"start_date":  "02-01-2023",
			"end_date":    "04-01-2023",
		}),
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "The update was successful, the first date is 02-01-2023 and the last date is 04-01-2023", res.Text)
	assert.Equal(t, 3, ds.Rows())
}

func TestDispatch_CurrentDateTool(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("current_date", nil)})
	assert.False(t, res.IsError)
	assert.Equal(t, time.Now().Format("02-01-2006"), res.Text)
}

func TestDispatch_ShiftDate(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("shift_date", map[string]any{"date": "15-06-2020", "operation": "subtract", "years": 2.0}),
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "15-06-2018", res.Text)
}

// -------------------- Charts & artifacts --------------------

func TestDispatch_BarChartSavesArtifact(t *testing.T) {
	ds, reg, store := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("bar_chart", map[string]any{"column_name": "region"})})
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "bar_chart_region.png", res.ArtifactRef)
	assert.Equal(t, "Figure: bar_chart_region.png", res.Text)

	payload, err := store.Get("s1", res.ArtifactRef)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"kind":"bar"`)
}

func TestDispatch_ScatterRejectsNonNumeric(t *testing.T) {
	ds, reg, store := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("scatter_plot", map[string]any{"x_column": "region", "y_column": "sales"}),
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "numeric")
	assert.Empty(t, res.ArtifactRef)

	refs, err := store.List("s1")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

// -------------------- Analysis passthrough --------------------

func TestDispatch_DescriptiveStatistics(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("descriptive_statistics", map[string]any{"column_name": "sales"})})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "count: 4")
	assert.Contains(t, res.Text, "mean: 30.00")
	assert.Equal(t, 5, ds.Rows())
}

func TestDispatch_ImputeMean(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{
		call("impute_mean_median", map[string]any{"column_name": "sales", "strategy": "mean"}),
	})
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "Imputed missing values in 'sales' using mean.", res.Text)

	m, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)

	c, err := ds.Column("sales")
	require.NoError(t, err)
	assert.Equal(t, 30.0, c.Floats[2])
}

func TestValidateArgs(t *testing.T) {
	schema := objectSchema(map[string]any{
		"column_name": stringProp("col"),
		"value":       numberProp("val"),
		"years":       integerProp("years"),
	}, "column_name")

	assert.NoError(t, validateArgs(map[string]any{"column_name": "a", "value": 1.5}, schema))
	assert.NoError(t, validateArgs(map[string]any{"column_name": "a", "years": 2.0}, schema))

	err := validateArgs(map[string]any{"value": 1.5}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "column_name", vErr.Field)

	err = validateArgs(map[string]any{"column_name": "a", "years": 2.5}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "years", vErr.Field)

	// Extra arguments are tolerated.
	assert.NoError(t, validateArgs(map[string]any{"column_name": "a", "extra": true}, schema))
}

func TestResultTextStability(t *testing.T) {
	ds, reg, _ := newFixture(t)
	d := NewDispatcher(reg)

	res := d.Dispatch(ds, []oracle.ToolCall{call("missing_values", nil)})
	require.False(t, res.IsError)
	assert.Contains(t, res.Text, fmt.Sprintf("sales: total: %d ---> %.2f%%", 1, 20.0))
}
