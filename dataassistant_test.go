package dataassistant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/graph"
	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/session"
)

const uploadCSV = `date,sales,region
01-01-2023,10,north
02-01-2023,20,south
03-01-2023,,north
04-01-2023,,east
05-01-2023,30,south
`

func TestEndToEnd_ImputeSalesWithMean(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	mock.QueueLabel("A") // data related
	mock.QueueLabel("B") // missing values
	mock.QueueToolCall("impute_mean_median", map[string]any{"column_name": "sales", "strategy": "mean"})

	res, err := a.SubmitTurn(context.Background(), id, "impute sales with mean")
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Contains(t, res.Text(), "Imputed missing values in 'sales' using mean.")

	out, err := a.ExportDataset(id)
	require.NoError(t, err)
	ds, err := dataset.FromCSV(out)
	require.NoError(t, err)

	m, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)

	// The two previously missing cells hold the column mean.
	c, err := ds.Column("sales")
	require.NoError(t, err)
	assert.Equal(t, 20.0, c.Floats[2])
	assert.Equal(t, 20.0, c.Floats[3])
}

func TestEndToEnd_ScatterOnNonNumericProducesNoArtifact(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	mock.QueueLabel("A")
	mock.QueueLabel("D")
	mock.QueueToolCall("scatter_plot", map[string]any{"x_column": "region", "y_column": "sales"})

	res, err := a.SubmitTurn(context.Background(), id, "scatter region against sales")
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "numeric")
	assert.Empty(t, res.ArtifactRefs)
}

func TestEndToEnd_ChartArtifactRoundTrip(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	mock.QueueLabel("A")
	mock.QueueLabel("D")
	mock.QueueToolCall("bar_chart", map[string]any{"column_name": "region"})

	res, err := a.SubmitTurn(context.Background(), id, "bar chart of regions")
	require.NoError(t, err)
	require.Len(t, res.ArtifactRefs, 1)

	payload, err := a.GetArtifact(id, res.ArtifactRefs[0])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"kind":"bar"`)
}

func TestSubmitTurn_SessionNotFound(t *testing.T) {
	a := New(oracle.NewMockOracle())
	_, err := a.SubmitTurn(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestResume_ThreadMismatch(t *testing.T) {
	a := New(oracle.NewMockOracle())
	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	_, err = a.Resume(context.Background(), id, "stale-token", "hello")
	assert.ErrorIs(t, err, graph.ErrThreadMismatch)
}

func TestResume_TerminalThreadIsIdempotent(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)
	threadID, err := a.ThreadID(id)
	require.NoError(t, err)

	mock.QueueLabel("Z") // unrecognized, falls back to the unrelated branch
	first, err := a.SubmitTurn(context.Background(), id, "what is the weather")
	require.NoError(t, err)
	require.True(t, first.Done)

	second, err := a.Resume(context.Background(), id, threadID, "what is the weather")
	require.NoError(t, err)
	assert.Equal(t, first.Text(), second.Text())

	// The cached replay did not duplicate history.
	history, err := a.History(id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubmitTurn_HistoryAccumulates(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	mock.QueueLabel("C")
	_, err = a.SubmitTurn(context.Background(), id, "who won the game")
	require.NoError(t, err)

	mock.QueueLabel("A")
	mock.QueueLabel("C")
	mock.QueueToolCall("value_counts", map[string]any{"column_name": "region"})
	res, err := a.SubmitTurn(context.Background(), id, "how often does each region appear")
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "north: total: 2")

	history, err := a.History(id)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, oracle.RoleUser, history[0].Role)
	assert.Equal(t, oracle.RoleAssistant, history[1].Role)
	assert.Equal(t, oracle.RoleUser, history[2].Role)
	assert.Equal(t, oracle.RoleTool, history[3].Role)
}

func TestOnboardingOption_NegotiatesBeforeRouting(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock, func(o *Options) { o.Onboarding = true })

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	// First turn runs the onboarding graph and suspends on the range question.
	res, err := a.SubmitTurn(context.Background(), id, "hello")
	require.NoError(t, err)
	assert.True(t, res.Suspended)
	assert.Contains(t, res.Text(), "date range")

	// Declining skips to the missing-value pass.
	mock.QueueLabel("no")
	mock.QueueToolCall("impute_mean_median", map[string]any{"column_name": "sales", "strategy": "mean"})
	res, err = a.SubmitTurn(context.Background(), id, "no thanks")
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Contains(t, res.Text(), "Missing values in 'sales': 2 --> 0.")

	// Later turns route through the intent graph.
	mock.QueueLabel("A")
	mock.QueueLabel("C")
	mock.QueueToolCall("descriptive_statistics", map[string]any{"column_name": "sales"})
	res, err = a.SubmitTurn(context.Background(), id, "describe sales")
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "count: 5")
}

func TestExportDataset_ReflectsMutations(t *testing.T) {
	mock := oracle.NewMockOracle()
	a := New(mock)

	id, err := a.CreateSession([]byte(uploadCSV))
	require.NoError(t, err)

	mock.QueueLabel("A")
	mock.QueueLabel("A")
	mock.QueueLabel("region") // target column extraction
	mock.QueueToolCall("drop_column", map[string]any{"column_name": "region"})

	res, err := a.SubmitTurn(context.Background(), id, "drop the region column")
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Column 'region' was successfully dropped.")

	out, err := a.ExportDataset(id)
	require.NoError(t, err)
	header := strings.SplitN(string(out), "\n", 2)[0]
	assert.Equal(t, "date,sales", header)
}

func TestCreateSession_RejectsUnparsableInput(t *testing.T) {
	a := New(oracle.NewMockOracle())
	_, err := a.CreateSession([]byte(""))
	assert.Error(t, err)
}
