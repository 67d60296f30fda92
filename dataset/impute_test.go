package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImputeMeanMedian(t *testing.T) {
	ds := mustDataset(t, "v\n10\n20\nNA\nNA\n30\n")

	fill, filled, err := ds.ImputeMeanMedian("v", "mean")
	require.NoError(t, err)
	assert.Equal(t, 20.0, fill)
	assert.Equal(t, 2, filled)

	// Cache matches an independent scan.
	m, err := ds.Meta("v")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)
	c, err := ds.Column("v")
	require.NoError(t, err)
	assert.Equal(t, 0, c.MissingCount())
	assert.Equal(t, []float64{10, 20, 20, 20, 30}, c.Floats)
}

func TestImputeMeanMedian_Median(t *testing.T) {
	ds := mustDataset(t, "v\n1\n2\nNA\n100\n")
	fill, _, err := ds.ImputeMeanMedian("v", "median")
	require.NoError(t, err)
	assert.Equal(t, 2.0, fill)
}

func TestImputeMeanMedian_Errors(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	_, _, err := ds.ImputeMeanMedian("region", "mean")
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, _, err = ds.ImputeMeanMedian("sales", "mode")
	assert.Error(t, err)
}

func TestImputeMode_TiesBreakDeterministically(t *testing.T) {
	ds := mustDataset(t, "r\na\nb\na\nb\nNA\n")
	mode, filled, err := ds.ImputeMode("r")
	require.NoError(t, err)
	assert.Equal(t, "a", mode)
	assert.Equal(t, 1, filled)

	m, err := ds.Meta("r")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)
}

func TestImputePlaceholder(t *testing.T) {
	ds := mustDataset(t, "r\nx\nNA\nNA\ny\n")
	filled, err := ds.ImputePlaceholder("r", "Unknown")
	require.NoError(t, err)
	assert.Equal(t, 2, filled)

	c, err := ds.Column("r")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", c.Strings[1])
	assert.Equal(t, "Unknown", c.Strings[2])
}

func TestFill_ForwardBackward(t *testing.T) {
	ds := mustDataset(t, "v\nNA\n1\nNA\n3\nNA\n")
	filled, err := ds.Fill("v", "forward")
	require.NoError(t, err)
	// Leading gap has no left neighbor and stays missing.
	assert.Equal(t, 2, filled)
	c, err := ds.Column("v")
	require.NoError(t, err)
	assert.True(t, c.Missing[0])
	assert.Equal(t, 1.0, c.Floats[2])
	assert.Equal(t, 3.0, c.Floats[4])

	ds = mustDataset(t, "v\nNA\n1\nNA\n3\nNA\n")
	filled, err = ds.Fill("v", "backward")
	require.NoError(t, err)
	assert.Equal(t, 2, filled)
	c, err = ds.Column("v")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Floats[0])
	assert.Equal(t, 3.0, c.Floats[2])
	assert.True(t, c.Missing[4])
}

func TestInterpolate_Linear(t *testing.T) {
	ds := mustDataset(t, "v\n0\nNA\n10\nNA\nNA\n")
	filled, err := ds.Interpolate("v", "linear")
	require.NoError(t, err)
	assert.Equal(t, 3, filled)

	c, err := ds.Column("v")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, c.Floats[1], 1e-9)
	// Trailing gaps extend the last observed value.
	assert.Equal(t, 10.0, c.Floats[3])
	assert.Equal(t, 10.0, c.Floats[4])
}

func TestInterpolate_Polynomial(t *testing.T) {
	// y = x^2 observed at x = 0,1,3,4; the quadratic fit recovers x=2 exactly.
	ds := mustDataset(t, "v\n0\n1\nNA\n9\n16\n")
	filled, err := ds.Interpolate("v", "polynomial")
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	c, err := ds.Column("v")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, c.Floats[2], 1e-6)
}

func TestKNNImpute(t *testing.T) {
	// Rows 0 and 1 are identical in column a; the missing b cell of row 1
	// takes its nearest neighbors' b values.
	csv := "a,b\n1,10\n1,\n2,20\n9,90\n"
	ds := mustDataset(t, csv)

	filled, err := ds.KNNImpute([]string{"a", "b"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	c, err := ds.Column("b")
	require.NoError(t, err)
	assert.False(t, c.Missing[1])
	// Two nearest rows by a-distance are rows 0 (a=1) and 2 (a=2).
	assert.InDelta(t, 15.0, c.Floats[1], 1e-9)

	m, err := ds.Meta("b")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Missing)
}

func TestKNNImpute_Validation(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	_, err := ds.KNNImpute([]string{"sales"}, 0)
	assert.Error(t, err)
	_, err = ds.KNNImpute([]string{"region"}, 3)
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}
