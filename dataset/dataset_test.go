package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `date,sales,region,user_id
01-01-2023,10,north,1
02-01-2023,20,south,2
03-01-2023,,north,3
04-01-2023,40,east,4
05-01-2023,50,south,5
`

func mustDataset(t *testing.T, csv string) *Dataset {
	t.Helper()
	ds, err := FromCSV([]byte(csv))
	require.NoError(t, err)
	return ds
}

// -------------------- Parsing & schema cache --------------------

func TestFromCSV_TypeInference(t *testing.T) {
	ds := mustDataset(t, salesCSV)

	assert.Equal(t, 5, ds.Rows())
	assert.Equal(t, []string{"date", "sales", "region", "user_id"}, ds.ColumnNames())

	date, err := ds.Meta("date")
	require.NoError(t, err)
	assert.Equal(t, TypeDatetime, date.Type)

	sales, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, TypeNumeric, sales.Type)
	assert.Equal(t, 1, sales.Missing)

	region, err := ds.Meta("region")
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, region.Type)
}

func TestFromCSV_MissingTokens(t *testing.T) {
	ds := mustDataset(t, "a,b\n1,x\nNA,null\n3,y\n")
	a, err := ds.Meta("a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Missing)
	b, err := ds.Meta("b")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Missing)
}

func TestColumn_Unknown(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	_, err := ds.Column("nope")
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Name)
}

func TestToCSV_RoundTrip(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	out, err := ds.ToCSV()
	require.NoError(t, err)

	again, err := FromCSV(out)
	require.NoError(t, err)
	assert.Equal(t, ds.Rows(), again.Rows())
	assert.Equal(t, ds.ColumnNames(), again.ColumnNames())

	// Missing cells are serialized as empty and survive the round trip.
	sales, err := again.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 1, sales.Missing)
}

// -------------------- Filters --------------------

func TestFilterNumeric_Property(t *testing.T) {
	for _, op := range []string{">", "<", "=", ">=", "<="} {
		ds := mustDataset(t, salesCSV)
		before, after, err := ds.FilterNumeric("sales", op, 20)
		require.NoError(t, err, op)
		assert.Equal(t, 5, before, op)
		assert.LessOrEqual(t, after, before, op)
		assert.Equal(t, after, ds.Rows(), op)

		c, err := ds.Column("sales")
		require.NoError(t, err)
		for i := 0; i < c.Len(); i++ {
			if c.Missing[i] {
				continue
			}
			v := c.Floats[i]
			switch op {
			case ">":
				assert.Greater(t, v, 20.0)
			case "<":
				assert.Less(t, v, 20.0)
			case "=":
				assert.Equal(t, 20.0, v)
			case ">=":
				assert.GreaterOrEqual(t, v, 20.0)
			case "<=":
				assert.LessOrEqual(t, v, 20.0)
			}
		}
	}
}

func TestFilterNumeric_RefreshesCache(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	_, _, err := ds.FilterNumeric("sales", ">=", 20)
	require.NoError(t, err)

	// The row with the missing sales value is gone.
	sales, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 0, sales.Missing)
}

func TestFilterString_IncludeExclude(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	before, after, err := ds.FilterString("region", "nor", true)
	require.NoError(t, err)
	assert.Equal(t, 5, before)
	assert.Equal(t, 2, after)

	ds = mustDataset(t, salesCSV)
	_, after, err = ds.FilterString("region", "south", false)
	require.NoError(t, err)
	assert.Equal(t, 3, after)
}

func TestFilterDatePart(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	before, after, err := ds.FilterDatePart("date", "day", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, before)
	assert.Equal(t, 1, after)

	_, _, err = ds.FilterDatePart("sales", "year", 2023)
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestFilterDateRange(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	start, err := ParseDate("02-01-2023")
	require.NoError(t, err)
	end, err := ParseDate("04-01-2023")
	require.NoError(t, err)

	first, last, err := ds.FilterDateRange("date", start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, "02-01-2023", first.Format("02-01-2006"))
	assert.Equal(t, "04-01-2023", last.Format("02-01-2006"))
}

func TestDropColumn(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	require.NoError(t, ds.DropColumn("region"))
	assert.Equal(t, []string{"date", "sales", "user_id"}, ds.ColumnNames())

	// Dropping an unknown column errors and leaves the column count alone.
	err := ds.DropColumn("nope")
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Len(t, ds.ColumnNames(), 3)
}

// -------------------- Clone / commit discipline --------------------

func TestClone_Isolation(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	work := ds.Clone()

	_, _, err := work.FilterNumeric("sales", ">", 100)
	require.NoError(t, err)
	assert.Equal(t, 0, work.Rows())
	assert.Equal(t, 5, ds.Rows())
}

func TestReplaceWith_Commits(t *testing.T) {
	ds := mustDataset(t, salesCSV)
	work := ds.Clone()
	_, _, err := work.FilterNumeric("sales", ">", 25)
	require.NoError(t, err)
	work.RefreshMeta()

	ds.ReplaceWith(work)
	assert.Equal(t, 2, ds.Rows())
	sales, err := ds.Meta("sales")
	require.NoError(t, err)
	assert.Equal(t, 0, sales.Missing)
}

func TestLooksLikeIdentifier(t *testing.T) {
	assert.True(t, looksLikeIdentifier("user_id"))
	assert.True(t, looksLikeIdentifier("Index"))
	assert.False(t, looksLikeIdentifier("sales"))
}

func TestParseDate_Layouts(t *testing.T) {
	for _, v := range []string{"2023-01-05", "05-01-2023", "05/01/2023", "2023/01/05"} {
		d, err := ParseDate(v)
		require.NoError(t, err, v)
		assert.Equal(t, 2023, d.Year(), v)
	}
	_, err := ParseDate("not a date")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "date"))
}
