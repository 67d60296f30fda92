package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when sniffing datetime columns. Mirrors the
// dd-mm-yyyy / yyyy-mm-dd families with -, /, . separators accepted on
// upload.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02/01/2006",
	"2006.01.02",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
}

// missingTokens are cell values treated as missing, compared case-insensitively.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// categoricalMaxDistinct is the distinct-value ceiling under which a string
// column is typed categorical regardless of row count.
const categoricalMaxDistinct = 20

// FromCSV parses CSV bytes into a typed dataset. The first record is the
// header. Column types are inferred per column: numeric if every non-missing
// cell parses as a float, datetime if every non-missing cell matches a known
// date layout, categorical for low-cardinality strings, text otherwise.
func FromCSV(data []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: empty input")
	}

	header := records[0]
	rows := records[1:]
	cols := make([]*Column, len(header))
	for i, name := range header {
		raw := make([]string, len(rows))
		for j, rec := range rows {
			if i < len(rec) {
				raw[j] = strings.TrimSpace(rec[i])
			}
		}
		cols[i] = inferColumn(strings.TrimSpace(name), raw)
	}
	return New(cols)
}

// inferColumn types a raw string column and converts its cells.
func inferColumn(name string, raw []string) *Column {
	missing := make([]bool, len(raw))
	present := 0
	for i, v := range raw {
		if missingTokens[strings.ToLower(v)] {
			missing[i] = true
		} else {
			present++
		}
	}

	if present > 0 {
		if floats, ok := tryNumeric(raw, missing); ok {
			return &Column{Name: name, Type: TypeNumeric, Floats: floats, Missing: missing}
		}
		if times, ok := tryDatetime(raw, missing); ok {
			return &Column{Name: name, Type: TypeDatetime, Times: times, Missing: missing}
		}
	}

	strs := make([]string, len(raw))
	distinct := map[string]bool{}
	for i, v := range raw {
		if missing[i] {
			continue
		}
		strs[i] = v
		distinct[v] = true
	}
	dtype := TypeText
	if present > 0 && (len(distinct) <= categoricalMaxDistinct || len(distinct)*2 <= present) {
		dtype = TypeCategorical
	}
	return &Column{Name: name, Type: dtype, Strings: strs, Missing: missing}
}

func tryNumeric(raw []string, missing []bool) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if missing[i] {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func tryDatetime(raw []string, missing []bool) ([]time.Time, bool) {
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		if missing[i] {
			continue
		}
		t, ok := parseDate(v)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// parseDate tries the supported layouts in order.
func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a user-supplied date string using the layouts accepted on
// upload, falling back to a zero time and an error.
func ParseDate(v string) (time.Time, error) {
	if t, ok := parseDate(strings.TrimSpace(v)); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, expected dd-mm-yyyy or yyyy-mm-dd", v)
}

// ToCSV serializes the current dataset state. Missing cells are written
// empty; datetimes use yyyy-mm-dd.
func (d *Dataset) ToCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(d.ColumnNames()); err != nil {
		return nil, err
	}
	for i := 0; i < d.Rows(); i++ {
		rec := make([]string, len(d.cols))
		for j, c := range d.cols {
			if c.Missing[i] {
				continue
			}
			switch c.Type {
			case TypeNumeric:
				rec[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
			case TypeDatetime:
				rec[j] = c.Times[i].Format("2006-01-02")
			default:
				rec[j] = c.Strings[i]
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
