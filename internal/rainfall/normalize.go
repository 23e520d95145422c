package rainfall

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDatePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// timestampLayouts are tried in order when parsing record timestamps. The
// CDO API reports local timestamps without an offset; the ADS reports plain
// calendar dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeISODate reduces an upstream date string to YYYY-MM-DD. Upstream
// formats vary (full ISO timestamps, space-separated, trailing Z); anything
// unrecognizable is returned trimmed but otherwise unchanged, so the result
// is best-effort rather than an error. Normalizing an already normalized
// date is a no-op.
func NormalizeISODate(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	if m := isoDatePrefix.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	adjusted := strings.ReplaceAll(text, "Z", "+00:00")
	if ts, err := time.Parse("2006-01-02T15:04:05-07:00", adjusted); err == nil {
		return ts.Format(dateLayout)
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.Format(dateLayout)
		}
	}
	return text
}

// ParseTimestamp converts an upstream timestamp string into a UTC time with
// no offset retained.
func ParseTimestamp(value string) (time.Time, error) {
	text := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Schema tells Normalize which fields of a raw record hold the observation
// date and the rainfall value, and how strictly values are coerced.
type Schema struct {
	// DateFields and ValueFields are candidate field names, tried in order.
	DateFields  []string
	ValueFields []string

	// Coerce turns non-numeric values into NaN instead of failing the
	// whole batch.
	Coerce bool

	missingDateMsg  string
	missingValueMsg string
}

// PrimarySchema matches records from the CDO API and the generic JSON/CSV
// service. Values are expected to be numeric already; coercion failures are
// not special-cased.
func PrimarySchema() Schema {
	return Schema{
		DateFields:      []string{"date", "Datetime", "DATE"},
		ValueFields:     []string{"value", "Rainfall"},
		missingDateMsg:  "response missing 'date' field",
		missingValueMsg: "response missing 'value' field",
	}
}

// FallbackSchema matches records from the ADS, which names its columns
// after datatype identifiers. The requested datatype is tried exact, upper
// and lower case before the fixed list of common precipitation names.
func FallbackSchema(datatype string) Schema {
	var values []string
	if datatype != "" {
		for _, candidate := range []string{datatype, strings.ToUpper(datatype), strings.ToLower(datatype)} {
			if !contains(values, candidate) {
				values = append(values, candidate)
			}
		}
	}
	values = append(values, "PRCP", "prcp", "PRCP_MM", "PRCP_IN", "PRECIP", "precipitation", "value")

	return Schema{
		DateFields:      []string{"DATE", "date", "Date"},
		ValueFields:     values,
		Coerce:          true,
		missingDateMsg:  "response missing date field",
		missingValueMsg: "response missing rainfall field",
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Normalize maps heterogeneous raw records into a canonical series sorted
// ascending by timestamp. It returns a SchemaError when no date-like or
// value-like field can be located across the record set. Values pass
// through untouched; unit conversion is an upstream server responsibility.
func Normalize(records []Record, schema Schema) (Series, error) {
	if len(records) == 0 {
		return Series{}, nil
	}

	fields := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			fields[k] = struct{}{}
		}
	}

	dateField, ok := firstPresent(schema.DateFields, fields)
	if !ok {
		return nil, &SchemaError{Msg: schema.missingDateMsg}
	}
	valueField, ok := firstPresent(schema.ValueFields, fields)
	if !ok {
		return nil, &SchemaError{Msg: schema.missingValueMsg}
	}

	series := make(Series, 0, len(records))
	for _, rec := range records {
		raw, ok := rec[dateField]
		if !ok {
			continue
		}
		ts, err := ParseTimestamp(fmt.Sprintf("%v", raw))
		if err != nil {
			return nil, &SchemaError{Msg: err.Error()}
		}

		value, err := coerceValue(rec[valueField], schema.Coerce)
		if err != nil {
			return nil, &SchemaError{Msg: err.Error()}
		}
		series = append(series, Point{Timestamp: ts, Value: value})
	}

	series.Sort()
	return series, nil
}

func firstPresent(candidates []string, fields map[string]struct{}) (string, bool) {
	for _, c := range candidates {
		if _, ok := fields[c]; ok {
			return c, true
		}
	}
	return "", false
}

func coerceValue(raw any, coerce bool) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, nil
		}
	}
	if coerce {
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("non-numeric rainfall value %v", raw)
}
