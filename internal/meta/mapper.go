package meta

import (
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// VALUE COERCION
// Graph API responses mix native JSON numbers with stringified numerics,
// so every row value goes through a tolerant converter.
// =============================================================================

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return 0
	}
}

func toInt(v any) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int64(f)
		}
		return 0
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		return 0
	case int:
		return int64(val)
	case int64:
		return val
	default:
		return 0
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// nullableFloat maps missing and zero numerics to NULL, used for bid
// fields where zero means unset.
func nullableFloat(v any) any {
	f := toFloat(v)
	if f == 0 {
		return nil
	}
	return f
}

// jsonField serializes a nested structure to a JSON string column,
// collapsing missing or unencodable values to "{}".
func jsonField(v any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// joinIDs flattens a list of identifiers into one comma-separated string.
func joinIDs(v any) string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	joined := ""
	for i, item := range list {
		if i > 0 {
			joined += ","
		}
		joined += toString(item)
	}
	return joined
}

// =============================================================================
// DATE HANDLING
// Timestamp fields are truncated to a plain date; unparseable input maps
// to NULL rather than aborting a row.
// =============================================================================

var dateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateOnly truncates a timestamp value to YYYY-MM-DD, or NULL when the
// value is absent or malformed.
func dateOnly(v any) any {
	s := toString(v)
	if s == "" {
		return nil
	}
	t, ok := parseDate(s)
	if !ok {
		return nil
	}
	return t.Format("2006-01-02")
}

// dateParts derives the ISO week number plus calendar month and year from
// a YYYY-MM-DD date, all NULL when the date is missing.
func dateParts(date string) (week, month, year any) {
	if date == "" {
		return nil, nil, nil
	}
	t, ok := parseDate(date)
	if !ok {
		return nil, nil, nil
	}
	_, isoWeek := t.ISOWeek()
	return int64(isoWeek), int64(t.Month()), int64(t.Year())
}
