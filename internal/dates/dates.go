// internal/dates/dates.go
package dates

import "time"

// Canonical is the format confirmed dates are written back in.
const Canonical = "2006-01-02"

// Text formats accepted for stored date columns, tried in order. Historical
// rows mix all four; first syntactically valid parse wins.
var textFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"02-01-2006",
}

// Normalize converts a value of unknown origin into a calendar date. It
// returns ok=false for anything it cannot interpret, never an error. The
// result is truncated to midnight UTC.
func Normalize(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return truncate(val), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return truncate(*val), true
	case int64:
		return truncate(time.Unix(val, 0).UTC()), true
	case int:
		return truncate(time.Unix(int64(val), 0).UTC()), true
	case float64:
		return truncate(time.Unix(int64(val), 0).UTC()), true
	case string:
		return NormalizeString(val)
	default:
		return time.Time{}, false
	}
}

// NormalizeString parses a stored text date, trying each accepted format in
// order. Empty strings and unparseable values yield ok=false.
func NormalizeString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range textFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), true
		}
	}
	return time.Time{}, false
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
