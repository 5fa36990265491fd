package changelog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the accepted textual date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// hasChanged reports whether old and new differ semantically. It encodes the
// intentional tolerance policy of the tracker: values that render or round to
// the same thing are not a change.
//
// Decision order:
//  1. both empty (nil or "") — unchanged, regardless of type
//  2. date-like on either side — compared at calendar-day granularity (UTC);
//     time-of-day differences are not a change
//  3. numeric on at least one side, both coercible — compared as numbers, so
//     "500" versus 500 is not a change
//  4. both strings — compared after trimming whitespace
//  5. both booleans — strict comparison
//  6. terminal fallback: compareAsStrings
func hasChanged(oldVal, newVal any) bool {
	if isEmptyValue(oldVal) && isEmptyValue(newVal) {
		return false
	}

	if isDateLike(oldVal) || isDateLike(newVal) {
		return !sameCalendarDay(oldVal, newVal)
	}

	if isNumericType(oldVal) || isNumericType(newVal) {
		oldNum, oldOK := coerceNumber(oldVal)
		newNum, newOK := coerceNumber(newVal)
		if oldOK && newOK {
			return oldNum != newNum
		}
	}

	if oldStr, ok := oldVal.(string); ok {
		if newStr, ok := newVal.(string); ok {
			return strings.TrimSpace(oldStr) != strings.TrimSpace(newStr)
		}
	}

	if oldBool, ok := oldVal.(bool); ok {
		if newBool, ok := newVal.(bool); ok {
			return oldBool != newBool
		}
	}

	return compareAsStrings(oldVal, newVal)
}

// compareAsStrings is the named terminal branch of the equality decision:
// both sides are stringified and compared. It guarantees the diff never
// fails on an unexpected value shape, trading precision for availability.
func compareAsStrings(oldVal, newVal any) bool {
	return stringify(oldVal) != stringify(newVal)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// isEmptyValue treats nil and the empty string as interchangeable absence.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// isNumericType reports whether v is a genuinely numeric Go value,
// as opposed to a string that merely parses as a number.
func isNumericType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number, decimal.Decimal:
		return true
	}
	return false
}

// asNumber converts a numeric Go value to float64.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}

// coerceNumber converts numeric values and numeric strings to float64.
func coerceNumber(v any) (float64, bool) {
	if f, ok := asNumber(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// isDateLike reports whether v is a native time or a string that parses as
// one of the accepted date layouts.
func isDateLike(v any) bool {
	_, ok := asTime(v)
	return ok
}

// asTime extracts a time.Time from native times and date strings.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// sameCalendarDay compares two date-like values by year, month, and day in
// UTC, ignoring time of day. If either side does not resolve to a time, it
// falls back to string equality so malformed inputs never error out.
func sameCalendarDay(oldVal, newVal any) bool {
	oldTime, oldOK := asTime(oldVal)
	newTime, newOK := asTime(newVal)
	if !oldOK || !newOK {
		return stringify(oldVal) == stringify(newVal)
	}
	oy, om, od := oldTime.UTC().Date()
	ny, nm, nd := newTime.UTC().Date()
	return oy == ny && om == nm && od == nd
}
