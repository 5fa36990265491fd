package changelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planline-io/planline/internal/model"
)

func TestHasChangedToleranceRules(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)

	tests := []struct {
		name    string
		oldVal  any
		newVal  any
		changed bool
	}{
		// Emptiness: nil and "" are interchangeable absence.
		{"nil vs nil", nil, nil, false},
		{"nil vs empty string", nil, "", false},
		{"empty string vs nil", "", nil, false},
		{"nil vs value", nil, "x", true},
		{"empty string vs zero", "", 0, true},

		// Numeric comparison, including numeric-string coercion.
		{"equal ints", 500, 500, false},
		{"int vs float same magnitude", 500, 500.0, false},
		{"numeric string vs number", "500", 500, false},
		{"number vs numeric string", 500.5, "500.5", false},
		{"numeric string vs different number", "500", 501, true},
		{"int64 vs int", int64(42), 42, false},

		// Strings compare after trimming; string-string stays textual even
		// when both happen to parse as numbers.
		{"strings differing in whitespace", "  hello ", "hello", false},
		{"different strings", "hello", "world", true},
		{"numeric strings compared textually", "500", "500.0", true},

		// Dates compare at calendar-day granularity, time of day ignored.
		{"same day different hours (strings)",
			"2025-01-15T09:00:00Z", "2025-01-15T23:00:00Z", false},
		{"different days (strings)",
			"2025-01-15T23:00:00Z", "2025-01-16T01:00:00Z", true},
		{"same day different hours (times)",
			time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC), false},
		{"time vs string same day",
			time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC), "2025-01-15", false},
		{"tz offset crossing UTC midnight",
			time.Date(2025, 1, 16, 5, 0, 0, 0, seoul), // 2025-01-15T20:00Z
			"2025-01-15T08:00:00Z", false},
		{"date vs unparseable string", "2025-01-15", "soon", true},
		{"date vs nil", "2025-01-15", nil, true},

		// Booleans compare strictly.
		{"equal bools", true, true, false},
		{"different bools", true, false, true},

		// Terminal fallback: stringified comparison.
		{"bool vs string stringified", true, "true", false},
		{"bool vs number", true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.changed, hasChanged(tt.oldVal, tt.newVal),
				"hasChanged(%#v, %#v)", tt.oldVal, tt.newVal)
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"nil renders as not set", "weight", nil, notSetLabel},
		{"weight gets unit suffix", "weight", 500, "500kg"},
		{"weight fractional", "weight", 12.5, "12.5kg"},
		{"order quantity grouped", "orderQuantity", 1000, "1,000 pcs"},
		{"order quantity large", "orderQuantity", 1234567, "1,234,567 pcs"},
		{"repeat count", "repeatCount", 3, "3 times"},
		{"status translated", "status", "IN_PRODUCTION", "In production"},
		{"status unknown passes through", "status", "ARCHIVED", "ARCHIVED"},
		{"work type translated", "workType", "OVEN", "Oven"},
		{"date formatted", "desiredDate", "2025-01-15T09:00:00Z", "January 15"},
		{"company name verbatim", "companyName", "Sunrise Bakery", "Sunrise Bakery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatValue(model.Field(tt.field), tt.value)
			assert.Equal(t, tt.want, got)
		})
	}
}
