// Package changelog detects semantic field-level changes to order plans,
// renders human-readable summaries, and keeps a bounded in-memory feed of
// change records with read/unread state.
package changelog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/planline-io/planline/internal/model"
)

// notSetLabel renders empty values in descriptions.
const notSetLabel = "not set"

// fieldLabel returns the display label for a tracked field. The switch is
// exhaustive over model.TrackedFields.
func fieldLabel(f model.Field) string {
	switch f {
	case model.FieldWorkType:
		return "work type"
	case model.FieldStatus:
		return "status"
	case model.FieldWeight:
		return "weight"
	case model.FieldRepeatProgress:
		return "progress count"
	case model.FieldRepeatCount:
		return "total repeat count"
	case model.FieldDesiredDate:
		return "scheduled date"
	case model.FieldDeliveryDate:
		return "delivery date"
	case model.FieldOrderQuantity:
		return "order quantity"
	case model.FieldCompanyName:
		return "company name"
	case model.FieldProductName:
		return "product name"
	default:
		return string(f)
	}
}

// workTypeLabels translates work type codes to display labels.
var workTypeLabels = map[string]string{
	"OVEN":      "Oven",
	"MIXING":    "Mixing",
	"PACKAGING": "Packaging",
	"SORTING":   "Sorting",
}

// statusLabels translates order plan status codes to display labels.
var statusLabels = map[string]string{
	"PLANNED":              "Planned",
	"IN_PRODUCTION":        "In production",
	"PRODUCTION_COMPLETED": "Production completed",
	"INSPECTION":           "Inspection",
	"SHIPPING":             "Shipping",
	"DELIVERY_COMPLETED":   "Delivery completed",
}

// formatValue renders one field value for humans: enumerated codes become
// display labels, quantities get unit suffixes, dates get calendar
// formatting. Unexpected value shapes degrade to plain stringification
// rather than failing.
func formatValue(f model.Field, v any) string {
	if isEmptyValue(v) {
		return notSetLabel
	}

	switch f {
	case model.FieldWorkType:
		if label, ok := workTypeLabels[fmt.Sprint(v)]; ok {
			return label
		}
		return fmt.Sprint(v)
	case model.FieldStatus:
		if label, ok := statusLabels[fmt.Sprint(v)]; ok {
			return label
		}
		return fmt.Sprint(v)
	case model.FieldWeight:
		return formatNumber(v) + "kg"
	case model.FieldDesiredDate, model.FieldDeliveryDate:
		if t, ok := asTime(v); ok {
			return t.Format("January 2")
		}
		return fmt.Sprint(v)
	case model.FieldOrderQuantity:
		return groupDigits(formatNumber(v)) + " pcs"
	case model.FieldRepeatProgress, model.FieldRepeatCount:
		return formatNumber(v) + " times"
	case model.FieldCompanyName, model.FieldProductName:
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// formatNumber renders numeric values without a trailing ".0" for integral
// floats; non-numeric values fall back to plain stringification.
func formatNumber(v any) string {
	if f, ok := asNumber(v); ok {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// groupDigits inserts thousands separators into a plain integer string.
// Strings with fractional parts or signs are passed through per part.
func groupDigits(s string) string {
	intPart, rest := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	if len(intPart) <= 3 {
		if neg {
			intPart = "-" + intPart
		}
		return intPart + rest
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if neg {
		return "-" + b.String() + rest
	}
	return b.String() + rest
}

// describeChange builds the natural-language description for one field change.
func describeChange(f model.Field, oldVal, newVal any) string {
	return fmt.Sprintf("%s changed from %s to %s",
		fieldLabel(f), formatValue(f, oldVal), formatValue(f, newVal))
}
