package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one report row exactly as delivered by the upstream backend:
// a loose field-name to value mapping. No schema validation is applied
// beyond presence checks at render/export time.
type Record map[string]any

// stringify converts an upstream value to its display string. Numbers
// arrive as float64 from JSON decoding; whole values drop the fraction.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(val)
	}
}

// Display resolves a field with the formatted-over-raw precedence rule.
// The upstream backend is inconsistent about which of {field,
// field_formatted} is populated, and sometimes populates the formatted
// variant with the literal string "undefined". Precedence: formatted if
// present and valid, else raw, else empty.
func (r Record) Display(rawKey, formattedKey string) string {
	if formattedKey != "" {
		if v, ok := r[formattedKey]; ok {
			s := stringify(v)
			if s != "" && s != "undefined" {
				return s
			}
		}
	}
	if v, ok := r[rawKey]; ok {
		s := stringify(v)
		if s != "undefined" {
			return s
		}
	}
	return ""
}

// historyFieldOrder lists the entry fields worth surfacing when a nested
// history entry is flattened to text, in display order.
var historyFieldOrder = []string{"agent", "queue", "name", "event", "enter_time", "exit_time", "time"}

// FlattenHistory converts a nested call-history value (a list of entry
// maps) into a single line of text for table cells and CSV fields.
func FlattenHistory(v any) string {
	entries, ok := v.([]any)
	if !ok {
		return stringify(v)
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			parts = append(parts, stringify(e))
			continue
		}
		fields := make([]string, 0, len(historyFieldOrder))
		for _, key := range historyFieldOrder {
			if fv, ok := m[key]; ok {
				if s := stringify(fv); s != "" {
					fields = append(fields, s)
				}
			}
		}
		if len(fields) > 0 {
			parts = append(parts, strings.Join(fields, " "))
		}
	}
	return strings.Join(parts, " | ")
}
