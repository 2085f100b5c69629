// Package delta translates the remote delta-sync wire format into typed
// cache records.
//
// The wire payload is loosely typed: flat key/value rows, snake_case
// names with the occasional camelCase stray, numbers that arrive as
// float64 or string depending on the serializer, and plenty of missing
// optional fields. The readers in this file absorb all of that in one
// place so the per-kind mapping functions stay declarative.
package delta

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one wire-format resource row.
type Row map[string]any

// str returns the first present name as a string, or "".
func str(row Row, names ...string) string {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s
		case float64:
			// Some serializers ship numeric ids as numbers.
			if s == float64(int64(s)) {
				return strconv.FormatInt(int64(s), 10)
			}
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// strOr returns str(row, names...) or fallback when empty.
func strOr(row Row, fallback string, names ...string) string {
	if s := str(row, names...); s != "" {
		return s
	}
	return fallback
}

// intOr returns the first present name as an int, or fallback.
func intOr(row Row, fallback int, names ...string) int {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

// boolVal returns the first present name as a bool. Truthiness follows
// the wire's habits: true, nonzero numbers, and "true"/"1" all count.
func boolVal(row Row, names ...string) bool {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case float64:
			return b != 0
		case int:
			return b != 0
		case string:
			return b == "true" || b == "1"
		}
	}
	return false
}

// strSlice returns the first present name as a string slice, or nil.
func strSlice(row Row, names ...string) []string {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// dueDate extracts a plain calendar date from the row's due field, which
// arrives either flat ("due_date") or nested ({"due": {"date": ...}}).
// Datetime values are truncated to their date part.
func dueDate(row Row, names ...string) string {
	if nested, ok := row["due"].(map[string]any); ok {
		if s := str(Row(nested), "date"); s != "" {
			return clipDate(s)
		}
	}
	return clipDate(str(row, names...))
}

func clipDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

// canonicalURL synthesizes the app URL for a resource when the wire row
// omitted it.
func canonicalURL(kind, id string) string {
	return fmt.Sprintf("https://app.taskdeck.io/%s/%s", kind, id)
}
