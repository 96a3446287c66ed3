package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// coercePriority parses a raw priority value into an integer inside
// [PriorityMin, PriorityMax]. Non-numeric and non-finite values fall back
// to PriorityDefault; out-of-range numbers are clamped.
func coercePriority(raw any) int {
	switch v := raw.(type) {
	case nil:
		return types.PriorityDefault
	case int:
		return ClampPriority(v)
	case int64:
		return ClampPriority(int(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.PriorityDefault
		}
		return ClampPriority(int(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return types.PriorityDefault
		}
		return coercePriority(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return types.PriorityDefault
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.PriorityDefault
		}
		return coercePriority(f)
	default:
		return types.PriorityDefault
	}
}

// epochMillisCutoff separates unix-seconds from unix-millis timestamps.
// Anything above it is treated as milliseconds.
const epochMillisCutoff = int64(1e11)

// CoerceInstant converts a raw date value into an instant. Accepted shapes:
// an RFC 3339 / ISO 8601 string, a unix timestamp number (seconds or
// milliseconds), or a {"seconds": n} wire object. Unparsable values yield
// nil, meaning no deadline.
func CoerceInstant(raw any) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v.UTC()
		return &t
	case *time.Time:
		if v == nil {
			return nil
		}
		return CoerceInstant(*v)
	case string:
		return ParseInstant(v)
	case int:
		return fromEpoch(int64(v))
	case int64:
		return fromEpoch(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return fromEpoch(int64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return fromEpoch(i)
		}
		return nil
	case map[string]any:
		if sec, ok := v["seconds"]; ok {
			return CoerceInstant(sec)
		}
		return nil
	default:
		return nil
	}
}

// instantLayouts are the date string formats accepted by ParseInstant, in
// order of preference.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses a date string into an instant, or nil when the string
// is empty or matches no accepted layout.
func ParseInstant(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// fromEpoch interprets a unix timestamp, guessing seconds vs milliseconds
// by magnitude. Non-positive values are treated as absent.
func fromEpoch(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var t time.Time
	if n > epochMillisCutoff {
		t = time.UnixMilli(n).UTC()
	} else {
		t = time.Unix(n, 0).UTC()
	}
	return &t
}

// CoerceStringSet converts a scalar-or-array value into a deduplicated,
// order-preserving slice of trimmed non-empty strings. Returns nil when
// nothing usable remains.
func CoerceStringSet(raw any) []string {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		items = []string{v}
	case []string:
		items = v
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				items = append(items, s)
			}
		}
	default:
		return nil
	}

	var out []string
	seen := make(map[string]bool, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
