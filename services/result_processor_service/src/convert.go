package resultprocessor

import (
	"fmt"
	"strconv"
	"time"
)

// toFloat coerces the many shapes a raw SQL scan can hand back for a
// numeric column (float64, int64, []byte, string, decimal string) into a
// float64, defaulting to 0 when the value is absent or unparsable.
func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		f, _ := strconv.ParseFloat(fmt.Sprintf("%v", t), 64)
		return f
	}
}

func toBool(v interface{}, def bool) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	default:
		return def
	}
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// firstNonEmpty returns row[a] if present and non-nil, else row[b].
func firstNonEmpty(row Row, a, b string) interface{} {
	if v, ok := row[a]; ok && v != nil {
		return v
	}
	return row[b]
}

func toTimeString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return time.Now().UTC().Format(time.RFC3339)
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
