package conv

import (
	"fmt"
	"strconv"
)

// AsInt attempts to coerce various numeric types into a plain int.
func AsInt(v any) (int, bool) {
	switch actual := v.(type) {
	case int:
		return actual, true
	case int32:
		return int(actual), true
	case int64:
		return int(actual), true
	case uint64:
		return int(actual), true
	case float32:
		return int(actual), true
	case float64:
		return int(actual), true
	case string:
		if n, err := strconv.Atoi(actual); err == nil {
			return n, true
		}
	}
	return 0, false
}

// AsKey normalizes a JSON-RPC id into a stable map key. JSON numbers arrive
// as float64 after unmarshalling, so an id sent as 7 and echoed back as 7.0
// must map to the same key.
func AsKey(v any) string {
	if v == nil {
		return ""
	}
	if n, ok := AsInt(v); ok {
		return strconv.Itoa(n)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
