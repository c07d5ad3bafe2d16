package model

import (
	"fmt"
	"strconv"
)

// Coerce reconciles a driver-returned value with t, resolving spec.md
// §9 Open Question #1: different drivers hand back different Go types
// for the same logical column (int64 vs int, []byte vs string, and so
// on), and row materialization needs one settled value per Attribute
// before it reaches a Snapshot. nil always passes through unchanged —
// nullability is Attribute.Nullable's concern, not Coerce's.
//
// Adapted from the teacher's utils/conv_utils.go (ToBool/ToInt64/
// ToFloat64/ToString/ToInt/ToFloat32), folded into one Attribute-typed
// entry point instead of a family of untyped free functions, since
// here the target type is always known from the Attribute being
// materialized.
func Coerce(t ValueType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeBool:
		return toBool(v), nil
	case TypeInt:
		return toInt64(v), nil
	case TypeInt64:
		return toInt64(v), nil
	case TypeFloat:
		return toFloat64(v), nil
	case TypeDecimal:
		return toFloat64(v), nil
	case TypeString, TypeDateTime:
		return toString(v), nil
	case TypeBytes:
		return toBytes(v), nil
	case TypeJSON:
		return v, nil
	default:
		return nil, fmt.Errorf("model: coerce: unknown value type %q", t)
	}
}

func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case uint:
		return val != 0
	case uint32:
		return val != 0
	case uint64:
		return val != 0
	case float32:
		return val != 0
	case float64:
		return val != 0
	case string:
		switch val {
		case "true", "TRUE", "True", "1", "yes", "YES", "Yes":
			return true
		case "false", "FALSE", "False", "0", "no", "NO", "No", "":
			return false
		default:
			if n, err := strconv.ParseFloat(val, 64); err == nil {
				return n != 0
			}
			return false
		}
	case []byte:
		return toBool(string(val))
	default:
		return false
	}
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	case int8:
		return int64(val)
	case uint:
		return int64(val)
	case uint64:
		return int64(val)
	case uint32:
		return int64(val)
	case uint16:
		return int64(val)
	case uint8:
		return int64(val)
	case float64:
		return int64(val)
	case float32:
		return int64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int64(f)
		}
		return 0
	case []byte:
		return toInt64(string(val))
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case int16:
		return float64(val)
	case int8:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case uint16:
		return float64(val)
	case uint8:
		return float64(val)
	case bool:
		if val {
			return 1.0
		}
		return 0.0
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		return 0.0
	case []byte:
		return toFloat64(string(val))
	default:
		return 0.0
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toBytes(v any) []byte {
	switch val := v.(type) {
	case []byte:
		return val
	case string:
		return []byte(val)
	default:
		return []byte(toString(val))
	}
}
