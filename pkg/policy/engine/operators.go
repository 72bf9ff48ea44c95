package engine

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"vigil-hq/vigil/pkg/policy/ast"
)

// operatorFunc evaluates one comparison operator. Every function is pure:
// the result depends only on the actual value, the expected value, and
// the reference time.
type operatorFunc func(actual, expected any, now time.Time) (bool, error)

// operatorFuncs is the closed dispatch table for leaf operators. The
// presence-testing operators (exists/not_exists) are handled separately
// because they act on field presence rather than the field value.
var operatorFuncs = map[ast.Operator]operatorFunc{
	ast.OperatorEquals: evaluateEquals,
	ast.OperatorNotEquals: func(actual, expected any, now time.Time) (bool, error) {
		eq, err := evaluateEquals(actual, expected, now)
		return !eq, err
	},
	ast.OperatorGreaterThan: func(actual, expected any, _ time.Time) (bool, error) {
		a, b, err := toNumeric(actual, expected)
		if err != nil {
			return false, err
		}
		return a > b, nil
	},
	ast.OperatorLessThan: func(actual, expected any, _ time.Time) (bool, error) {
		a, b, err := toNumeric(actual, expected)
		if err != nil {
			return false, err
		}
		return a < b, nil
	},
	ast.OperatorGreaterOrEqual: func(actual, expected any, _ time.Time) (bool, error) {
		a, b, err := toNumeric(actual, expected)
		if err != nil {
			return false, err
		}
		return a >= b, nil
	},
	ast.OperatorLessOrEqual: func(actual, expected any, _ time.Time) (bool, error) {
		a, b, err := toNumeric(actual, expected)
		if err != nil {
			return false, err
		}
		return a <= b, nil
	},
	ast.OperatorContains: evaluateContains,
	ast.OperatorNotContains: func(actual, expected any, now time.Time) (bool, error) {
		contained, err := evaluateContains(actual, expected, now)
		return !contained, err
	},
	ast.OperatorIn: evaluateIn,
	ast.OperatorNotIn: func(actual, expected any, now time.Time) (bool, error) {
		in, err := evaluateIn(actual, expected, now)
		return !in, err
	},
	ast.OperatorExpired: func(actual, _ any, now time.Time) (bool, error) {
		t, err := toTime(actual)
		if err != nil {
			return false, err
		}
		return t.Before(now), nil
	},
	ast.OperatorNotExpired: func(actual, _ any, now time.Time) (bool, error) {
		t, err := toTime(actual)
		if err != nil {
			return false, err
		}
		return !t.Before(now), nil
	},
	ast.OperatorWithinDays:   evaluateWithinDays,
	ast.OperatorMatchesRegex: evaluateMatchesRegex,
}

// evaluateEquals checks value equality, comparing numerically when both
// sides convert to numbers (handles int vs float64 from YAML/JSON).
func evaluateEquals(actual, expected any, _ time.Time) (bool, error) {
	if actual == nil && expected == nil {
		return true, nil
	}
	if actual == nil || expected == nil {
		return false, nil
	}

	aNum, aErr := toFloat64(actual)
	bNum, bErr := toFloat64(expected)
	if aErr == nil && bErr == nil {
		return aNum == bNum, nil
	}

	if aStr, ok := actual.(string); ok {
		if bStr, ok := expected.(string); ok {
			return aStr == bStr, nil
		}
	}

	return reflect.DeepEqual(actual, expected), nil
}

// evaluateContains checks substring containment for strings and element
// membership for slices.
func evaluateContains(actual, expected any, _ time.Time) (bool, error) {
	if actualStr, ok := actual.(string); ok {
		expectedStr, ok := toString(expected)
		if !ok {
			return false, fmt.Errorf("contains requires a string expected value")
		}
		return strings.Contains(actualStr, expectedStr), nil
	}
	return containsElement(actual, expected)
}

// evaluateIn checks whether actual is a member of the expected list.
func evaluateIn(actual, expected any, _ time.Time) (bool, error) {
	expectedVal := reflect.ValueOf(expected)
	if expectedVal.Kind() != reflect.Slice && expectedVal.Kind() != reflect.Array {
		return false, fmt.Errorf("in requires a list expected value, got %T", expected)
	}

	for i := 0; i < expectedVal.Len(); i++ {
		elem := expectedVal.Index(i).Interface()
		eq, err := evaluateEquals(actual, elem, time.Time{})
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}

// evaluateWithinDays checks whether a date-valued field falls within the
// next N days: ceil((fieldDate - now) / 24h) <= expected. Dates already
// in the past count as within.
func evaluateWithinDays(actual, expected any, now time.Time) (bool, error) {
	t, err := toTime(actual)
	if err != nil {
		return false, err
	}

	limit, err := toFloat64(expected)
	if err != nil {
		return false, fmt.Errorf("within_days requires a numeric expected value: %w", err)
	}

	days := math.Ceil(t.Sub(now).Hours() / 24)
	return days <= limit, nil
}

// evaluateMatchesRegex checks actual against the expected regex pattern.
func evaluateMatchesRegex(actual, expected any, _ time.Time) (bool, error) {
	actualStr, ok := toString(actual)
	if !ok {
		return false, fmt.Errorf("matches_regex requires a string actual value")
	}

	pattern, ok := expected.(string)
	if !ok {
		return false, fmt.Errorf("matches_regex requires a string pattern")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}

	return re.MatchString(actualStr), nil
}

// containsElement checks if a slice/array contains an element.
func containsElement(slice, elem any) (bool, error) {
	sliceVal := reflect.ValueOf(slice)
	if sliceVal.Kind() != reflect.Slice && sliceVal.Kind() != reflect.Array {
		return false, fmt.Errorf("contains on non-string requires a list, got %T", slice)
	}

	for i := 0; i < sliceVal.Len(); i++ {
		eq, err := evaluateEquals(sliceVal.Index(i).Interface(), elem, time.Time{})
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}

// toNumeric converts both sides to float64 for ordered comparison.
func toNumeric(actual, expected any) (float64, float64, error) {
	a, err := toFloat64(actual)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot convert actual value to number: %w", err)
	}

	b, err := toFloat64(expected)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot convert expected value to number: %w", err)
	}

	return a, b, nil
}

// toFloat64 converts a value to float64.
func toFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toString converts a value to string.
func toString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// dateFormats are the accepted layouts for date-valued fields that arrive
// as strings (document stores serialize dates inconsistently).
var dateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// toTime converts a value to time.Time.
func toTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, fmt.Errorf("nil time value")
		}
		return *val, nil
	case string:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, val); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as a date", val)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to a date", v)
	}
}
