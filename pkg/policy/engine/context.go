package engine

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Context is the flattened data a condition tree is evaluated against:
// the vendor's compliance profile fields merged with the vendor record
// fields, with profile values taking precedence on name collision.
//
// Now is the reference time for the date operators (expired, within_days).
// Passing it explicitly keeps evaluation a pure function of its inputs.
type Context struct {
	Data map[string]any
	Now  time.Time
}

// NewContext merges profile and vendor field maps into an evaluation
// context. Profile fields win on collision. The reference time defaults
// to time.Now when zero.
func NewContext(profile, vendor map[string]any, now time.Time) *Context {
	data := make(map[string]any, len(profile)+len(vendor))
	for k, v := range vendor {
		data[k] = v
	}
	for k, v := range profile {
		data[k] = v
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Context{Data: data, Now: now}
}

// Lookup resolves a dotted field path (e.g. "sanctionsStatus.status")
// against the context data. The second return is false when any path
// segment is missing.
func (c *Context) Lookup(fieldPath string) (any, bool) {
	if c == nil || c.Data == nil || fieldPath == "" {
		return nil, false
	}

	parts := strings.Split(fieldPath, ".")
	var current any = c.Data

	for _, part := range parts {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, false
			}
			current = next

		case map[string]string:
			next, ok := v[part]
			if !ok {
				return nil, false
			}
			current = next

		default:
			// Fall back to reflection for struct-valued fields.
			next, err := structField(current, part)
			if err != nil {
				return nil, false
			}
			current = next
		}
	}

	return current, true
}

// structField resolves one path segment on a struct value, matching the
// field name case-insensitively.
func structField(obj any, name string) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("nil value in field path")
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("nil pointer in field path")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot access field %q on %s", name, v.Kind())
	}

	f := v.FieldByNameFunc(func(fieldName string) bool {
		return strings.EqualFold(fieldName, name)
	})
	if !f.IsValid() {
		return nil, fmt.Errorf("field %q not found", name)
	}
	if !f.CanInterface() {
		return nil, fmt.Errorf("cannot access unexported field %q", name)
	}

	return f.Interface(), nil
}
