package flow

import (
	"time"
)

// Params is an immutable key-value configuration object bound to a node
// when it is added to a graph. It is visible only inside that node's
// lifecycle calls, via Context.Params.
//
// Unlike Shared, Params never fails: accessors return the provided default
// when a key is missing or the value cannot be converted. Configuration
// gaps fall back to sane node defaults instead of aborting a run.
type Params struct {
	data map[string]any
}

// NewParams creates Params from the given map. The map is copied, so later
// mutation of the argument does not affect the Params.
func NewParams(data map[string]any) Params {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return Params{data: copied}
}

// Has returns true if key is present.
func (p Params) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Len returns the number of entries.
func (p Params) Len() int {
	return len(p.data)
}

// Value returns the raw value for key and whether it exists.
func (p Params) Value(key string) (any, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Merge returns new Params layering over on top of p. Keys present in over
// win. Neither receiver nor argument is modified; batch flows use this to
// scope an iteration's parameter set over the node's bound Params.
func (p Params) Merge(over Params) Params {
	merged := make(map[string]any, len(p.data)+len(over.data))
	for k, v := range p.data {
		merged[k] = v
	}
	for k, v := range over.data {
		merged[k] = v
	}
	return Params{data: merged}
}

// String returns the string value for key, or defaultVal if missing or not
// a string.
func (p Params) String(key, defaultVal string) string {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible. Accepts int, int64, and float64 without a fractional part.
func (p Params) Int(key string, defaultVal int) int {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not
// convertible.
func (p Params) Float(key string, defaultVal float64) float64 {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not
// a bool.
func (p Params) Bool(key string, defaultVal bool) bool {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or
// invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (p Params) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing
// or not convertible. A []any is accepted when every element is a string.
func (p Params) StringSlice(key string, defaultVal []string) []string {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}
