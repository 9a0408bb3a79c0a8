package config

import (
	"sort"
	"time"
)

// Config is a read-only view over a decoded map. Accessors never fail: a
// missing key or a value of the wrong shape yields the caller's default.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map behaves like an empty one.
func New(data map[string]any) Config {
	if data == nil {
		data = map[string]any{}
	}
	return Config{data: data}
}

func (c Config) lookup(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok && v != nil
}

// String returns the string at key.
func (c Config) String(key, defaultVal string) string {
	if s, ok := get[string](c, key); ok {
		return s
	}
	return defaultVal
}

// Bool returns the bool at key.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := get[bool](c, key); ok {
		return b
	}
	return defaultVal
}

// Duration returns the duration at key. Strings use time.ParseDuration and
// bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case time.Duration:
		return val
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return defaultVal
}

// Int returns the integer at key. A float64 is accepted only when it has no
// fractional part, which is how JSON numbers arrive.
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.lookup(key)
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

// Float returns the number at key as a float64.
func (c Config) Float(key string, defaultVal float64) float64 {
	v, ok := c.lookup(key)
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

// StringSlice returns the list of strings at key. A list holding anything
// other than strings yields the default.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	v, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Sub returns the nested mapping at key as a Config. A missing key or a
// non-mapping value yields an empty Config.
func (c Config) Sub(key string) Config {
	v, _ := c.lookup(key)
	switch m := v.(type) {
	case map[string]any:
		return New(m)
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return New(out)
	}
	return New(nil)
}

// Keys returns the top-level keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Any returns the raw value at key.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return defaultVal
}

// Has reports whether key is present, even with a null value.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}

func get[T any](c Config, key string) (T, bool) {
	v, ok := c.lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
