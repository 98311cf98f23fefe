package content

import (
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Record is one raw source entry as decoded from a data file.
type Record map[string]any

// String returns the field as a string, or "" when missing or not scalar.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// StringPtr is String with empty values mapped to nil.
func (r Record) StringPtr(key string) *string {
	s := strings.TrimSpace(r.String(key))
	if s == "" {
		return nil
	}
	return &s
}

// Int returns the field as an int, or nil when missing or not numeric.
func (r Record) Int(key string) *int {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	if _, isBool := v.(bool); isBool {
		return nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &i
}

// Int64 returns the field as an int64, or nil when missing or not numeric.
func (r Record) Int64(key string) *int64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	if _, isBool := v.(bool); isBool {
		return nil
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return nil
	}
	return &i
}

// First returns the first non-empty string among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(r.String(k)); s != "" {
			return s
		}
	}
	return ""
}

// Raw returns the untouched value of a field.
func (r Record) Raw(key string) any {
	return r[key]
}

func logger() *zap.Logger {
	return zap.L().Named("content")
}
