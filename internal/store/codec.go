package store

import (
	"fmt"
	"time"
)

// Helpers for model codecs.

func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Row) StringPtr(col string) *string {
	s, ok := r[col].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		t, _ := parseTime(v)
		return t
	}
	return time.Time{}
}

// Many decodes a loaded to-many relation. An unloaded relation yields nil.
func Many[T any](r Row, rel string, decode func(Row) (T, error)) ([]T, error) {
	raw, ok := r[rel]
	if !ok || raw == nil {
		return nil, nil
	}
	rows, ok := raw.([]Row)
	if !ok {
		return nil, fmt.Errorf("relation %s: want []Row, got %T", rel, raw)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := decode(row)
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", rel, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// One decodes a loaded to-one relation. An unloaded or absent relation yields nil.
func One[T any](r Row, rel string, decode func(Row) (T, error)) (*T, error) {
	raw, ok := r[rel]
	if !ok || raw == nil {
		return nil, nil
	}
	row, ok := raw.(Row)
	if !ok {
		return nil, fmt.Errorf("relation %s: want Row, got %T", rel, raw)
	}
	v, err := decode(row)
	if err != nil {
		return nil, fmt.Errorf("relation %s: %w", rel, err)
	}
	return &v, nil
}

// Nullable turns a nil pointer into an untyped nil for Encode.
func Nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
