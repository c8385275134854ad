// Package datasets holds the per-country dataset descriptors. Each
// file declares one dataset and registers it at init time; the
// conversion machinery itself lives in internal/convert.
package datasets

import (
	"fmt"
	"regexp"

	"github.com/fiboa/converter/internal/dataset"
)

// mapValues returns a column migration replacing each value through a
// lookup table. Unmapped or non-string values become fallback, which
// may be nil.
func mapValues(mapping map[string]any, fallback any) dataset.ColumnMigration {
	return func(values []any) ([]any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				out[i] = fallback
				continue
			}
			if mapped, found := mapping[s]; found {
				out[i] = mapped
				continue
			}
			out[i] = fallback
		}
		return out, nil
	}
}

// splitValues returns a column migration splitting a delimited string
// field into an array-of-string field. Nulls stay null.
func splitValues(delimiter *regexp.Regexp) dataset.ColumnMigration {
	return func(values []any) ([]any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("row %d: expected string, got %T", i, v)
			}
			out[i] = delimiter.Split(s, -1)
		}
		return out, nil
	}
}

// equals returns a row filter keeping rows whose value matches.
func equals(want string) dataset.ColumnFilter {
	return func(values []any) []bool {
		mask := make([]bool, len(values))
		for i, v := range values {
			mask[i] = v == want
		}
		return mask
	}
}
