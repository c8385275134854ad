package convert

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure aborts the run; the kinds exist so the
// calling layer can distinguish a descriptor bug from a data problem.
var (
	// ErrConfiguration marks a descriptor/source mismatch, e.g. a
	// filter or rename referencing a column that does not exist.
	ErrConfiguration = errors.New("configuration error")

	// ErrCoercion marks a value that cannot be converted to its
	// declared type or violates a declared constraint.
	ErrCoercion = errors.New("coercion error")

	// ErrCardinality marks a stage producing a column whose length no
	// longer matches the table's row count.
	ErrCardinality = errors.New("cardinality error")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func coercionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCoercion, fmt.Sprintf(format, args...))
}

func cardinalityErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCardinality, fmt.Sprintf(format, args...))
}
