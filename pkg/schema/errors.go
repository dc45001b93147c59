package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/emergence/pkg/domain"
)

// AggregateError represents multiple structural violations.
type AggregateError struct {
	Errors []*domain.StructuralError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes every violation to errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Violations returns all structural violations carried by err, or nil.
func Violations(err error) []*domain.StructuralError {
	switch e := err.(type) {
	case *AggregateError:
		return e.Errors
	case *domain.StructuralError:
		return []*domain.StructuralError{e}
	}
	return nil
}
