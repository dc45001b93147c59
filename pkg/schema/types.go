package schema

import "fmt"

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "mapping").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// NonEmptyStringType accepts strings with at least one byte.
type NonEmptyStringType struct{}

func (t *NonEmptyStringType) Name() string { return "non-empty string" }

func (t *NonEmptyStringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		if value == nil {
			return fmt.Errorf("missing")
		}
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// MappingType accepts non-null string-keyed objects.
type MappingType struct{}

func (t *MappingType) Name() string { return "mapping" }

func (t *MappingType) Validate(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		if value == nil {
			return fmt.Errorf("missing")
		}
		return fmt.Errorf("expected mapping, got %T", value)
	}
	if m == nil {
		return fmt.Errorf("must not be null")
	}
	return nil
}

// SequenceType accepts lists, including empty ones.
type SequenceType struct{}

func (t *SequenceType) Name() string { return "sequence" }

func (t *SequenceType) Validate(value any) error {
	if _, ok := value.([]any); !ok {
		if value == nil {
			return fmt.Errorf("missing")
		}
		return fmt.Errorf("expected sequence, got %T", value)
	}
	return nil
}

// NonEmptyString creates a non-empty string validator.
func NonEmptyString() Type { return &NonEmptyStringType{} }

// Mapping creates a mapping validator.
func Mapping() Type { return &MappingType{} }

// Sequence creates a sequence validator.
func Sequence() Type { return &SequenceType{} }
