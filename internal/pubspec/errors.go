package pubspec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequiredField is matched by every *MissingRequiredFieldError.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnrecognizedDependencyShape is matched by every *UnrecognizedDependencyShapeError.
	ErrUnrecognizedDependencyShape = errors.New("unrecognized dependency shape")

	// ErrDuplicateDependency is returned when a dependency mapping declares the same name twice.
	ErrDuplicateDependency = errors.New("duplicate dependency")

	// ErrMalformedDocument wraps syntax errors and fields holding a value of the wrong type.
	ErrMalformedDocument = errors.New("malformed document")
)

// MissingRequiredFieldError reports a mandatory field that is absent.
// Dependency is empty when the field belongs to the manifest itself.
type MissingRequiredFieldError struct {
	Field      string
	Dependency string
	Line       int
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Dependency == "" {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("%s: missing required field %q", location(e.Dependency, e.Line), e.Field)
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// UnrecognizedDependencyShapeError reports a dependency entry that matches none of the known shapes.
type UnrecognizedDependencyShapeError struct {
	Dependency string
	Line       int
	// Keys lists the keys of the entry when it is a mapping.
	Keys []string
}

func (e *UnrecognizedDependencyShapeError) Error() string {
	msg := fmt.Sprintf("%s: unrecognized dependency shape", location(e.Dependency, e.Line))
	if len(e.Keys) > 0 {
		msg += fmt.Sprintf(" (keys: %s)", strings.Join(e.Keys, ", "))
	}
	return msg
}

func (e *UnrecognizedDependencyShapeError) Is(target error) bool {
	return target == ErrUnrecognizedDependencyShape
}

func location(dependency string, line int) string {
	if line <= 0 {
		return fmt.Sprintf("dependency %q", dependency)
	}
	return fmt.Sprintf("dependency %q at line %d", dependency, line)
}
