package model

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityHint    Severity = "hint"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rank returns an integer rank for comparison (Hint=1, Error=3).
func (s Severity) Rank() int {
	switch s {
	case SeverityHint:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a severity string case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "hint":
		return SeverityHint, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return "", fmt.Errorf("invalid severity: %s", s)
	}
}
