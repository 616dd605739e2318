package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Issue is a problem found while checking a project.
type Issue struct {
	Timestamp time.Time `json:"timestamp"`
	// Source is the checker that reported the issue, e.g. policy or vulnerablecode.
	Source string `json:"source"`
	// Rule identifies the kind of issue, or the vulnerability ID for advisor findings.
	Rule     string   `json:"rule"`
	Package  string   `json:"package,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	// AffectedPath is the manifest the issue is limited to, if any.
	AffectedPath string `json:"affected_path,omitempty"`
}

// NewIssue creates an issue stamped with the current time.
func NewIssue(source, rule, pkg string, severity Severity, format string, args ...any) Issue {
	return Issue{
		Timestamp: time.Now().UTC(),
		Source:    source,
		Rule:      rule,
		Package:   pkg,
		Message:   fmt.Sprintf(format, args...),
		Severity:  severity,
	}
}

func (i Issue) String() string {
	ts := "Unknown time"
	if !i.Timestamp.IsZero() {
		ts = i.Timestamp.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s [%s]: %s - %s", ts, strings.ToUpper(string(i.Severity)), i.Source, i.Message)
}

// Key identifies the issue regardless of when it was reported.
func (i Issue) Key() string {
	return strings.Join([]string{i.AffectedPath, i.Source, i.Rule, i.Package, string(i.Severity), NormalizeLineBreaks(i.Message)}, "|")
}

// MarshalJSON writes the message with normalized line breaks.
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	p := plain(i)
	p.Message = NormalizeLineBreaks(p.Message)
	return json.Marshal(p)
}

// NormalizeLineBreaks converts CRLF and CR line breaks to LF.
func NormalizeLineBreaks(s string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
}
