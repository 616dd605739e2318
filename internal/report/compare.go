package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Equal reports whether both lists hold the same issues, regardless of their order and timestamps.
func Equal(a, b []model.Issue) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, issue := range a {
		counts[issue.Key()]++
	}
	for _, issue := range b {
		key := issue.Key()
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

// Diff renders the issues only found in a with a "-" prefix and those only found in b with a "+" prefix.
func Diff(a, b []model.Issue) string {
	return lineDiff(text(a), text(b))
}

// EqualLicenses reports whether both reports identified the same licenses for the same dependencies.
func EqualLicenses(a, b Licenses) bool {
	return licensesText(a) == licensesText(b)
}

// DiffLicenses renders the license findings only found in a with a "-" prefix and those only found in b with a "+" prefix.
func DiffLicenses(a, b Licenses) string {
	return lineDiff(licensesText(a), licensesText(b))
}

func lineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	charsA, charsB, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				sb.WriteString(prefix + line)
			}
		}
	}
	return sb.String()
}

// licensesText lists the findings one per line, sorted by manifest then package.
func licensesText(licenses Licenses) string {
	var sb strings.Builder
	for _, path := range sortedKeys(licenses) {
		for _, pkg := range sortedKeys(licenses[path]) {
			fmt.Fprintf(&sb, "%s %s: %s\n", path, pkg, licenses[path][pkg])
		}
	}
	return sb.String()
}

// text lists the issues one per line, sorted, without timestamps.
func text(issues []model.Issue) string {
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		message := strings.ReplaceAll(model.NormalizeLineBreaks(issue.Message), "\n", " ")
		lines = append(lines, fmt.Sprintf("[%s] %s %s %s %s: %s", strings.ToUpper(issue.Severity.String()), issue.AffectedPath, issue.Source, issue.Rule, issue.Package, message))
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
