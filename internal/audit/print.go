package audit

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/dustin/go-humanize"
)

func PrintIssues(out io.Writer, issues []model.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(out, "%d issue(s) found:\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(out, "- [%s] %s", strings.ToUpper(issue.Severity.String()), issue.Rule)
		if issue.Package != "" {
			fmt.Fprintf(out, " (%s)", issue.Package)
		}
		if issue.AffectedPath != "" {
			fmt.Fprintf(out, " in %s", issue.AffectedPath)
		}
		fmt.Fprintf(out, "\n  %s\n", strings.ReplaceAll(model.NormalizeLineBreaks(issue.Message), "\n", "\n  "))
	}
}

// PrintOutdatedIgnores lists the ignore entries that can be removed from the configuration.
func PrintOutdatedIgnores(out io.Writer, ignored []*configuration.IgnoredIssue, now time.Time) {
	if len(ignored) == 0 {
		return
	}
	fmt.Fprintf(out, "%d ignored issue(s) no longer found, remove them from the configuration:\n", len(ignored))
	for _, entry := range ignored {
		fmt.Fprintf(out, "- %s", entry.ID)
		if entry.Package != "" {
			fmt.Fprintf(out, " (%s)", entry.Package)
		}
		if !entry.SilenceUntil.IsZero() {
			fmt.Fprintf(out, ", silenced until %s (%s)", entry.SilenceUntil.Format(time.DateOnly), humanize.RelTime(entry.SilenceUntil, now, "ago", "from now"))
		}
		fmt.Fprintln(out)
	}
}
