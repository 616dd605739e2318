package audit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"golang.org/x/sync/errgroup"
)

// Checker reports the issues of a single project.
// Lookup failures on a single dependency should be reported as issues, an error aborts the audit.
type Checker interface {
	Check(ctx context.Context, project Project) ([]model.Issue, error)
}

// CheckFunc adapts a function to the Checker interface.
type CheckFunc func(ctx context.Context, project Project) ([]model.Issue, error)

func (f CheckFunc) Check(ctx context.Context, project Project) ([]model.Issue, error) {
	return f(ctx, project)
}

// concurrency is the maximum number of checks running at once.
const concurrency = 8

// Audit runs the checkers against all projects and returns the issues that are not silenced by the
// configuration, along with the ignore entries that did not match any issue.
func Audit(ctx context.Context, logger *slog.Logger, projects []Project, config configuration.Configuration, checkers ...Checker) ([]model.Issue, []*configuration.IgnoredIssue, error) {
	var (
		mu     sync.Mutex
		issues []model.Issue
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, project := range projects {
		for _, checker := range checkers {
			g.Go(func() error {
				found, err := checker.Check(ctx, project)
				if err != nil {
					return err
				}
				for i := range found {
					if found[i].AffectedPath == "" {
						found[i].AffectedPath = project.Path
					}
				}
				logger.Debug("checked project", "path", project.Path, "issues", len(found))
				mu.Lock()
				defer mu.Unlock()
				issues = append(issues, found...)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	issues = aggregate(issues)
	now := time.Now()
	return pruneIgnoredIssues(logger, issues, config.IgnoredIssues, now), listOutdatedIgnores(issues, config.IgnoredIssues), nil
}

// aggregate deduplicates and sorts issues.
func aggregate(issues []model.Issue) []model.Issue {
	seen := make(map[string]struct{}, len(issues))
	result := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		key := issue.Key()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, issue)
	}

	sort.Slice(result, func(i, j int) bool {
		ii, ij := result[i], result[j]
		// Severity DESC
		if ri, rj := ii.Severity.Rank(), ij.Severity.Rank(); ri != rj {
			return ri > rj
		}
		if ii.AffectedPath != ij.AffectedPath {
			return ii.AffectedPath < ij.AffectedPath
		}
		if ii.Package != ij.Package {
			return ii.Package < ij.Package
		}
		if ii.Rule != ij.Rule {
			return ii.Rule < ij.Rule
		}
		return ii.Message < ij.Message
	})
	return result
}

func matches(entry *configuration.IgnoredIssue, issue model.Issue) bool {
	return entry.ID == issue.Rule && (entry.Package == "" || entry.Package == issue.Package)
}

// pruneIgnoredIssues removes the issues silenced by an active ignore entry.
func pruneIgnoredIssues(logger *slog.Logger, issues []model.Issue, ignored []*configuration.IgnoredIssue, now time.Time) []model.Issue {
	result := make([]model.Issue, 0, len(issues))
issues:
	for _, issue := range issues {
		for _, entry := range ignored {
			if !matches(entry, issue) {
				continue
			}
			if entry.Active(now) {
				logger.Info("ignoring issue", "id", entry.ID, "package", issue.Package, "path", issue.AffectedPath, "silence-until", silenceUntil(entry))
				continue issues
			}
			logger.Warn("ignore entry expired", "id", entry.ID, "package", entry.Package, "silence-until", entry.SilenceUntil.Format(time.DateOnly))
		}
		result = append(result, issue)
	}
	return result
}

func silenceUntil(entry *configuration.IgnoredIssue) string {
	if entry.SilenceUntil.IsZero() {
		return "never"
	}
	return entry.SilenceUntil.Format(time.DateOnly)
}

// listOutdatedIgnores returns the ignore entries that do not match any issue and can be removed from the configuration.
func listOutdatedIgnores(issues []model.Issue, ignored []*configuration.IgnoredIssue) []*configuration.IgnoredIssue {
	var outdated []*configuration.IgnoredIssue
entries:
	for _, entry := range ignored {
		for _, issue := range issues {
			if matches(entry, issue) {
				continue entries
			}
		}
		outdated = append(outdated, entry)
	}
	return outdated
}
