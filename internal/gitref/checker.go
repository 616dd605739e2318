package gitref

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
)

const Source = "git-ref"

const (
	RuleMissingRef        = "missing-git-ref"
	RuleUnreachableRemote = "unreachable-git-remote"
)

// Checker verifies that the refs of git dependencies exist on their remote.
type Checker struct {
	Verifier *Verifier
	Logger   *slog.Logger
}

var _ audit.Checker = Checker{}

func (c Checker) Check(ctx context.Context, project audit.Project) ([]model.Issue, error) {
	var issues []model.Issue
	for _, d := range project.Dependencies() {
		dep, ok := d.Dependency.(pubspec.GitDependency)
		if !ok {
			continue
		}
		exists, err := c.Verifier.Exists(ctx, dep.URL, dep.Ref)
		switch {
		case errors.Is(err, ErrUnsupportedProtocol):
			c.Logger.Debug("skipping git dependency", "package", d.Name, "url", dep.URL, "reason", err.Error())
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			issues = append(issues, model.NewIssue(Source, RuleUnreachableRemote, d.Name, model.SeverityWarning,
				"%s: could not list the refs of git dependency %q: %v", d.Section, d.Name, err))
		case !exists:
			ref := dep.Ref
			if ref == "" {
				ref = "HEAD"
			}
			issues = append(issues, model.NewIssue(Source, RuleMissingRef, d.Name, model.SeverityError,
				"%s: ref %q of git dependency %q does not exist on %s", d.Section, ref, d.Name, dep.URL))
		default:
			c.Logger.Debug("git ref found", "package", d.Name, "url", dep.URL, "ref", dep.Ref)
		}
	}
	return issues, nil
}
