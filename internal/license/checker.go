package license

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
)

const Source = "license"

const (
	RuleNotAllowed = "license-not-allowed"
	RuleUnknown    = "unknown-license"
)

// noAssertion is reported by GitHub for license files it cannot classify.
const noAssertion = "NOASSERTION"

// Resolver returns the SPDX identifier of the license of a git repository.
type Resolver interface {
	License(ctx context.Context, url string) (string, error)
}

// Checker compares the licenses of git and path dependencies with the allowed ones.
// Hosted and sdk dependencies are not checked.
type Checker struct {
	Resolver Resolver
	// Files classifies path dependencies, they are skipped when nil.
	Files *FileClassifier
	// Allowed SPDX identifiers, any identified license is accepted when empty.
	Allowed []string
	// Inventory records every license looked up, when set. Unidentified licenses are recorded as NOASSERTION.
	Inventory *Inventory
	Logger    *slog.Logger
}

var _ audit.Checker = Checker{}

func (c Checker) Check(ctx context.Context, project audit.Project) ([]model.Issue, error) {
	var issues []model.Issue
	for _, d := range project.Dependencies() {
		var (
			id  string
			err error
		)
		switch dep := d.Dependency.(type) {
		case pubspec.GitDependency:
			if c.Resolver == nil {
				continue
			}
			id, err = c.Resolver.License(ctx, dep.URL)
			if errors.Is(err, ErrNotGitHub) {
				c.Logger.Debug("skipping license of git dependency", "package", d.Name, "url", dep.URL)
				continue
			}
		case pubspec.PathDependency:
			if c.Files == nil {
				continue
			}
			dir := dep.Path
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(project.Dir, dir)
			}
			id, err = c.Files.Classify(dir)
		default:
			continue
		}

		if err == nil && c.Inventory != nil {
			recorded := id
			if recorded == "" {
				recorded = noAssertion
			}
			c.Inventory.Record(project.Path, d.Name, recorded)
		}

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			issues = append(issues, model.NewIssue(Source, RuleUnknown, d.Name, model.SeverityWarning,
				"%s: could not determine the license of %q: %v", d.Section, d.Name, err))
		case id == "" || id == noAssertion:
			issues = append(issues, model.NewIssue(Source, RuleUnknown, d.Name, model.SeverityWarning,
				"%s: the license of %q could not be identified", d.Section, d.Name))
		case !c.allowed(id):
			issues = append(issues, model.NewIssue(Source, RuleNotAllowed, d.Name, model.SeverityError,
				"%s: %q is licensed under %s, allowed licenses are: %s", d.Section, d.Name, id, strings.Join(c.Allowed, ", ")))
		default:
			c.Logger.Debug("license allowed", "package", d.Name, "license", id)
		}
	}
	return issues, nil
}

func (c Checker) allowed(id string) bool {
	if len(c.Allowed) == 0 {
		return true
	}
	for _, a := range c.Allowed {
		if strings.EqualFold(a, id) {
			return true
		}
	}
	return false
}
