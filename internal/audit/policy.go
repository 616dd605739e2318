package audit

import (
	"context"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
)

const PolicySource = "policy"

// Rules reported by the PolicyChecker.
const (
	RuleInvalidVersionConstraint = "invalid-version-constraint"
	RuleUnpinnedHosted           = "unpinned-hosted-dependency"
	RuleUnpinnedGit              = "unpinned-git-dependency"
	RulePathDependency           = "path-dependency"
	RuleDisallowedSource         = "disallowed-source"
	RuleDuplicateDeclaration     = "duplicate-declaration"
	RuleSDKNotAllowed            = "sdk-not-allowed"
)

// anyVersion is the pub constraint matching every version.
const anyVersion = "any"

// PolicyChecker verifies the declared dependencies against the configured policy.
// It works offline, on the manifest only.
type PolicyChecker struct {
	Policy configuration.Policy
}

var _ Checker = PolicyChecker{}

func (c PolicyChecker) Check(_ context.Context, project Project) ([]model.Issue, error) {
	var issues []model.Issue
	for _, d := range project.Dependencies() {
		if len(c.Policy.AllowedSources) > 0 && !slices.Contains(c.Policy.AllowedSources, string(d.Dependency.Kind())) {
			issues = append(issues, model.NewIssue(PolicySource, RuleDisallowedSource, d.Name, model.SeverityError,
				"%s: %s dependency %q is not allowed, allowed sources are: %s", d.Section, d.Dependency.Kind(), d.Name, strings.Join(c.Policy.AllowedSources, ", ")))
		}

		switch dep := d.Dependency.(type) {
		case pubspec.HostedDependency:
			issues = append(issues, checkHosted(d, dep)...)
		case pubspec.GitDependency:
			if dep.Ref == "" {
				issues = append(issues, model.NewIssue(PolicySource, RuleUnpinnedGit, d.Name, model.SeverityWarning,
					"%s: git dependency %q on %s does not pin a ref, the default branch will be used", d.Section, d.Name, dep.URL))
			}
		case pubspec.PathDependency:
			if d.Section == pubspec.SectionDependencies && project.Manifest.Published() {
				issues = append(issues, model.NewIssue(PolicySource, RulePathDependency, d.Name, model.SeverityWarning,
					"%s: path dependency %q on %s prevents publishing the package, set publish_to: none or depend on a hosted version", d.Section, d.Name, dep.Path))
			}
		case pubspec.SdkDependency:
			if len(c.Policy.AllowedSDKs) > 0 && !slices.Contains(c.Policy.AllowedSDKs, dep.SDK) {
				issues = append(issues, model.NewIssue(PolicySource, RuleSDKNotAllowed, d.Name, model.SeverityError,
					"%s: dependency %q comes from the %s SDK, allowed SDKs are: %s", d.Section, d.Name, dep.SDK, strings.Join(c.Policy.AllowedSDKs, ", ")))
			}
		}
	}

	for name := range project.Manifest.Dependencies {
		if _, ok := project.Manifest.DevDependencies[name]; ok {
			issues = append(issues, model.NewIssue(PolicySource, RuleDuplicateDeclaration, name, model.SeverityHint,
				"%q is declared in both %s and %s, the %s entry is redundant", name, pubspec.SectionDependencies, pubspec.SectionDevDependencies, pubspec.SectionDevDependencies))
		}
	}
	return issues, nil
}

func checkHosted(d DeclaredDependency, dep pubspec.HostedDependency) []model.Issue {
	if dep.Version == "" || dep.Version == anyVersion {
		return []model.Issue{model.NewIssue(PolicySource, RuleUnpinnedHosted, d.Name, model.SeverityWarning,
			"%s: hosted dependency %q accepts any version", d.Section, d.Name)}
	}
	if _, err := semver.NewConstraint(dep.Version); err != nil {
		return []model.Issue{model.NewIssue(PolicySource, RuleInvalidVersionConstraint, d.Name, model.SeverityError,
			"%s: hosted dependency %q has an invalid version constraint %q: %v", d.Section, d.Name, dep.Version, err)}
	}
	return nil
}

// ExactVersion returns the version a constraint pins, if it is a plain version like 1.2.3.
func ExactVersion(constraint string) (string, bool) {
	v, err := semver.StrictNewVersion(constraint)
	if err != nil {
		return "", false
	}
	return v.String(), true
}
