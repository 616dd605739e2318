package vulnerablecode

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
	"github.com/package-url/packageurl-go"
)

const Source = "VulnerableCode"

// RuleAdvisorFailure is reported when the advisor could not be queried for a project.
const RuleAdvisorFailure = "advisor-failure"

const purlType = "pub"

// Checker reports the known vulnerabilities of the hosted dependencies.
// The version of a dependency is taken from the lockfile, or from the manifest when it pins an exact version.
type Checker struct {
	Client *Client
	Logger *slog.Logger
}

var _ audit.Checker = Checker{}

type lookup struct {
	name    string
	version string
	purl    string
}

func (c Checker) Check(ctx context.Context, project audit.Project) ([]model.Issue, error) {
	var lookups []lookup
	seen := map[string]bool{}
	for _, d := range project.Dependencies() {
		dep, ok := d.Dependency.(pubspec.HostedDependency)
		if !ok || seen[d.Name] {
			continue
		}
		version, ok := project.LockedVersion(d.Name)
		if !ok {
			version, ok = audit.ExactVersion(dep.Version)
		}
		if !ok {
			c.Logger.Debug("skipping dependency without a concrete version", "package", d.Name, "path", project.Path)
			continue
		}
		seen[d.Name] = true
		lookups = append(lookups, lookup{
			name:    d.Name,
			version: version,
			purl:    packageurl.NewPackageURL(purlType, "", d.Name, version, nil, "").ToString(),
		})
	}
	if len(lookups) == 0 {
		return nil, nil
	}

	purls := make([]string, 0, len(lookups))
	for _, l := range lookups {
		purls = append(purls, l.purl)
	}
	vulns, err := c.Client.Vulnerabilities(ctx, purls)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return []model.Issue{model.NewIssue(Source, RuleAdvisorFailure, "", model.SeverityWarning,
			"could not retrieve the vulnerabilities of %d package(s): %v", len(purls), err)}, nil
	}

	var issues []model.Issue
	for _, l := range lookups {
		for _, v := range vulns[l.purl] {
			issues = append(issues, model.NewIssue(Source, v.VulnerabilityID, l.name, model.SeverityError, "%s", message(l, v)))
		}
	}
	return issues, nil
}

func message(l lookup, v Vulnerability) string {
	var b strings.Builder
	b.WriteString(l.name + " " + l.version + " is affected by " + v.VulnerabilityID)
	if v.Summary != "" {
		b.WriteString(": " + v.Summary)
	}
	var ids []string
	seen := map[string]bool{}
	for _, r := range v.References {
		if r.ReferenceID != "" && !seen[r.ReferenceID] {
			seen[r.ReferenceID] = true
			ids = append(ids, r.ReferenceID)
		}
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		b.WriteString(" (" + strings.Join(ids, ", ") + ")")
	}
	if fixed := fixedVersions(v); len(fixed) > 0 {
		b.WriteString("\nfixed in: " + strings.Join(fixed, ", "))
	}
	if v.URL != "" {
		b.WriteString("\n" + v.URL)
	}
	return b.String()
}

func fixedVersions(v Vulnerability) []string {
	var versions []string
	for _, p := range v.FixedPackages {
		purl, err := packageurl.FromString(p.Purl)
		if err != nil || purl.Version == "" {
			continue
		}
		versions = append(versions, purl.Version)
	}
	return versions
}
