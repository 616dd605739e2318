package report_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vuln = model.Issue{
		Timestamp:    time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
		Source:       "VulnerableCode",
		Rule:         "VCID-3fbq-9a2e-aaar",
		Package:      "http",
		Message:      "http 0.13.0 is affected by VCID-3fbq-9a2e-aaar\r\nfixed in: 0.13.3",
		Severity:     model.SeverityError,
		AffectedPath: "pubspec.yaml",
	}
	pathDep = model.Issue{
		Timestamp:    time.Date(2025, 5, 10, 12, 0, 1, 0, time.UTC),
		Source:       "policy",
		Rule:         "path-dependency",
		Package:      "widgets",
		Message:      "path dependency | widgets",
		Severity:     model.SeverityWarning,
		AffectedPath: "packages/app/pubspec.yaml",
	}
)

func TestGenerate(t *testing.T) {

	t.Run("issues and outdated ignores", func(t *testing.T) {
		// given
		outDir := filepath.Join(t.TempDir(), "out")
		meta := report.NewMeta("/src/app", "warning", []string{"pubspec.yaml", "packages/app/pubspec.yaml"}, []string{"policy"})
		outdated := []*configuration.IgnoredIssue{
			{ID: "VCID-0000", Package: "yaml", SilenceUntil: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		}
		// when
		err := report.Generate(outDir, report.Report{Meta: meta, Issues: []model.Issue{vuln, pathDep}, OutdatedIgnores: outdated})
		// then
		require.NoError(t, err)

		loaded, err := report.Load(filepath.Join(outDir, report.JSONFile))
		require.NoError(t, err)
		assert.Equal(t, meta.RunID, loaded.Meta.RunID)
		assert.NotEmpty(t, loaded.Meta.RunID)
		assert.Equal(t, "/src/app", loaded.Meta.ScannedPath)
		assert.True(t, meta.Timestamp.Equal(loaded.Meta.Timestamp))
		require.Len(t, loaded.Issues, 2)
		assert.Equal(t, "http 0.13.0 is affected by VCID-3fbq-9a2e-aaar\nfixed in: 0.13.3", loaded.Issues[0].Message)
		assert.True(t, report.Equal([]model.Issue{vuln, pathDep}, loaded.Issues))
		require.Len(t, loaded.OutdatedIgnores, 1)
		assert.Equal(t, "VCID-0000", loaded.OutdatedIgnores[0].ID)

		md, err := os.ReadFile(filepath.Join(outDir, report.MarkdownFile))
		require.NoError(t, err)
		assert.Contains(t, string(md), "**Target:** `/src/app`")
		assert.Contains(t, string(md), "| Error | 1 |\n| Warning | 1 |\n| Hint | 0 |\n")
		assert.Contains(t, string(md), "| error | VCID-3fbq-9a2e-aaar | http | pubspec.yaml | http 0.13.0 is affected by VCID-3fbq-9a2e-aaar fixed in: 0.13.3 |\n")
		assert.Contains(t, string(md), `| warning | path-dependency | widgets | packages/app/pubspec.yaml | path dependency \| widgets |`)
		assert.Contains(t, string(md), "## Outdated Ignores (1)")
		assert.Contains(t, string(md), "| VCID-0000 | yaml | 2025-06-01 |\n")

		html, err := os.ReadFile(filepath.Join(outDir, report.HTMLFile))
		require.NoError(t, err)
		assert.Contains(t, string(html), "<h1>pubspec-check report</h1>")
		assert.Contains(t, string(html), "<table>")
		assert.Contains(t, string(html), "VCID-3fbq-9a2e-aaar</td>")
	})

	t.Run("no issue", func(t *testing.T) {
		// given
		outDir := t.TempDir()
		// when
		err := report.Generate(outDir, report.Report{Meta: report.NewMeta(".", "error", nil, nil)})
		// then
		require.NoError(t, err)
		md, err := os.ReadFile(filepath.Join(outDir, report.MarkdownFile))
		require.NoError(t, err)
		assert.Contains(t, string(md), "_No issues._")
		assert.NotContains(t, string(md), "Outdated Ignores")
		assert.NotContains(t, string(md), "## Licenses")
		assert.NotContains(t, string(md), "**Repository:**")
		loaded, err := report.Load(filepath.Join(outDir, report.JSONFile))
		require.NoError(t, err)
		assert.Empty(t, loaded.Issues)
	})

	t.Run("licenses and provenance", func(t *testing.T) {
		// given
		outDir := t.TempDir()
		meta := report.NewMeta(".", "warning", []string{"pubspec.yaml"}, []string{"license"})
		meta.Repository = "https://github.com/example/app.git"
		meta.Revision = "4f0b3f2ae6b774416cc91e779cca4a8bb71af054"
		licenses := report.Licenses{"pubspec.yaml": {"widgets": "MIT", "charts": "Apache-2.0"}}
		// when
		err := report.Generate(outDir, report.Report{Meta: meta, Licenses: licenses})
		// then
		require.NoError(t, err)
		loaded, err := report.Load(filepath.Join(outDir, report.JSONFile))
		require.NoError(t, err)
		assert.Equal(t, licenses, loaded.Licenses)
		assert.Equal(t, meta.Repository, loaded.Meta.Repository)
		assert.Equal(t, meta.Revision, loaded.Meta.Revision)
		md, err := os.ReadFile(filepath.Join(outDir, report.MarkdownFile))
		require.NoError(t, err)
		assert.Contains(t, string(md), "**Repository:** https://github.com/example/app.git @ `4f0b3f2ae6b774416cc91e779cca4a8bb71af054`")
		assert.Contains(t, string(md), "## Licenses\n\n| Manifest | Package | License |\n| :--- | :--- | :--- |\n"+
			"| pubspec.yaml | charts | Apache-2.0 |\n| pubspec.yaml | widgets | MIT |\n")
	})
}

func TestLoad(t *testing.T) {

	t.Run("missing file", func(t *testing.T) {
		// when
		_, err := report.Load(filepath.Join(t.TempDir(), report.JSONFile))
		// then
		require.ErrorContains(t, err, "failed to read report")
	})

	t.Run("invalid file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), report.JSONFile)
		require.NoError(t, os.WriteFile(path, []byte("issues:"), 0o600))
		// when
		_, err := report.Load(path)
		// then
		require.ErrorContains(t, err, "failed to decode report "+path)
	})
}
