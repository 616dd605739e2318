package cmd_test

import (
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/cmd"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestIssuesCmd(t *testing.T) {
	unpinned := model.NewIssue("policy", "unpinned-hosted-dependency", "lints", model.SeverityWarning, "hosted dependency %q accepts any version", "lints")
	unpinned.AffectedPath = "pubspec.yaml"
	pathDep := model.NewIssue("policy", "path-dependency", "widgets", model.SeverityWarning, "path dependency %q prevents publishing", "widgets")
	pathDep.AffectedPath = "pubspec.yaml"

	generate := func(t *testing.T, issues ...model.Issue) string {
		dir := t.TempDir()
		rep := report.Report{
			Meta:   report.NewMeta(dir, "warning", []string{"pubspec.yaml"}, []string{"policy"}),
			Issues: issues,
		}
		require.NoError(t, report.Generate(dir, rep))
		return filepath.Join(dir, report.JSONFile)
	}

	t.Run("identical", func(t *testing.T) {
		// given
		input := generate(t, unpinned, pathDep)
		contrast := generate(t, pathDep, unpinned)
		// when
		out, err := execute(t, cmd.NewTestIssuesCmd(), "--input-file", input, "--contrast-file", contrast)
		// then
		require.NoError(t, err)
		assert.Equal(t, "2 issue(s), identical\n", out)
	})

	t.Run("different", func(t *testing.T) {
		// given
		input := generate(t, unpinned)
		contrast := generate(t, pathDep)
		// when
		out, err := execute(t, cmd.NewTestIssuesCmd(), "-i", input, "-c", contrast)
		// then
		require.EqualError(t, err, "issues are not identical")
		assert.Contains(t, out, "--- "+input+"\n+++ "+contrast+"\n")
		assert.Contains(t, out, "- [WARNING] pubspec.yaml policy unpinned-hosted-dependency lints")
		assert.Contains(t, out, "+ [WARNING] pubspec.yaml policy path-dependency widgets")
	})

	t.Run("missing report", func(t *testing.T) {
		// given
		input := generate(t, unpinned)
		// when
		_, err := execute(t, cmd.NewTestIssuesCmd(), "-i", input, "-c", filepath.Join(t.TempDir(), "missing.json"))
		// then
		require.ErrorContains(t, err, "failed to read report")
	})

	t.Run("missing flags", func(t *testing.T) {
		// when
		_, err := execute(t, cmd.NewTestIssuesCmd())
		// then
		require.EqualError(t, err, `required flag(s) "contrast-file", "input-file" not set`)
	})
}
