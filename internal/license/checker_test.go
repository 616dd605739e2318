package license_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/license"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver returns the licenses by repository URL
type fakeResolver map[string]string

func (f fakeResolver) License(_ context.Context, url string) (string, error) {
	switch id, ok := f[url]; {
	case id == "error":
		return "", errors.New("mock error")
	case !ok:
		return "", license.ErrNotGitHub
	default:
		return id, nil
	}
}

func TestFileClassifier(t *testing.T) {
	classifier, err := license.NewFileClassifier()
	require.NoError(t, err)

	t.Run("MIT license", func(t *testing.T) {
		// when
		id, err := classifier.Classify("testdata/widgets")
		// then
		require.NoError(t, err)
		assert.Equal(t, "MIT", id)
	})

	t.Run("no license file", func(t *testing.T) {
		// when
		id, err := classifier.Classify("testdata/empty")
		// then
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestChecker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	manifest, err := pubspec.Parse([]byte(`name: app
publish_to: none
dependencies:
  charts:
    git: https://github.com/example/charts.git
  gauges:
    git: https://github.com/example/gauges.git
  legacy:
    git: https://github.com/example/legacy.git
  broken:
    git: https://github.com/example/broken.git
  internal:
    git: https://git.example.com/example/internal.git
  widgets:
    path: widgets
  empty:
    path: empty
  http: ^1.2.0
`))
	require.NoError(t, err)
	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)
	project := audit.Project{Path: "pubspec.yaml", Dir: dir, Manifest: manifest}
	resolver := fakeResolver{
		"https://github.com/example/charts.git": "MIT",
		"https://github.com/example/gauges.git": "GPL-3.0",
		"https://github.com/example/legacy.git": "NOASSERTION",
		"https://github.com/example/broken.git": "error",
	}

	t.Run("allowed licenses", func(t *testing.T) {
		// given
		files, err := license.NewFileClassifier()
		require.NoError(t, err)
		checker := license.Checker{
			Resolver: resolver,
			Files:    files,
			Allowed:  []string{"mit", "Apache-2.0"},
			Logger:   logger,
		}
		// when
		issues, err := checker.Check(context.Background(), project)
		// then
		require.NoError(t, err)
		got := map[string]string{}
		for _, issue := range issues {
			got[issue.Package] = issue.Rule
		}
		assert.Equal(t, map[string]string{
			"broken": license.RuleUnknown,
			"empty":  license.RuleUnknown,
			"gauges": license.RuleNotAllowed,
			"legacy": license.RuleUnknown,
		}, got)
	})

	t.Run("any license", func(t *testing.T) {
		// given
		checker := license.Checker{
			Resolver: resolver,
			Logger:   logger,
		}
		// when
		issues, err := checker.Check(context.Background(), project)
		// then
		require.NoError(t, err)
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, license.RuleUnknown, issue.Rule)
			assert.Equal(t, model.SeverityWarning, issue.Severity)
		}
	})
	t.Run("inventory", func(t *testing.T) {
		// given
		files, err := license.NewFileClassifier()
		require.NoError(t, err)
		inventory := license.NewInventory()
		checker := license.Checker{
			Resolver:  resolver,
			Files:     files,
			Inventory: inventory,
			Logger:    logger,
		}
		// when
		_, err = checker.Check(context.Background(), project)
		// then
		require.NoError(t, err)
		assert.Equal(t, map[string]map[string]string{
			"pubspec.yaml": {
				"charts":  "MIT",
				"empty":   "NOASSERTION",
				"gauges":  "GPL-3.0",
				"legacy":  "NOASSERTION",
				"widgets": "MIT",
			},
		}, inventory.Licenses())
	})
}
