package cmd_test

import (
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/cmd"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `name: app
description: A sample app
publish_to: none
dependencies:
  http: ^1.2.0
  charts:
    git:
      url: https://github.com/example/charts.git
      ref: v2.1.0
  flutter:
    sdk: flutter
dev_dependencies:
  lints:
`

func TestParseCmd(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "pubspec.yaml"), manifest)

	for _, engine := range []string{"yaml.v3", "goccy"} {
		t.Run("yaml output with "+engine, func(t *testing.T) {
			// when
			out, err := execute(t, cmd.NewParseCmd(), "--manifest", path, "--yaml-engine", engine)
			// then
			require.NoError(t, err)
			assert.Equal(t, `name: app
description: A sample app
publish_to: none
dependencies:
  charts:
    git:
      url: https://github.com/example/charts.git
      ref: v2.1.0
  flutter:
    sdk: flutter
  http: ^1.2.0
dev_dependencies:
  lints: null
`, out)
			// the canonical form parses to the same manifest
			expected, err := pubspec.ParseFile(path)
			require.NoError(t, err)
			actual, err := pubspec.Parse([]byte(out))
			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}

	t.Run("json output", func(t *testing.T) {
		// when
		out, err := execute(t, cmd.NewParseCmd(), "-m", path, "--format", "json")
		// then
		require.NoError(t, err)
		assert.JSONEq(t, `{
  "name": "app",
  "description": "A sample app",
  "publish_to": "none",
  "dependencies": {
    "charts": {"kind": "git", "url": "https://github.com/example/charts.git", "ref": "v2.1.0"},
    "flutter": {"kind": "sdk", "sdk": "flutter"},
    "http": {"kind": "hosted", "version": "^1.2.0"}
  },
  "dev_dependencies": {
    "lints": {"kind": "hosted"}
  }
}`, out)
	})

	t.Run("invalid manifest", func(t *testing.T) {
		// given
		invalid := writeFile(t, filepath.Join(t.TempDir(), "pubspec.yaml"), "name: app\ndependencies:\n  http:\n    unknownKey: 1\n")
		// when
		_, err := execute(t, cmd.NewParseCmd(), "--manifest", invalid)
		// then
		require.ErrorIs(t, err, pubspec.ErrUnrecognizedDependencyShape)
	})

	t.Run("unsupported format", func(t *testing.T) {
		// when
		_, err := execute(t, cmd.NewParseCmd(), "--manifest", path, "--format", "toml")
		// then
		require.EqualError(t, err, `unsupported format "toml" (must be yaml or json)`)
	})

	t.Run("unsupported engine", func(t *testing.T) {
		// when
		_, err := execute(t, cmd.NewParseCmd(), "--manifest", path, "--yaml-engine", "yaml.v2")
		// then
		require.EqualError(t, err, `unsupported yaml engine "yaml.v2" (must be "yaml.v3" or "goccy")`)
	})

	t.Run("missing manifest flag", func(t *testing.T) {
		// when
		_, err := execute(t, cmd.NewParseCmd())
		// then
		require.EqualError(t, err, `required flag(s) "manifest" not set`)
	})
}
