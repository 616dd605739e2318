package gitref_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/gitref"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const advertisement = "001e# service=git-upload-pack\n" +
	"0000009b4f0b3f2ae6b774416cc91e779cca4a8bb71af054 HEAD\x00multi_ack thin-pack side-band symref=HEAD:refs/heads/main\n" +
	"003d4f0b3f2ae6b774416cc91e779cca4a8bb71af054 refs/heads/main\n" +
	"00449f1c0d6f2a2b4c3d8e7f6a5b4c3d2e1f0a9b8c7d refs/heads/release-2.x\n" +
	"003e1111111111111111111111111111111111111111 refs/tags/v2.1.0\n" +
	"00419f1c0d6f2a2b4c3d8e7f6a5b4c3d2e1f0a9b8c7d refs/tags/v2.1.0^{}\n" +
	"0000"

func setupGockWithCleanup(t *testing.T, path string, body string, statusCode int) {
	gock.New("https://git.example.com").
		Get(path).
		MatchParam("service", "git-upload-pack").
		Persist().
		Reply(statusCode).
		BodyString(body)
	t.Cleanup(gock.OffAll)
}

func newVerifier(t *testing.T) *gitref.Verifier {
	v, err := gitref.NewVerifier(&http.Client{})
	require.NoError(t, err)
	return v
}

func TestExists(t *testing.T) {
	const url = "https://git.example.com/example/charts.git"

	for _, ref := range []string{
		"",
		"HEAD",
		"main",
		"release-2.x",
		"refs/heads/main",
		"v2.1.0",
		"refs/tags/v2.1.0",
		"9f1c0d6",
		"4F0B3F2AE6B7",
		"0123456789abcdef0123456789abcdef01234567", // full hashes are not advertised
	} {
		t.Run("found "+ref, func(t *testing.T) {
			// given
			setupGockWithCleanup(t, "/example/charts.git/info/refs", advertisement, http.StatusOK)
			// when
			exists, err := newVerifier(t).Exists(context.Background(), url, ref)
			// then
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}

	for _, ref := range []string{"develop", "release", "v2.1", "refs/heads/v2.1.0", "abcdef0"} {
		t.Run("not found "+ref, func(t *testing.T) {
			// given
			setupGockWithCleanup(t, "/example/charts.git/info/refs", advertisement, http.StatusOK)
			// when
			exists, err := newVerifier(t).Exists(context.Background(), url, ref)
			// then
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}

	t.Run("repository not found", func(t *testing.T) {
		// given
		setupGockWithCleanup(t, "/example/missing.git/info/refs", "Repository not found.", http.StatusNotFound)
		// when
		_, err := newVerifier(t).Exists(context.Background(), "https://git.example.com/example/missing.git", "main")
		// then
		require.EqualError(t, err, "failed to list refs of https://git.example.com/example/missing.git: unexpected status 404: Repository not found.")
	})

	t.Run("ssh remote", func(t *testing.T) {
		// when
		_, err := newVerifier(t).Exists(context.Background(), "git@github.com:example/charts.git", "main")
		// then
		require.ErrorIs(t, err, gitref.ErrUnsupportedProtocol)
	})

	t.Run("advertisement is cached", func(t *testing.T) {
		// given
		gock.New("https://git.example.com").
			Get("/example/charts.git/info/refs").
			MatchParam("service", "git-upload-pack").
			Times(1).
			Reply(http.StatusOK).
			BodyString(advertisement)
		t.Cleanup(gock.OffAll)
		v := newVerifier(t)
		// when
		first, err1 := v.Exists(context.Background(), url, "main")
		second, err2 := v.Exists(context.Background(), url, "v2.1.0")
		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, first)
		assert.True(t, second)
		assert.True(t, gock.IsDone())
	})
}

func TestChecker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	manifest, err := pubspec.Parse([]byte(`name: app
dependencies:
  charts:
    git:
      url: https://git.example.com/example/charts.git
      ref: v2.1.0
  gauges:
    git:
      url: https://git.example.com/example/charts.git
      ref: v3.0.0
      path: gauges
  legacy:
    git: https://git.example.com/example/legacy.git
  internal:
    git: git@git.example.com:example/internal.git
  http: ^1.2.0
`))
	require.NoError(t, err)
	project := audit.Project{Path: "pubspec.yaml", Manifest: manifest}
	setupGockWithCleanup(t, "/example/charts.git/info/refs", advertisement, http.StatusOK)
	setupGockWithCleanup(t, "/example/legacy.git/info/refs", "", http.StatusInternalServerError)

	// when
	issues, err := gitref.Checker{Verifier: newVerifier(t), Logger: logger}.Check(context.Background(), project)

	// then
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, gitref.RuleMissingRef, issues[0].Rule)
	assert.Equal(t, "gauges", issues[0].Package)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
	assert.Equal(t, `dependencies: ref "v3.0.0" of git dependency "gauges" does not exist on https://git.example.com/example/charts.git`, issues[0].Message)
	assert.Equal(t, gitref.RuleUnreachableRemote, issues[1].Rule)
	assert.Equal(t, "legacy", issues[1].Package)
	assert.Equal(t, model.SeverityWarning, issues[1].Severity)
}
