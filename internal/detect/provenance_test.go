package detect_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/detect"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvenance(t *testing.T) {

	t.Run("working copy with origin", func(t *testing.T) {
		// given
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "packages", "app"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "packages", "app", "pubspec.yaml"), []byte("name: app\n"), 0o600))
		worktree, err := repo.Worktree()
		require.NoError(t, err)
		_, err = worktree.Add("packages/app/pubspec.yaml")
		require.NoError(t, err)
		commit, err := worktree.Commit("initial commit", &git.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"https://github.com/example/app.git"}})
		require.NoError(t, err)
		// when
		p, err := detect.DetectProvenance(filepath.Join(dir, "packages", "app"))
		// then
		require.NoError(t, err)
		assert.Equal(t, detect.Provenance{Repository: "https://github.com/example/app.git", Revision: commit.String()}, p)
	})

	t.Run("manifest file in a repository without commit nor remote", func(t *testing.T) {
		// given
		dir := t.TempDir()
		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)
		manifest := filepath.Join(dir, "pubspec.yaml")
		require.NoError(t, os.WriteFile(manifest, []byte("name: app\n"), 0o600))
		// when
		p, err := detect.DetectProvenance(manifest)
		// then
		require.NoError(t, err)
		assert.Equal(t, detect.Provenance{}, p)
	})

	t.Run("not a repository", func(t *testing.T) {
		// when
		p, err := detect.DetectProvenance(t.TempDir())
		// then
		require.NoError(t, err)
		assert.Equal(t, detect.Provenance{}, p)
	})
}
