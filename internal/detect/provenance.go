package detect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Provenance locates a scanned tree in version control.
type Provenance struct {
	Repository string
	Revision   string
}

// DetectProvenance returns the origin URL and the HEAD commit of the git working copy holding path.
// A path outside of any git repository yields a zero Provenance.
func DetectProvenance(path string) (Provenance, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return Provenance{}, err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Provenance{}, nil
	}
	if err != nil {
		return Provenance{}, fmt.Errorf("failed to open git repository: %w", err)
	}

	p := Provenance{}
	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// nothing committed yet
	case err != nil:
		return Provenance{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	default:
		p.Revision = head.Hash().String()
	}
	remote, err := repo.Remote(git.DefaultRemoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
	case err != nil:
		return Provenance{}, fmt.Errorf("failed to read remote %s: %w", git.DefaultRemoteName, err)
	default:
		if urls := remote.Config().URLs; len(urls) > 0 {
			p.Repository = urls[0]
		}
	}
	return p, nil
}
