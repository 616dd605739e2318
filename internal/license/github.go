package license

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/google/go-github/v44/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
)

// ErrNotGitHub is returned when a repository is not hosted on github.com.
var ErrNotGitHub = errors.New("not a GitHub repository")

const cacheSize = 256

// GitHubResolver looks up the license GitHub detected for a repository.
type GitHubResolver struct {
	client *github.Client
	cache  *lru.Cache[string, string]
}

// NewGitHubResolver returns a resolver calling the GitHub API, authenticated when a token is given.
func NewGitHubResolver(ctx context.Context, token string) (*GitHubResolver, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &GitHubResolver{
		client: github.NewClient(httpClient),
		cache:  cache,
	}, nil
}

// License returns the SPDX identifier of the license of the repository at url.
// It returns an empty string when the repository has no license file.
func (r *GitHubResolver) License(ctx context.Context, url string) (string, error) {
	owner, repo, err := githubRepository(url)
	if err != nil {
		return "", err
	}
	key := owner + "/" + repo
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}
	license, resp, err := r.client.Repositories.License(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			r.cache.Add(key, "")
			return "", nil
		}
		return "", fmt.Errorf("failed to get the license of %s: %w", key, err)
	}
	id := license.GetLicense().GetSPDXID()
	r.cache.Add(key, id)
	return id, nil
}

// githubRepository extracts the owner and repository name from a github.com clone URL.
func githubRepository(url string) (string, string, error) {
	endpoint, err := transport.NewEndpoint(url)
	if err != nil {
		return "", "", fmt.Errorf("invalid git url %q: %w", url, err)
	}
	if !strings.EqualFold(endpoint.Host, "github.com") {
		return "", "", fmt.Errorf("%w: %s", ErrNotGitHub, url)
	}
	parts := strings.Split(strings.Trim(endpoint.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrNotGitHub, url)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
