package gitref

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnsupportedProtocol is returned for remotes that cannot be queried over HTTP(S).
var ErrUnsupportedProtocol = errors.New("unsupported git protocol")

const cacheSize = 128

// remoteRefs is the list of refs advertised by a remote.
type remoteRefs struct {
	names  map[string]struct{}
	hashes []string
}

// Verifier checks that refs exist on git remotes, using the smart HTTP protocol.
// Advertisements are cached per remote so that a repository is queried once per run.
type Verifier struct {
	client *http.Client
	cache  *lru.Cache[string, remoteRefs]
}

// NewVerifier returns a Verifier sending its requests with the given client, or http.DefaultClient when nil.
func NewVerifier(client *http.Client) (*Verifier, error) {
	if client == nil {
		client = http.DefaultClient
	}
	cache, err := lru.New[string, remoteRefs](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		client: client,
		cache:  cache,
	}, nil
}

// Exists checks if ref exists on the remote at url. The ref may be a commit hash, a full ref name
// (refs/heads/main), a branch or a tag name. An empty ref stands for the default branch (HEAD).
// Full commit hashes cannot be listed and are always accepted.
func (v *Verifier) Exists(ctx context.Context, url, ref string) (bool, error) {
	endpoint, err := transport.NewEndpoint(url)
	if err != nil {
		return false, fmt.Errorf("invalid git url %q: %w", url, err)
	}
	if endpoint.Protocol != "http" && endpoint.Protocol != "https" {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, endpoint.Protocol)
	}
	if plumbing.IsHash(ref) {
		return true, nil
	}

	refs, err := v.advertisedRefs(ctx, endpoint)
	if err != nil {
		return false, err
	}

	if ref == "" {
		ref = plumbing.HEAD.String()
	}
	for _, candidate := range []string{
		ref,
		plumbing.NewBranchReferenceName(ref).String(),
		plumbing.NewTagReferenceName(ref).String(),
	} {
		if _, ok := refs.names[candidate]; ok {
			return true, nil
		}
	}
	// abbreviated commit hash
	if len(ref) >= 7 && isHex(ref) {
		for _, hash := range refs.hashes {
			if strings.HasPrefix(hash, strings.ToLower(ref)) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (v *Verifier) advertisedRefs(ctx context.Context, endpoint *transport.Endpoint) (remoteRefs, error) {
	remote := strings.TrimSuffix(endpoint.String(), "/")
	if refs, ok := v.cache.Get(remote); ok {
		return refs, nil
	}

	url := fmt.Sprintf("%s/info/refs?service=git-upload-pack", remote)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return remoteRefs{}, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return remoteRefs{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return remoteRefs{}, fmt.Errorf("failed to list refs of %s: unexpected status %d: %s", remote, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	refs, err := parseAdvertisement(resp.Body)
	if err != nil {
		return remoteRefs{}, fmt.Errorf("failed to list refs of %s: %w", remote, err)
	}
	v.cache.Add(remote, refs)
	return refs, nil
}

// parseAdvertisement reads the pkt-lines of an info/refs response, e.g.
//
//	001e# service=git-upload-pack
//	0000009b4f0b3f2ae6b774416cc91e779cca4a8bb71af054 HEAD\x00multi_ack thin-pack side-band ...
//	003f4f0b3f2ae6b774416cc91e779cca4a8bb71af054 refs/heads/master
//	0000
//
// Each ref line is a length prefix directly followed by the hash, then the ref name.
func parseAdvertisement(r io.Reader) (remoteRefs, error) {
	refs := remoteRefs{
		names: map[string]struct{}{},
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) < 40 {
			continue
		}
		hash := fields[0][len(fields[0])-40:]
		if !plumbing.IsHash(hash) {
			continue
		}
		name, _, _ := strings.Cut(fields[1], "\x00")
		// peeled tags
		name = strings.TrimSuffix(name, "^{}")
		refs.names[name] = struct{}{}
		refs.hashes = append(refs.hashes, strings.ToLower(hash))
	}
	return refs, scanner.Err()
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
