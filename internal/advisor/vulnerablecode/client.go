package vulnerablecode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/goccy/go-json"
)

// bulkSize is the maximum number of purls sent in one request.
const bulkSize = 100

// Client queries the VulnerableCode REST API.
type Client struct {
	serverURL string
	apiKey    string
	client    *http.Client
}

func NewClient(config configuration.VulnerableCode) *Client {
	return &Client{
		serverURL: config.URL(),
		apiKey:    config.APIKey,
		client:    &http.Client{Timeout: config.Timeout()},
	}
}

// Vulnerabilities returns the vulnerabilities of the given packages, by purl.
// Packages without any known vulnerability are not part of the result.
func (c *Client) Vulnerabilities(ctx context.Context, purls []string) (map[string][]Vulnerability, error) {
	result := map[string][]Vulnerability{}
	for start := 0; start < len(purls); start += bulkSize {
		end := min(start+bulkSize, len(purls))
		packages, err := c.bulkSearch(ctx, purls[start:end])
		if err != nil {
			return nil, err
		}
		for _, p := range packages {
			if len(p.AffectedByVulnerabilities) > 0 {
				result[p.Purl] = append(result[p.Purl], p.AffectedByVulnerabilities...)
			}
		}
	}
	return result, nil
}

func (c *Client) bulkSearch(ctx context.Context, purls []string) ([]PackageVulnerabilities, error) {
	body, err := json.Marshal(packagesRequest{Purls: purls})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"packages/bulk_search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query VulnerableCode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to query VulnerableCode: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var packages []PackageVulnerabilities
	if err := json.NewDecoder(resp.Body).Decode(&packages); err != nil {
		return nil, fmt.Errorf("failed to decode VulnerableCode response: %w", err)
	}
	return packages, nil
}
