package configuration

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultVulnerableCodeURL = "https://public.vulnerablecode.io/api/"

type Configuration struct {
	IgnoredIssues  []*IgnoredIssue `yaml:"ignored-issues"`
	Policy         Policy          `yaml:"policy"`
	VulnerableCode VulnerableCode  `yaml:"vulnerablecode"`
	GitHub         GitHub          `yaml:"github"`
}

// IgnoredIssue silences the issues with the given ID (rule name or vulnerability ID) until SilenceUntil.
// When Package is set, only the issues about that package are silenced.
type IgnoredIssue struct {
	ID           string    `yaml:"id" json:"id"`
	Package      string    `yaml:"package" json:"package,omitempty"`
	SilenceUntil time.Time `yaml:"silence-until" json:"silence_until"`
	Info         string    `yaml:"info" json:"info,omitempty"`
}

// Active reports whether the entry still silences issues at the given time.
// An entry without silence-until never expires.
func (i *IgnoredIssue) Active(now time.Time) bool {
	return i.SilenceUntil.IsZero() || now.Before(i.SilenceUntil)
}

type Policy struct {
	// AllowedSources restricts the dependency kinds (hosted, git, path, sdk). Empty allows all.
	AllowedSources []string `yaml:"allowed-sources"`
	// AllowedSDKs restricts the SDKs sdk dependencies may come from. Empty allows all.
	AllowedSDKs []string `yaml:"allowed-sdks"`
	// AllowedLicenses lists the SPDX identifiers accepted for git dependencies.
	AllowedLicenses []string `yaml:"allowed-licenses"`
	// Exclude lists glob patterns of manifests to skip, relative to the scanned path.
	Exclude []string `yaml:"exclude"`
}

// VulnerableCode configures the VulnerableCode vulnerability advisor.
type VulnerableCode struct {
	// ServerURL is the base URL of the REST API. Defaults to the public instance.
	ServerURL string `yaml:"server-url"`
	APIKey    string `yaml:"api-key"`
	// ReadTimeout in seconds, zero keeps the HTTP client default.
	ReadTimeout int64 `yaml:"read-timeout"`
}

func (v VulnerableCode) URL() string {
	if v.ServerURL == "" {
		return DefaultVulnerableCodeURL
	}
	if !strings.HasSuffix(v.ServerURL, "/") {
		return v.ServerURL + "/"
	}
	return v.ServerURL
}

func (v VulnerableCode) Timeout() time.Duration {
	return time.Duration(v.ReadTimeout) * time.Second
}

type GitHub struct {
	Token string `yaml:"token"`
}

func New(path string) (Configuration, error) {
	c := Configuration{}
	if path == "" {
		return c, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := validate(contents); err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, err
	}
	if c.VulnerableCode.ReadTimeout < 0 {
		return c, fmt.Errorf("invalid vulnerablecode read-timeout: %d", c.VulnerableCode.ReadTimeout)
	}
	// environment variables take precedence so that secrets can stay out of the file
	if key := os.Getenv("VULNERABLECODE_API_KEY"); key != "" {
		c.VulnerableCode.APIKey = key
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	return c, nil
}
