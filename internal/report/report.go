package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	JSONFile     = "report.json"
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

type Meta struct {
	RunID       string `json:"run_id"`
	ScannedPath string `json:"scanned_path"`
	// Repository and Revision locate the scanned tree when it is a git working copy.
	Repository string    `json:"repository,omitempty"`
	Revision   string    `json:"revision,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	FailOn     string    `json:"fail_on"`
	Manifests  []string  `json:"manifests"`
	Checkers   []string  `json:"checkers"`
}

// NewMeta describes a run started now.
func NewMeta(scannedPath, failOn string, manifests, checkers []string) Meta {
	return Meta{
		RunID:       uuid.NewString(),
		ScannedPath: scannedPath,
		Timestamp:   time.Now().UTC(),
		FailOn:      failOn,
		Manifests:   manifests,
		Checkers:    checkers,
	}
}

// Licenses maps a manifest path to the SPDX identifier identified for each of its dependencies.
type Licenses map[string]map[string]string

type Report struct {
	Meta            Meta                          `json:"meta"`
	Issues          []model.Issue                 `json:"issues"`
	OutdatedIgnores []*configuration.IgnoredIssue `json:"outdated_ignores,omitempty"`
	Licenses        Licenses                      `json:"licenses,omitempty"`
}

// Generate writes report.json, report.md and report.html into outDir.
func Generate(outDir string, rep Report) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if rep.Issues == nil {
		rep.Issues = []model.Issue{}
	}

	jsonBytes, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, JSONFile), jsonBytes, 0o644); err != nil {
		return err
	}

	md := generateMarkdown(rep)
	if err := os.WriteFile(filepath.Join(outDir, MarkdownFile), []byte(md), 0o644); err != nil {
		return err
	}

	html, err := generateHTML(md)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, HTMLFile), html, 0o644)
}

// Load reads a report.json file.
func Load(path string) (*Report, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	rep := &Report{}
	if err := json.Unmarshal(contents, rep); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return rep, nil
}

func generateMarkdown(rep Report) string {
	var sb strings.Builder

	sb.WriteString("# pubspec-check report\n\n")
	fmt.Fprintf(&sb, "**Target:** `%s`  \n", rep.Meta.ScannedPath)
	if rep.Meta.Repository != "" {
		fmt.Fprintf(&sb, "**Repository:** %s @ `%s`  \n", rep.Meta.Repository, rep.Meta.Revision)
	}
	fmt.Fprintf(&sb, "**Run:** %s  \n", rep.Meta.RunID)
	fmt.Fprintf(&sb, "**Timestamp:** %s  \n", rep.Meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Fail On:** %s  \n", rep.Meta.FailOn)
	fmt.Fprintf(&sb, "**Manifests:** %d\n\n", len(rep.Meta.Manifests))

	counts := make(map[model.Severity]int)
	for _, issue := range rep.Issues {
		counts[issue.Severity]++
	}
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("| :--- | :--- |\n")
	fmt.Fprintf(&sb, "| Error | %d |\n", counts[model.SeverityError])
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts[model.SeverityWarning])
	fmt.Fprintf(&sb, "| Hint | %d |\n", counts[model.SeverityHint])
	sb.WriteString("\n")

	sb.WriteString("## Issues\n\n")
	if len(rep.Issues) == 0 {
		sb.WriteString("_No issues._\n")
	} else {
		sb.WriteString("| Severity | Rule | Package | Manifest | Message |\n")
		sb.WriteString("| :--- | :--- | :--- | :--- | :--- |\n")
		for _, issue := range rep.Issues {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				issue.Severity, cell(issue.Rule), cell(issue.Package), cell(issue.AffectedPath), cell(issue.Message))
		}
	}

	if len(rep.OutdatedIgnores) > 0 {
		fmt.Fprintf(&sb, "\n## Outdated Ignores (%d)\n\n", len(rep.OutdatedIgnores))
		sb.WriteString("> These entries no longer match any issue and can be removed from the configuration.\n\n")
		sb.WriteString("| ID | Package | Silence Until |\n")
		sb.WriteString("| :--- | :--- | :--- |\n")
		for _, entry := range rep.OutdatedIgnores {
			until := ""
			if !entry.SilenceUntil.IsZero() {
				until = entry.SilenceUntil.Format(time.DateOnly)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", cell(entry.ID), cell(entry.Package), until)
		}
	}

	if len(rep.Licenses) > 0 {
		sb.WriteString("\n## Licenses\n\n")
		sb.WriteString("| Manifest | Package | License |\n")
		sb.WriteString("| :--- | :--- | :--- |\n")
		for _, path := range sortedKeys(rep.Licenses) {
			for _, pkg := range sortedKeys(rep.Licenses[path]) {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", cell(path), cell(pkg), cell(rep.Licenses[path][pkg]))
			}
		}
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cell sanitizes a value for a table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(model.NormalizeLineBreaks(s), "\n", " ")
}

func generateHTML(md string) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.New(goldmark.WithExtensions(extension.GFM)).Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	var html bytes.Buffer
	html.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>pubspec-check report</title>\n</head>\n<body>\n")
	html.Write(body.Bytes())
	html.WriteString("</body>\n</html>\n")
	return html.Bytes(), nil
}
