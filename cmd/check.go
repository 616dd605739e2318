package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/advisor/vulnerablecode"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/audit"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/detect"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/flags"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/gitref"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/license"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/model"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/report"
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	var configFile, path, outDir, failOn, engine string
	var debug, verifyGitRefs, advisor, licenses bool
	var cmd = &cobra.Command{
		Use:          "check",
		Short:        "Audit the dependencies of the pubspec.yaml files found in '--path', excluding the issues listed in the '--config' YAML file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := configuration.New(configFile)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.OutOrStdout(), debug)
			threshold, err := model.ParseSeverity(failOn)
			if err != nil {
				return err
			}
			parser, err := newParser(engine)
			if err != nil {
				return err
			}

			manifests, err := detect.Manifests(path, config.Policy.Exclude)
			if err != nil {
				return fmt.Errorf("failed to find manifests: %w", err)
			}
			if len(manifests) == 0 {
				return fmt.Errorf("no pubspec.yaml found in %s", path)
			}
			logger.Debug("manifests found", "count", len(manifests))
			projects, err := audit.LoadProjects(parser, path, manifests)
			if err != nil {
				return err
			}

			inventory := license.NewInventory()
			checkers := []audit.Checker{audit.PolicyChecker{Policy: config.Policy}}
			names := []string{audit.PolicySource}
			if verifyGitRefs {
				verifier, err := gitref.NewVerifier(&http.Client{Timeout: 30 * time.Second})
				if err != nil {
					return err
				}
				checkers = append(checkers, gitref.Checker{Verifier: verifier, Logger: logger})
				names = append(names, gitref.Source)
			}
			if licenses {
				resolver, err := license.NewGitHubResolver(cmd.Context(), config.GitHub.Token)
				if err != nil {
					return err
				}
				files, err := license.NewFileClassifier()
				if err != nil {
					return err
				}
				checkers = append(checkers, license.Checker{
					Resolver:  resolver,
					Files:     files,
					Allowed:   config.Policy.AllowedLicenses,
					Inventory: inventory,
					Logger:    logger,
				})
				names = append(names, license.Source)
			}
			if advisor {
				logger.Debug("querying VulnerableCode", "url", config.VulnerableCode.URL())
				checkers = append(checkers, vulnerablecode.Checker{Client: vulnerablecode.NewClient(config.VulnerableCode), Logger: logger})
				names = append(names, vulnerablecode.Source)
			}

			issues, outdated, err := audit.Audit(cmd.Context(), logger, projects, config, checkers...)
			if err != nil {
				return err
			}

			if outDir != "" {
				paths := make([]string, 0, len(projects))
				for _, p := range projects {
					paths = append(paths, p.Path)
				}
				meta := report.NewMeta(path, threshold.String(), paths, names)
				provenance, err := detect.DetectProvenance(path)
				if err != nil {
					logger.Warn("could not determine the provenance of the scanned tree", "path", path, "error", err.Error())
				}
				meta.Repository, meta.Revision = provenance.Repository, provenance.Revision
				rep := report.Report{
					Meta:            meta,
					Issues:          issues,
					OutdatedIgnores: outdated,
					Licenses:        inventory.Licenses(),
				}
				if err := report.Generate(outDir, rep); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				logger.Info("report written", "path", outDir)
			}

			failing := 0
			for _, issue := range issues {
				if issue.Severity.Rank() >= threshold.Rank() {
					failing++
				}
			}
			audit.PrintIssues(cmd.OutOrStdout(), issues)
			audit.PrintOutdatedIgnores(cmd.OutOrStdout(), outdated, time.Now())
			switch {
			case failing > 0 || len(outdated) > 0:
				return fmt.Errorf("%d issue(s) at or above %s found and %d outdated ignored issue(s) found", failing, threshold, len(outdated))
			case len(issues) > 0:
				logger.Info("no issues at or above the threshold", "fail-on", threshold.String(), "issues", len(issues))
				return nil
			default:
				logger.Info("no issues found")
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to the configuration file (policy, ignored issues, advisor settings)")
	cmd.Flags().StringVar(&path, "path", ".", "path to the repository root directory to scan")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write report.json, report.md and report.html into")
	cmd.Flags().StringVar(&failOn, "fail-on", string(model.SeverityWarning), "minimum severity failing the check (hint, warning or error)")
	cmd.Flags().StringVar(&engine, "yaml-engine", engineYAMLv3, "YAML engine used to read the manifests (yaml.v3 or goccy)")
	cmd.Flags().BoolVar(&verifyGitRefs, "verify-git-refs", false, "verify that the refs of git dependencies exist on their remote")
	cmd.Flags().BoolVar(&advisor, "advisor", false, "look up known vulnerabilities on VulnerableCode")
	cmd.Flags().BoolVar(&licenses, "licenses", false, "check the licenses of git and path dependencies")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug mode")
	flags.MustMarkFilename(cmd, "config", "yaml", "yml")
	flags.MustMarkDirname(cmd, "path")
	flags.MustMarkDirname(cmd, "out")
	return cmd
}
