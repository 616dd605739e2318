package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec/goccyyaml"
	"github.com/spf13/cobra"
)

const (
	engineYAMLv3 = "yaml.v3"
	engineGoccy  = "goccy"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubspec-check",
		Short: "pubspec-check command-line",
		Long:  `pubspec-check command-line that parses Dart/Flutter package manifests and audits their dependencies`,
	}
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewTestIssuesCmd())
	cmd.AddCommand(NewTestLicensesCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(out io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if debug {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func newParser(engine string) (*pubspec.Parser, error) {
	switch engine {
	case engineYAMLv3:
		return pubspec.NewParser(pubspec.DecodeYAML), nil
	case engineGoccy:
		return pubspec.NewParser(goccyyaml.Decode), nil
	default:
		return nil, fmt.Errorf("unsupported yaml engine %q (must be %q or %q)", engine, engineYAMLv3, engineGoccy)
	}
}
