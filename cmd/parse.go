package cmd

import (
	"fmt"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/flags"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/pubspec"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func NewParseCmd() *cobra.Command {
	var manifest, format, engine string
	cmd := &cobra.Command{
		Use:          "parse --manifest=<pubspec.yaml>",
		Short:        "Parse a pubspec.yaml and print its canonical form",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			parser, err := newParser(engine)
			if err != nil {
				return err
			}
			m, err := parser.ParseFile(manifest)
			if err != nil {
				return err
			}
			var out []byte
			switch format {
			case "yaml":
				out, err = pubspec.Marshal(m)
			case "json":
				out, err = json.MarshalIndent(m, "", "  ")
				out = append(out, '\n')
			default:
				return fmt.Errorf("unsupported format %q (must be yaml or json)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to serialize manifest: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "path to the pubspec.yaml file to parse")
	flags.MustMarkRequired(cmd, "manifest")
	flags.MustMarkFilename(cmd, "manifest", "yaml")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml or json)")
	cmd.Flags().StringVar(&engine, "yaml-engine", engineYAMLv3, "YAML engine used to read the manifest (yaml.v3 or goccy)")
	return cmd
}
