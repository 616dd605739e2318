package cmd

import (
	"errors"
	"fmt"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/flags"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/report"
	"github.com/spf13/cobra"
)

func NewTestIssuesCmd() *cobra.Command {
	var inputFile, contrastFile string
	cmd := &cobra.Command{
		Use:          "test-issues --input-file=<report.json> --contrast-file=<report.json>",
		Short:        "Check that two reports contain the same issues",
		Long:         `Compares the issues of two report.json files, ignoring when the issues were reported and their order. Fails when they differ.`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := report.Load(inputFile)
			if err != nil {
				return err
			}
			contrast, err := report.Load(contrastFile)
			if err != nil {
				return err
			}
			if !report.Equal(input.Issues, contrast.Issues) {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s\n+++ %s\n", inputFile, contrastFile)
				fmt.Fprint(cmd.OutOrStdout(), report.Diff(input.Issues, contrast.Issues))
				return errors.New("issues are not identical")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d issue(s), identical\n", len(input.Issues))
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "report.json to test")
	flags.MustMarkRequired(cmd, "input-file")
	flags.MustMarkFilename(cmd, "input-file", "json")
	cmd.Flags().StringVarP(&contrastFile, "contrast-file", "c", "", "report.json holding the expected issues")
	flags.MustMarkRequired(cmd, "contrast-file")
	flags.MustMarkFilename(cmd, "contrast-file", "json")
	return cmd
}
