package cmd

import (
	"errors"
	"fmt"

	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/flags"
	"github.com/codeready-toolchain/toolchain-cicd/pubspec-check/internal/report"
	"github.com/spf13/cobra"
)

func NewTestLicensesCmd() *cobra.Command {
	var inputFile, contrastFile string
	cmd := &cobra.Command{
		Use:          "test-licenses --input-file=<report.json> --contrast-file=<report.json>",
		Short:        "Check that two reports identified the same licenses",
		Long:         `Compares the license findings of two report.json files written by 'check --licenses'. Fails when a dependency was found with another license, or only in one of the reports.`,
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
			if !report.EqualLicenses(input.Licenses, contrast.Licenses) {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s\n+++ %s\n", inputFile, contrastFile)
				fmt.Fprint(cmd.OutOrStdout(), report.DiffLicenses(input.Licenses, contrast.Licenses))
				return errors.New("license findings are not identical")
			}
			count := 0
			for _, pkgs := range input.Licenses {
				count += len(pkgs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d license finding(s), identical\n", count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "report.json to test")
	flags.MustMarkRequired(cmd, "input-file")
	flags.MustMarkFilename(cmd, "input-file", "json")
	cmd.Flags().StringVarP(&contrastFile, "contrast-file", "c", "", "report.json holding the expected license findings")
	flags.MustMarkRequired(cmd, "contrast-file")
	flags.MustMarkFilename(cmd, "contrast-file", "json")
	return cmd
}
