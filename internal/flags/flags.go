package flags

import (
	"github.com/spf13/cobra"
)

func MustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(err)
	}
}

// MustMarkFilename restricts the shell completion of the flag to files with the given extensions.
func MustMarkFilename(cmd *cobra.Command, name string, extensions ...string) {
	if err := cmd.MarkFlagFilename(name, extensions...); err != nil {
		panic(err)
	}
}

// MustMarkDirname restricts the shell completion of the flag to directories.
func MustMarkDirname(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagDirname(name); err != nil {
		panic(err)
	}
}
