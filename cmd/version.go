package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/runtime"
)

func VersionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Long:  `Print version info`,
		Example: `  arrmap version
  arrmap version --help`,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "arrmap version: %s commit: %s built at: %s\n", runtime.Version, runtime.GitCommit, runtime.Timestamp)
		return nil
	}

	return command
}
