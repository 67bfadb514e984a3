package cmd

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/report"
)

func HardlinksCommand() *cobra.Command {
	flags := &scanFlags{}

	command := &cobra.Command{
		Use:          "hardlinks",
		Short:        "List files with more than one path under the configured roots",
		Example:      `  arrmap hardlinks --detail full`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	flags.register(command, "full")
	command.RunE = scanCommand("hardlinks", flags, report.SectionSummary, report.SectionHardlinks)

	return command
}
