package cmd

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/report"
)

func CrossSeedsCommand() *cobra.Command {
	flags := &scanFlags{}

	command := &cobra.Command{
		Use:     "crossseeds",
		Aliases: []string{"cross-seeds"},
		Short:   "List torrents that seed the same files",
		Long: `This command groups torrents whose files resolve to the same on-disk data, directly or through
hardlinks, and lists each cluster with its trackers and shared size.`,
		Example:      `  arrmap crossseeds -f yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	flags.register(command, "full")
	command.RunE = scanCommand("crossseeds", flags, report.SectionSummary, report.SectionCrossSeeds)

	return command
}
