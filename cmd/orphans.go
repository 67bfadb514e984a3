package cmd

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/report"
)

func OrphansCommand() *cobra.Command {
	flags := &scanFlags{}

	command := &cobra.Command{
		Use:   "orphans",
		Short: "List files no torrent, movie or episode owns",
		Long: `This command lists hardlink groups under the configured roots that no torrent, movie or episode
claims. Nothing is removed; ignore rules only annotate matches.`,
		Example: `  arrmap orphans
  arrmap orphans --include-ignored`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	flags.register(command, "full")
	command.Flags().BoolVar(&flags.includeIgnored, "include-ignored", false, "List orphans matched by an ignore rule")
	command.RunE = scanCommand("orphans", flags, report.SectionSummary, report.SectionOrphans)

	return command
}
