package cmd

import (
	"github.com/spf13/cobra"
)

func ScanCommand() *cobra.Command {
	flags := &scanFlags{}

	command := &cobra.Command{
		Use:   "scan",
		Short: "Reconcile the torrent client, Radarr and Sonarr against the filesystem",
		Long: `Walk every configured root, collect the inventories of the torrent client, Radarr and Sonarr,
and report hardlink groups, orphans, cross-seeds and files the services claim but the filesystem lacks.`,
		Example: `  arrmap scan
  arrmap scan --detail full
  arrmap scan -f json --metrics-file /var/lib/node_exporter/arrmap.prom`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	flags.register(command, "normal")
	command.Flags().BoolVar(&flags.includeIgnored, "include-ignored", false, "List orphans matched by an ignore rule")
	command.RunE = scanCommand("scan", flags)

	return command
}
