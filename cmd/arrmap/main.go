package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/cmd"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "arrmap",
		Short: "Map torrents, movies and episodes to the files on disk",
		Long: `A CLI application that reconciles a torrent client, Radarr and Sonarr with the filesystem,
reporting hardlinks, orphans and cross-seeds.
`,
		SilenceErrors: true,
	}

	// Parse persistent flags
	rootCmd.PersistentFlags().StringVar(&cmd.FlagConfigFolder, "config-dir", cmd.FlagConfigFolder, "Config folder")
	rootCmd.PersistentFlags().StringVarP(&cmd.FlagConfigFile, "config", "c", cmd.FlagConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVarP(&cmd.FlagLogFile, "log", "l", cmd.FlagLogFile, "Log file")
	rootCmd.PersistentFlags().CountVarP(&cmd.FlagLogLevel, "verbose", "v", "Verbose level")

	rootCmd.AddCommand(cmd.ScanCommand())
	rootCmd.AddCommand(cmd.OrphansCommand())
	rootCmd.AddCommand(cmd.HardlinksCommand())
	rootCmd.AddCommand(cmd.CrossSeedsCommand())
	rootCmd.AddCommand(cmd.InfoCommand())
	rootCmd.AddCommand(cmd.UpdateCommand())
	rootCmd.AddCommand(cmd.VersionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
