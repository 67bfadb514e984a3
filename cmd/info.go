package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func InfoCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "info",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and ARRMAP_ environment variables are
applied. Passwords, API keys and webhooks are masked.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		if err := initCore(false); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		cmd.Printf("# %s\n", configPath())

		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg.Redacted()); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			cmd.PrintErrf("\nconfiguration is invalid: %v\n", err)
		}
		return nil
	}

	return command
}
