package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/arrmap/pkg/runtime"
)

const repository = "autobrr/arrmap"

func UpdateCommand() *cobra.Command {
	var assumeYes bool

	command := &cobra.Command{
		Use:          "update",
		Short:        "Update to latest version",
		Long:         `This command can be used to self-update to the latest version.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	command.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Update without asking")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// detect latest version
		fmt.Println("Checking for the latest version...")
		latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repository))
		if err != nil {
			return fmt.Errorf("failed determining latest available version: %w", err)
		}

		// check version
		if !found || latest.LessOrEqual(runtime.Version) {
			fmt.Printf("Already using the latest version: %v\n", runtime.Version)
			return nil
		}

		// ask update
		if !assumeYes {
			fmt.Printf("Do you want to update to the latest version: %v? (y/n):\n", latest.Version())
			input, err := bufio.NewReader(os.Stdin).ReadString('\n')
			input = strings.ToLower(strings.TrimSpace(input))
			if err != nil || (input != "y" && input != "n") {
				return fmt.Errorf("failed validating input")
			} else if input == "n" {
				return nil
			}
		}

		// get existing executable path
		exe, err := selfupdate.ExecutablePath()
		if err != nil {
			return fmt.Errorf("failed locating current executable path: %w", err)
		}

		if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
			return fmt.Errorf("failed updating existing binary to latest release: %w", err)
		}

		fmt.Printf("Successfully updated to the latest version: %v\n", latest.Version())
		return nil
	}

	return command
}
