package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trawl-tools/trawl/pkg/util"
	"github.com/trawl-tools/trawl/pkg/version"
)

var verboseFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "trawl",
		Short: "Capture CLI command output from network devices and search for patterns",
		Long: `Trawl runs a declarative capture against a fleet of network devices.

A spec file names the devices and the commands to send. Each command may
carry a search pattern; trawl reports per device how often the pattern
occurred and saves every captured output to a transcript file.

  trawl apply                        # run the spec in trawl_spec.yml
  trawl apply -f lab.yml -s out.txt  # explicit spec and transcript paths
  trawl preview -f lab.yml           # show what apply would do, no I/O
  trawl schema                       # export the spec file JSON schema

Credentials come from -u/-p, the TRAWL_USER and TRAWL_PASSWORD
environment variables, or an interactive prompt, in that order.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newApplyCmd(),
		newPreviewCmd(),
		newSchemaCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("trawl dev build (use 'make build' for version info)")
				} else {
					fmt.Printf("trawl %s (%s)\n", version.Version, version.GitCommit)
				}
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogging applies the persistent verbosity flag.
func configureLogging() {
	if verboseFlag {
		util.SetLogLevel("debug")
	} else {
		util.SetLogLevel("info")
	}
}
