package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trawl-tools/trawl/pkg/session"
	"github.com/trawl-tools/trawl/pkg/spec"
	"github.com/trawl-tools/trawl/pkg/trawl"
)

func newPreviewCmd() *cobra.Command {
	var specFile string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview commands as per spec file",
		Long: `Walk the spec exactly the way apply would, logging every intended
session, command, and pattern check, without opening a single
connection or writing any file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging()

			runSpec, err := spec.Load(specFile)
			if err != nil {
				return fmt.Errorf("failed loading spec file: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := &trawl.Runner{
				Dialer:   session.NewPreviewDialer(),
				Reporter: trawl.NewConsoleReporter(true),
			}
			_, err = runner.Run(ctx, runSpec)
			return err
		},
	}

	cmd.Flags().StringVarP(&specFile, "file", "f", spec.DefaultFile,
		"Spec file containing instructions to execute")

	return cmd
}
