package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trawl-tools/trawl/pkg/creds"
	"github.com/trawl-tools/trawl/pkg/report"
	"github.com/trawl-tools/trawl/pkg/session"
	"github.com/trawl-tools/trawl/pkg/spec"
	"github.com/trawl-tools/trawl/pkg/trawl"
	"github.com/trawl-tools/trawl/pkg/util"
)

func newApplyCmd() *cobra.Command {
	var (
		user     string
		password string
		specFile string
		saveFile string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply commands as per spec file",
		Long: `Open a session to every device in the spec file, send the commands in
order, apply the search patterns, and save all captured output to the
transcript file. A device failure never stops the other devices.

The transcript path must not point at an existing file; the default
name carries a startup timestamp, so consecutive runs never collide.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging()

			runSpec, err := spec.Load(specFile)
			if err != nil {
				return fmt.Errorf("failed loading spec file: %w", err)
			}

			resolver := &creds.Resolver{User: user, Password: password}
			cr, err := resolver.Resolve()
			if err != nil {
				return err
			}

			// Refuse the transcript path before any session opens so a
			// finished run never fails at the last step.
			if _, err := os.Stat(saveFile); err == nil {
				return fmt.Errorf("save file %q already exists", saveFile)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("checking save file: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := &trawl.Runner{
				Dialer: session.NewLiveDialer(session.Options{
					Username: cr.Username,
					Password: cr.Password,
				}),
				Reporter: trawl.NewConsoleReporter(false),
				Parallel: parallel,
			}
			result, err := runner.Run(ctx, runSpec)
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				util.Warnf("Interrupted by user")
			}

			if err := report.Save(saveFile, result); err != nil {
				return err
			}
			util.Infof("Saved output from commands to '%s'", saveFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "",
		"Username, can also be set via the "+creds.EnvUser+" environment variable; prompted for when absent")
	cmd.Flags().StringVarP(&password, "password", "p", "",
		"Password, can also be set via the "+creds.EnvPassword+" environment variable; prompted for when absent")
	cmd.Flags().StringVarP(&specFile, "file", "f", spec.DefaultFile,
		"Spec file containing instructions to execute")
	cmd.Flags().StringVarP(&saveFile, "save", "s", defaultSavePath(),
		"Save output to file")
	cmd.Flags().IntVar(&parallel, "parallel", 0,
		"Maximum concurrent device sessions (0 = no limit)")

	return cmd
}

// defaultSavePath stamps the transcript name with the startup time.
func defaultSavePath() string {
	return fmt.Sprintf("data_%s.txt", time.Now().Format("20060102_150405"))
}
