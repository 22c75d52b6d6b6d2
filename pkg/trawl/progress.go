package trawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/trawl-tools/trawl/pkg/cli"
	"github.com/trawl-tools/trawl/pkg/session"
	"github.com/trawl-tools/trawl/pkg/spec"
	"github.com/trawl-tools/trawl/pkg/util"
)

// Reporter receives lifecycle callbacks during a run. Callbacks may
// interleave across devices when sessions run concurrently; every
// device-scoped callback carries the device name. A nil Reporter on the
// Runner disables reporting entirely.
type Reporter interface {
	RunStart(id string, devices, commands int)
	SessionStart(device, addr string)
	CommandStart(device string, cmd *spec.Command)
	PatternResult(device string, outcome *MatchOutcome)
	SessionEnd(device string)
	DeviceDone(result *DeviceResult)
	RunEnd(result *RunResult)
}

// ConsoleReporter renders progress through the shared logger and prints
// an append-only summary block after live runs. It never uses ANSI
// cursor rewriting, so output is safe for pipes, CI, and scrollback
// buffers.
type ConsoleReporter struct {
	W       io.Writer
	Preview bool
}

// NewConsoleReporter creates a ConsoleReporter writing its summary to
// stdout.
func NewConsoleReporter(preview bool) *ConsoleReporter {
	return &ConsoleReporter{
		W:       os.Stdout,
		Preview: preview,
	}
}

// prefix marks every preview line the way the original console did.
func (p *ConsoleReporter) prefix() string {
	if p.Preview {
		return "[Preview] "
	}
	return ""
}

func (p *ConsoleReporter) RunStart(id string, devices, commands int) {
	util.WithRun(id).Debugf("%sRun started: %d devices, %d commands", p.prefix(), devices, commands)
}

func (p *ConsoleReporter) SessionStart(device, addr string) {
	util.WithDevice(device).Infof("%sStarting session to %s", p.prefix(), addr)
}

func (p *ConsoleReporter) CommandStart(device string, cmd *spec.Command) {
	extra := ""
	if p.Preview {
		if cmd.Prompt != "" {
			extra += fmt.Sprintf(", prompt pattern: %s", cmd.Prompt)
		}
		if cmd.Timeout > 0 {
			extra += fmt.Sprintf(", timeout: %s", cmd.Timeout)
		}
	}
	util.WithDevice(device).Infof("%sSending '%s'%s", p.prefix(), cmd.Send, extra)
}

func (p *ConsoleReporter) PatternResult(device string, outcome *MatchOutcome) {
	if p.Preview {
		util.WithDevice(device).Infof("%sCheck command output for pattern '%s'", p.prefix(), outcome.Pattern)
		return
	}
	util.WithDevice(device).Infof("%s", outcome)
}

func (p *ConsoleReporter) SessionEnd(device string) {
	util.WithDevice(device).Infof("%sClosed session", p.prefix())
}

func (p *ConsoleReporter) DeviceDone(result *DeviceResult) {
	if !result.Failed() {
		return
	}
	entry := util.WithDevice(result.Device)
	switch {
	case isCanceled(result.Err):
		entry.Warnf("%sCanceled: %v", p.prefix(), result.Err)
	case errors.Is(result.Err, session.ErrConnect), errors.Is(result.Err, session.ErrAuth):
		entry.Errorf("%sConnection error: %v", p.prefix(), result.Err)
	case errors.Is(result.Err, ErrInvalidPattern):
		entry.Errorf("%sSearch pattern error: %v", p.prefix(), result.Err)
	default:
		entry.Errorf("%sSession error: %v", p.prefix(), result.Err)
	}
}

func (p *ConsoleReporter) RunEnd(result *RunResult) {
	if p.Preview {
		util.WithRun(result.ID).Debugf("%sRun complete", p.prefix())
		return
	}

	if len(result.Matched) > 0 {
		util.Warnf("Search pattern found in the output from these devices: %s", strings.Join(result.Matched, ", "))
	} else {
		util.Infof("Search patterns not found in any device command output")
	}
	p.summary(result)
}

// summary prints the per-device roll-up block.
func (p *ConsoleReporter) summary(result *RunResult) {
	w := p.W
	if w == nil {
		w = os.Stdout
	}

	ok, failed, canceled := 0, 0, 0
	maxName := 0
	for i := range result.Devices {
		d := &result.Devices[i]
		switch {
		case !d.Failed():
			ok++
		case isCanceled(d.Err):
			canceled++
		default:
			failed++
		}
		if len(d.Device) > maxName {
			maxName = len(d.Device)
		}
	}
	dotWidth := maxName + 6

	fmt.Fprintf(w, "\n---\n")
	fmt.Fprintf(w, "trawl: %d devices", len(result.Devices))
	parts := []string{}
	if ok > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d ok", ok)))
	}
	if failed > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", failed)))
	}
	if canceled > 0 {
		parts = append(parts, cli.Yellow(fmt.Sprintf("%d canceled", canceled)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(w, "  (%s)\n", formatDurationCompact(result.Duration))

	if failed > 0 {
		fmt.Fprintf(w, "\n  FAILED:\n")
		for i := range result.Devices {
			d := &result.Devices[i]
			if !d.Failed() || isCanceled(d.Err) {
				continue
			}
			reason := "failed"
			if d.Err != nil {
				reason = d.Err.Error()
			}
			fmt.Fprintf(w, "    [%d]  %s  %s\n", i+1, cli.DotPad(d.Device, dotWidth), cli.Dim(reason))
		}
	}

	if canceled > 0 {
		fmt.Fprintf(w, "\n  CANCELED:\n")
		for i := range result.Devices {
			d := &result.Devices[i]
			if !d.Failed() || !isCanceled(d.Err) {
				continue
			}
			fmt.Fprintf(w, "    [%d]  %s %v\n", i+1, cli.DotPad(d.Device, dotWidth), d.Err)
		}
	}

	if len(result.Matched) > 0 {
		fmt.Fprintf(w, "\n  MATCHED:\n")
		for _, name := range result.Matched {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}
	fmt.Fprintln(w)
}

// isCanceled reports whether a device failure came from context
// cancellation rather than the device itself.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// formatDurationCompact formats a duration in a human-readable compact form.
func formatDurationCompact(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
