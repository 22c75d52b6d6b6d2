package session

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/trawl-tools/trawl/pkg/spec"
)

// Commands sent after login so captures arrive unpaginated and
// unwrapped.
var setupCommands = []string{
	"terminal length 0",
	"terminal width 511",
}

// liveDialer opens interactive CLI sessions over the transport the
// device declares.
type liveDialer struct {
	opts Options
}

// NewLiveDialer returns a Dialer that connects to devices over SSH or
// telnet according to their device type.
func NewLiveDialer(opts Options) Dialer {
	return &liveDialer{opts: opts.withDefaults()}
}

func (d *liveDialer) Dial(ctx context.Context, dev *spec.Device) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dev.DeviceType.Telnet() {
		return dialTelnet(ctx, dev, d.opts)
	}
	return dialSSH(ctx, dev, d.opts)
}

// liveSession drives one interactive CLI over an established transport.
type liveSession struct {
	sh    *shell
	close func() error
	opts  Options
}

// setup waits for the first device prompt and disables pagination. Any
// failure here means the session never became usable, so callers report
// it as a connect failure. Telnet sessions see their first prompt during
// login and call disablePaging directly.
func (s *liveSession) setup(ctx context.Context) error {
	if _, _, err := s.sh.expect(ctx, promptDefault, s.opts.ConnectTimeout); err != nil {
		return err
	}
	return s.disablePaging(ctx)
}

func (s *liveSession) disablePaging(ctx context.Context) error {
	for _, cmd := range setupCommands {
		if _, err := s.sh.run(ctx, cmd, promptDefault, s.opts.CommandTimeout); err != nil {
			return err
		}
	}
	return nil
}

func (s *liveSession) Send(ctx context.Context, cmd *spec.Command) (string, error) {
	prompt := promptDefault
	if cmd.Prompt != "" {
		re, err := regexp.Compile(cmd.Prompt)
		if err != nil {
			return "", &SessionError{Op: "send", Err: fmt.Errorf("prompt pattern %q: %v", cmd.Prompt, err)}
		}
		prompt = re
	}
	timeout := s.opts.CommandTimeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	return s.sh.run(ctx, cmd.Send, prompt, timeout)
}

func (s *liveSession) Close() error {
	s.sh.stop()
	if s.close != nil {
		return s.close()
	}
	return nil
}

// connectDeadline derives the wall-clock budget for transport
// establishment, shortened when the context expires sooner.
func connectDeadline(ctx context.Context, timeout time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < timeout {
			return rem
		}
	}
	return timeout
}
