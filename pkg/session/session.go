// Package session provides the device session transports used by the run
// engine: a live implementation that drives a CLI over SSH or telnet, and
// a preview implementation that performs no network I/O. The engine only
// sees the Dialer and Session interfaces, so both variants run the exact
// same engine code path.
package session

import (
	"context"
	"time"

	"github.com/trawl-tools/trawl/pkg/spec"
)

// Default timeouts for live sessions.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 30 * time.Second
)

// Options tune live session behavior.
type Options struct {
	// Username and Password authenticate every device session.
	Username string
	Password string

	// ConnectTimeout bounds transport establishment, including the wait
	// for the first device prompt. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// CommandTimeout bounds the wait for each command's output unless
	// the command declares its own timeout. Zero means
	// DefaultCommandTimeout.
	CommandTimeout time.Duration
}

// withDefaults fills zero fields with the package defaults.
func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	return o
}

// Session is an open CLI session to one device.
type Session interface {
	// Send sends the command text and returns the captured output, with
	// the echoed command and the trailing prompt stripped.
	Send(ctx context.Context, cmd *spec.Command) (string, error)

	// Close releases the session. Called exactly once per successful
	// dial.
	Close() error
}

// Dialer opens a session to a device.
type Dialer interface {
	Dial(ctx context.Context, dev *spec.Device) (Session, error)
}
