package session

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/trawl-tools/trawl/pkg/spec"
)

// Telnet command bytes, RFC 854.
const (
	telnetSE   = 240
	telnetSB   = 250
	telnetWill = 251
	telnetWont = 252
	telnetDo   = 253
	telnetDont = 254
	telnetIAC  = 255
)

// dialTelnet opens a telnet connection, answers the login prompts and
// waits for the device prompt.
func dialTelnet(ctx context.Context, dev *spec.Device, opts Options) (Session, error) {
	addr := dev.DialAddr()
	dialer := &net.Dialer{Timeout: connectDeadline(ctx, opts.ConnectTimeout)}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	tc := newTelnetConn(conn)
	live := &liveSession{
		sh:    newShell(tc, tc),
		close: conn.Close,
		opts:  opts,
	}
	if err := live.login(ctx, addr); err != nil {
		live.Close()
		return nil, err
	}
	if err := live.disablePaging(ctx); err != nil {
		live.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	return live, nil
}

// login answers the Username and Password prompts and classifies the
// device's reaction. A CLI prompt means the session is up; a failure
// message or a fresh login prompt means the credentials were rejected.
func (s *liveSession) login(ctx context.Context, addr string) error {
	timeout := s.opts.ConnectTimeout
	if _, _, err := s.sh.expect(ctx, promptUsername, timeout); err != nil {
		return &ConnectError{Addr: addr, Err: fmt.Errorf("no login prompt: %v", err)}
	}
	if err := s.sh.writeLine(s.opts.Username); err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}
	if _, _, err := s.sh.expect(ctx, promptPassword, timeout); err != nil {
		return &ConnectError{Addr: addr, Err: fmt.Errorf("no password prompt: %v", err)}
	}
	if err := s.sh.writeLine(s.opts.Password); err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}
	_, match, err := s.sh.expect(ctx, loginOutcome, timeout)
	if err != nil {
		return &ConnectError{Addr: addr, Err: err}
	}
	if !promptDefault.MatchString(match) {
		return &AuthError{Addr: addr, User: s.opts.Username}
	}
	return nil
}

// telnetConn filters the telnet control channel out of a TCP stream. All
// option negotiation is refused, leaving a plain byte pipe for the CLI.
type telnetConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func newTelnetConn(conn net.Conn) *telnetConn {
	return &telnetConn{conn: conn, r: bufio.NewReader(conn)}
}

func (c *telnetConn) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := c.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if b == telnetIAC {
			cmd, err := c.r.ReadByte()
			if err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
			if cmd == telnetIAC {
				p[n] = telnetIAC
				n++
			} else if err := c.negotiate(cmd); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		} else {
			p[n] = b
			n++
		}
		if n > 0 && c.r.Buffered() == 0 {
			break
		}
	}
	return n, nil
}

// negotiate consumes one telnet command and refuses whatever the peer
// proposed.
func (c *telnetConn) negotiate(cmd byte) error {
	switch cmd {
	case telnetWill, telnetWont, telnetDo, telnetDont:
		opt, err := c.r.ReadByte()
		if err != nil {
			return err
		}
		switch cmd {
		case telnetWill:
			_, err = c.conn.Write([]byte{telnetIAC, telnetDont, opt})
		case telnetDo:
			_, err = c.conn.Write([]byte{telnetIAC, telnetWont, opt})
		}
		return err
	case telnetSB:
		// skip subnegotiation through IAC SE
		for {
			b, err := c.r.ReadByte()
			if err != nil {
				return err
			}
			if b != telnetIAC {
				continue
			}
			b, err = c.r.ReadByte()
			if err != nil {
				return err
			}
			if b == telnetSE {
				return nil
			}
		}
	default:
		return nil
	}
}

// Write escapes IAC bytes and expands newlines to the CRLF the telnet
// NVT expects.
func (c *telnetConn) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		switch b {
		case telnetIAC:
			out = append(out, telnetIAC, telnetIAC)
		case '\n':
			out = append(out, '\r', '\n')
		default:
			out = append(out, b)
		}
	}
	if _, err := c.conn.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
