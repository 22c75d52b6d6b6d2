package session

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classifying session failures with errors.Is.
var (
	// ErrConnect indicates the transport to the device could not be
	// established.
	ErrConnect = errors.New("connect failed")

	// ErrAuth indicates the device rejected the supplied credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrSession indicates an established session broke mid-command.
	ErrSession = errors.New("session failed")
)

// ConnectError reports a failure to establish a session.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return ErrConnect
}

// AuthError reports rejected credentials.
type AuthError struct {
	Addr string
	User string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s@%s", e.User, e.Addr)
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// SessionError reports a failure on an established session.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return ErrSession
}

// classifyDialError distinguishes rejected credentials from transport
// failures in an SSH dial error. The ssh package reports both through a
// single handshake error, so authentication failures are recognized by
// message.
func classifyDialError(addr, user string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") {
		return &AuthError{Addr: addr, User: user}
	}
	return &ConnectError{Addr: addr, Err: err}
}
