// Package creds resolves the device credentials for a run. Explicit
// flag values win over environment variables, and anything still
// missing is prompted for on the terminal, with the password read
// without echo.
package creds

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Environment variables consulted when the flags are not given.
const (
	EnvUser     = "TRAWL_USER"
	EnvPassword = "TRAWL_PASSWORD"
)

// Credentials is a resolved username and password pair.
type Credentials struct {
	Username string
	Password string
}

// Resolver collects credentials from flags, the environment and the
// terminal.
type Resolver struct {
	// User and Password carry the flag values, empty when the flag was
	// not given.
	User     string
	Password string

	// In and Out are the prompt streams, os.Stdin and os.Stderr by
	// default. Prompts go to Out so captured stdout stays clean.
	In  *os.File
	Out io.Writer

	// readPassword is swapped in tests.
	readPassword func(fd int) ([]byte, error)
}

// Resolve returns complete credentials or an error when prompting is
// needed but no terminal is attached.
func (r *Resolver) Resolve() (Credentials, error) {
	user := firstNonEmpty(r.User, os.Getenv(EnvUser))
	pass := firstNonEmpty(r.Password, os.Getenv(EnvPassword))
	if user != "" && pass != "" {
		return Credentials{Username: user, Password: pass}, nil
	}

	in, out := r.streams()
	if !term.IsTerminal(int(in.Fd())) {
		return Credentials{}, fmt.Errorf(
			"credentials incomplete and no terminal to prompt on; use -u/-p or set %s and %s", EnvUser, EnvPassword)
	}

	var err error
	reader := bufio.NewReader(in)
	if user == "" {
		user, err = prompt("Device username: ", out, func() (string, error) {
			return reader.ReadString('\n')
		})
		if err != nil {
			return Credentials{}, fmt.Errorf("reading username: %w", err)
		}
	}
	if pass == "" {
		readPassword := r.readPassword
		if readPassword == nil {
			readPassword = term.ReadPassword
		}
		pass, err = prompt("Device password: ", out, func() (string, error) {
			b, err := readPassword(int(in.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		})
		if err != nil {
			return Credentials{}, fmt.Errorf("reading password: %w", err)
		}
	}
	return Credentials{Username: user, Password: pass}, nil
}

func (r *Resolver) streams() (*os.File, io.Writer) {
	in := r.In
	if in == nil {
		in = os.Stdin
	}
	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	return in, out
}

// prompt asks until read yields a non-blank value.
func prompt(label string, out io.Writer, read func() (string, error)) (string, error) {
	for {
		fmt.Fprint(out, label)
		value, err := read()
		if err != nil {
			return "", err
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
		fmt.Fprintln(out, "Value cannot be empty. Please try again, or ^C to terminate.")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
