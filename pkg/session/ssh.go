package session

import (
	"context"

	"golang.org/x/crypto/ssh"

	"github.com/trawl-tools/trawl/pkg/spec"
)

// dialSSH opens an SSH connection, requests an interactive shell and
// waits for the device prompt.
func dialSSH(ctx context.Context, dev *spec.Device, opts Options) (Session, error) {
	addr := dev.DialAddr()
	config := &ssh.ClientConfig{
		User: opts.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(opts.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectDeadline(ctx, opts.ConnectTimeout),
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, classifyDialError(addr, opts.Username, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 24, 511, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	live := &liveSession{
		sh: newShell(stdout, stdin),
		close: func() error {
			sess.Close()
			return client.Close()
		},
		opts: opts,
	}
	if err := live.setup(ctx); err != nil {
		live.Close()
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	return live, nil
}
