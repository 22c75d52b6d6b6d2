package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// ============================================================================
// telnetConn filtering
// ============================================================================

func TestTelnetConnRefusesNegotiation(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	tc := newTelnetConn(client)

	gotResp := make(chan []byte, 1)
	go func() {
		defer server.Close()
		server.Write([]byte{
			'a',
			telnetIAC, telnetWill, 1,
			telnetIAC, telnetDo, 24,
			telnetIAC, telnetWont, 3,
			telnetIAC, telnetDont, 5,
			'b',
		})
		resp := make([]byte, 6)
		if _, err := io.ReadFull(server, resp); err != nil {
			gotResp <- nil
			return
		}
		gotResp <- resp
	}()

	buf := make([]byte, 16)
	n, err := tc.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got := string(buf[:n]); got != "ab" {
		t.Errorf("data = %q, want %q", got, "ab")
	}

	want := []byte{telnetIAC, telnetDont, 1, telnetIAC, telnetWont, 24}
	resp := <-gotResp
	if string(resp) != string(want) {
		t.Errorf("negotiation response = %v, want %v", resp, want)
	}
}

func TestTelnetConnUnescapesIAC(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	tc := newTelnetConn(client)

	go func() {
		defer server.Close()
		server.Write([]byte{'x', telnetIAC, telnetIAC, 'y'})
	}()

	buf := make([]byte, 8)
	n, err := tc.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []byte{'x', telnetIAC, 'y'}
	if string(buf[:n]) != string(want) {
		t.Errorf("data = %v, want %v", buf[:n], want)
	}
}

func TestTelnetConnSkipsSubnegotiation(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	tc := newTelnetConn(client)

	go func() {
		defer server.Close()
		server.Write([]byte{telnetIAC, telnetSB, 24, 'V', 'T', telnetIAC, telnetSE, 'o', 'k'})
	}()

	buf := make([]byte, 8)
	n, err := tc.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got := string(buf[:n]); got != "ok" {
		t.Errorf("data = %q, want %q", got, "ok")
	}
}

func TestTelnetConnWriteTranslation(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	tc := newTelnetConn(client)

	got := make(chan []byte, 1)
	go func() {
		defer server.Close()
		buf := make([]byte, 6)
		if _, err := io.ReadFull(server, buf); err != nil {
			got <- nil
			return
		}
		got <- buf
	}()

	if _, err := tc.Write([]byte("do\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := tc.Write([]byte{telnetIAC}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := []byte{'d', 'o', '\r', '\n', telnetIAC, telnetIAC}
	if resp := <-got; string(resp) != string(want) {
		t.Errorf("device received %v, want %v", resp, want)
	}
}

// ============================================================================
// login
// ============================================================================

func testOptions() Options {
	return Options{
		Username:       "admin",
		Password:       "secret",
		ConnectTimeout: time.Second,
		CommandTimeout: time.Second,
	}.withDefaults()
}

// serveLogin emulates the device side of a telnet login and sends verdict
// once the password arrives.
func serveLogin(conn net.Conn, verdict string) {
	br := bufio.NewReader(conn)
	io.WriteString(conn, "\r\nUser Access Verification\r\n\r\nUsername: ")
	br.ReadString('\n')
	io.WriteString(conn, "Password: ")
	br.ReadString('\n')
	io.WriteString(conn, verdict)
}

func TestTelnetLoginSucceeds(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go serveLogin(server, "\r\nRP/0/RSP0/CPU0:lab#")

	tc := newTelnetConn(client)
	live := &liveSession{sh: newShell(tc, tc), close: client.Close, opts: testOptions()}
	defer live.Close()

	if err := live.login(context.Background(), "lab:23"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestTelnetLoginRejected(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go serveLogin(server, "\r\n% Authentication failed\r\n\r\nUsername: ")

	tc := newTelnetConn(client)
	live := &liveSession{sh: newShell(tc, tc), close: client.Close, opts: testOptions()}
	defer live.Close()

	err := live.login(context.Background(), "lab:23")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("login error = %v, want ErrAuth", err)
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("login error %T is not *AuthError", err)
	}
	if authErr.User != "admin" || authErr.Addr != "lab:23" {
		t.Errorf("AuthError = %+v, want user admin at lab:23", authErr)
	}
}

func TestTelnetLoginNoPrompt(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go func() {
		io.WriteString(server, "garbage with no login prompt\r\n")
	}()

	tc := newTelnetConn(client)
	opts := testOptions()
	opts.ConnectTimeout = 50 * time.Millisecond
	live := &liveSession{sh: newShell(tc, tc), close: client.Close, opts: opts}
	defer live.Close()

	err := live.login(context.Background(), "lab:23")
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("login error = %v, want ErrConnect", err)
	}
}
