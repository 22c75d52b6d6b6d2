package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Prompt patterns for the supported device CLIs. The default matches the
// exec and config prompts of IOS XR, which end in ">" or "#".
var (
	promptDefault  = regexp.MustCompile(`[>#][ \t]*$`)
	promptUsername = regexp.MustCompile(`(?i)(username|login)[^\r\n]*:[ \t]*$`)
	promptPassword = regexp.MustCompile(`(?i)password[^\r\n]*:[ \t]*$`)

	// loginOutcome matches whatever a device shows right after the
	// password is sent: a CLI prompt on success, or a failure message or
	// a fresh login prompt on rejection.
	loginOutcome = regexp.MustCompile(
		`(?i)% ?(authentication failed|login invalid|access denied|bad passwords?)` +
			`|(username|login)[^\r\n]*:[ \t]*$` +
			`|password[^\r\n]*:[ \t]*$` +
			`|[>#][ \t]*$`)
)

// matchWindow bounds how far back from the end of the buffer expect
// searches for a pattern. Prompts appear at the tail, so rescanning the
// whole capture after every read is wasted work on long outputs.
const matchWindow = 4096

// readChunk carries one transport read from the pump goroutine.
type readChunk struct {
	data []byte
	err  error
}

// shell pairs the byte streams of an interactive CLI with an expect
// loop. A pump goroutine forwards transport reads over a channel so that
// expect can honor timeouts and context cancellation while the
// underlying Read blocks.
type shell struct {
	w      io.Writer
	chunks chan readChunk
	done   chan struct{}
	buf    bytes.Buffer
}

func newShell(r io.Reader, w io.Writer) *shell {
	s := &shell{
		w:      w,
		chunks: make(chan readChunk, 8),
		done:   make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *shell) pump(r io.Reader) {
	defer close(s.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), buf[:n]...)
		}
		select {
		case s.chunks <- readChunk{data: data, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// stop releases the pump goroutine. The transport itself is closed by
// the owning session.
func (s *shell) stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *shell) writeLine(text string) error {
	if _, err := io.WriteString(s.w, text+"\n"); err != nil {
		return &SessionError{Op: "send", Err: err}
	}
	return nil
}

// expect reads until pattern matches near the end of the accumulated
// output. It returns the output before the match and the matched text
// itself; both are consumed from the buffer. Anything after the match
// stays buffered for the next call.
func (s *shell) expect(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) (out, match string, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if out, match, ok := s.takeMatch(pattern); ok {
			return out, match, nil
		}
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return "", "", &SessionError{Op: "read", Err: io.ErrClosedPipe}
			}
			s.buf.Write(chunk.data)
			if chunk.err != nil {
				if out, match, ok := s.takeMatch(pattern); ok {
					return out, match, nil
				}
				return "", "", &SessionError{Op: "read", Err: chunk.err}
			}
		case <-timer.C:
			return "", "", &SessionError{Op: "read", Err: fmt.Errorf("no prompt after %s", timeout)}
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}
}

// takeMatch searches the tail of the buffer for pattern and consumes
// through the end of the match when found.
func (s *shell) takeMatch(pattern *regexp.Regexp) (out, match string, ok bool) {
	all := s.buf.Bytes()
	window := all
	offset := 0
	if len(all) > matchWindow {
		offset = len(all) - matchWindow
		window = all[offset:]
	}
	loc := pattern.FindIndex(window)
	if loc == nil {
		return "", "", false
	}
	start, end := offset+loc[0], offset+loc[1]
	out = string(all[:start])
	match = string(all[start:end])
	rest := append([]byte(nil), all[end:]...)
	s.buf.Reset()
	s.buf.Write(rest)
	return out, match, true
}

// run sends one line and waits for the prompt, returning the cleaned
// command output.
func (s *shell) run(ctx context.Context, text string, prompt *regexp.Regexp, timeout time.Duration) (string, error) {
	if err := s.writeLine(text); err != nil {
		return "", err
	}
	out, _, err := s.expect(ctx, prompt, timeout)
	if err != nil {
		return "", err
	}
	return cleanOutput(out, text), nil
}

// cleanOutput normalizes line endings and strips the echoed command and
// the prompt's line prefix so the capture holds only what the device
// printed in response. The prompt prefix is whatever follows the final
// newline, since the matched prompt terminator was already consumed by
// expect.
func cleanOutput(raw, cmd string) string {
	out := strings.ReplaceAll(raw, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	lines := strings.Split(out, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == strings.TrimSpace(cmd) {
		lines = lines[1:]
	}
	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
