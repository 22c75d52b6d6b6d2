// Package trawl is the run engine. It fans out one command runner per
// device, isolates per-device failures, applies search patterns to
// captured output and assembles a deterministic run-wide result. The
// engine performs I/O only through the injected session dialer, so a
// preview run and a live run execute the same code path.
package trawl

import (
	"fmt"
	"time"
)

// DeviceStatus is the terminal state of one device's command sequence.
type DeviceStatus string

const (
	StatusOK     DeviceStatus = "ok"
	StatusFailed DeviceStatus = "failed"
)

// MatchOutcome is the result of applying one search pattern to one
// command's output.
type MatchOutcome struct {
	// Pattern is the search pattern as written in the spec.
	Pattern string

	// HitCount is the number of non-overlapping matches.
	HitCount int

	// FirstMatch is the text of the first match, empty when HitCount is
	// zero. For patterns with capture groups it holds the first match's
	// groups joined with "| ".
	FirstMatch string
}

// String renders the outcome the way both the console and the transcript
// present it.
func (o *MatchOutcome) String() string {
	if o.HitCount == 0 {
		return fmt.Sprintf("Pattern '%s' not found", o.Pattern)
	}
	return fmt.Sprintf("Pattern '%s' found: %d hits, first: %s", o.Pattern, o.HitCount, o.FirstMatch)
}

// CommandResult records one completed command on one device.
type CommandResult struct {
	// Command is the text that was sent.
	Command string

	// Output is the captured output.
	Output string

	// Match is the search outcome, nil when the command has no find
	// pattern or the pattern failed to compile.
	Match *MatchOutcome
}

// DeviceResult records one device's pass through the command list.
type DeviceResult struct {
	// Device is the declared device name.
	Device string

	// Results holds one entry per completed command, in send order. A
	// device that fails mid-sequence keeps the results captured so far.
	Results []CommandResult

	// Status is StatusOK when every command completed.
	Status DeviceStatus

	// Err is the failure reason when Status is StatusFailed.
	Err error
}

// Failed reports whether the device ended in failure.
func (r *DeviceResult) Failed() bool {
	return r.Status == StatusFailed
}

// Matched reports whether any command's pattern hit at least once.
func (r *DeviceResult) Matched() bool {
	for i := range r.Results {
		if m := r.Results[i].Match; m != nil && m.HitCount > 0 {
			return true
		}
	}
	return false
}

// RunResult is the complete outcome of one run.
type RunResult struct {
	// ID uniquely identifies the run in logs.
	ID string

	// Started and Duration bound the run wall-clock time.
	Started  time.Time
	Duration time.Duration

	// Devices holds one result per device, in spec declaration order.
	Devices []DeviceResult

	// Matched lists the names of devices with at least one pattern hit,
	// sorted.
	Matched []string
}
