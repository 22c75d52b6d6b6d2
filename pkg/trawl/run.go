package trawl

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trawl-tools/trawl/pkg/session"
	"github.com/trawl-tools/trawl/pkg/spec"
)

// Runner executes a validated spec against a fleet of devices.
type Runner struct {
	// Dialer opens device sessions. Inject the preview dialer for a run
	// with no network I/O.
	Dialer session.Dialer

	// Reporter receives lifecycle events. Nil means a silent run.
	Reporter Reporter

	// Parallel bounds the number of concurrent device sessions. Zero or
	// negative means one session per device with no bound.
	Parallel int
}

// Run executes every command against every device and returns the
// aggregated result. Device failures never surface here; each is
// recorded in its own DeviceResult. Run itself fails only on a caller
// violation.
func (r *Runner) Run(ctx context.Context, s *spec.Spec) (*RunResult, error) {
	if r.Dialer == nil {
		return nil, errors.New("runner has no dialer")
	}
	if s == nil {
		return nil, errors.New("runner invoked without a spec")
	}

	result := &RunResult{ID: uuid.NewString(), Started: time.Now()}
	devices := s.Devices.All()
	r.report(func(rep Reporter) { rep.RunStart(result.ID, len(devices), len(s.Commands)) })

	var sem chan struct{}
	if r.Parallel > 0 {
		sem = make(chan struct{}, r.Parallel)
	}

	// One worker per device, each writing only its own slot so the
	// result order follows declaration order, not completion order.
	results := make([]DeviceResult, len(devices))
	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(i int, dev *spec.Device) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[i] = r.runDevice(ctx, dev, s.Commands)
		}(i, dev)
	}
	wg.Wait()

	result.Devices = results
	result.Matched = matchedNames(results)
	result.Duration = time.Since(result.Started)
	r.report(func(rep Reporter) { rep.RunEnd(result) })
	return result, nil
}

// runDevice walks one device through the command list. Any failure ends
// the device's run, keeping the results captured so far.
func (r *Runner) runDevice(ctx context.Context, dev *spec.Device, commands []*spec.Command) DeviceResult {
	result := DeviceResult{Device: dev.Name, Status: StatusOK}

	// Canceled before the session was attempted.
	if err := ctx.Err(); err != nil {
		result.Status = StatusFailed
		result.Err = err
		r.report(func(rep Reporter) { rep.DeviceDone(&result) })
		return result
	}

	r.report(func(rep Reporter) { rep.SessionStart(dev.Name, dev.Address) })
	sess, err := r.Dialer.Dial(ctx, dev)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		r.report(func(rep Reporter) { rep.DeviceDone(&result) })
		return result
	}
	defer func() {
		sess.Close()
		r.report(func(rep Reporter) { rep.SessionEnd(dev.Name) })
	}()

	for _, cmd := range commands {
		r.report(func(rep Reporter) { rep.CommandStart(dev.Name, cmd) })
		output, err := sess.Send(ctx, cmd)
		if err != nil {
			result.Status = StatusFailed
			result.Err = err
			break
		}

		cr := CommandResult{Command: cmd.Send, Output: output}
		if cmd.Find != "" {
			outcome, err := Match(output, cmd.Find)
			if err != nil {
				// The captured output is kept even though the pattern
				// never ran.
				result.Results = append(result.Results, cr)
				result.Status = StatusFailed
				result.Err = err
				break
			}
			cr.Match = outcome
			r.report(func(rep Reporter) { rep.PatternResult(dev.Name, outcome) })
		}
		result.Results = append(result.Results, cr)
	}

	r.report(func(rep Reporter) { rep.DeviceDone(&result) })
	return result
}

// report dispatches to the reporter when one is configured.
func (r *Runner) report(fn func(Reporter)) {
	if r.Reporter != nil {
		fn(r.Reporter)
	}
}

func matchedNames(results []DeviceResult) []string {
	var names []string
	for i := range results {
		if results[i].Matched() {
			names = append(names, results[i].Device)
		}
	}
	sort.Strings(names)
	return names
}
