// Package report renders a run's captured output as the transcript
// document and persists it to disk.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/trawl-tools/trawl/pkg/trawl"
)

// Render produces the transcript for a run. Devices appear in spec
// declaration order; every completed command contributes a header line,
// the pattern verdict when one was applied, and the raw captured
// output. Commands a device never completed contribute nothing.
func Render(result *trawl.RunResult) string {
	var lines []string
	for i := range result.Devices {
		device := &result.Devices[i]
		for j := range device.Results {
			cr := &device.Results[j]
			lines = append(lines, fmt.Sprintf("### %s - %s ###", device.Device, cr.Command))
			if cr.Match != nil {
				lines = append(lines, "- "+cr.Match.String())
			}
			lines = append(lines, cr.Output, "")
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Save writes the transcript to path, refusing to overwrite an existing
// file.
func Save(path string, result *trawl.RunResult) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	if _, err := f.WriteString(Render(result)); err != nil {
		f.Close()
		return fmt.Errorf("saving transcript %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("saving transcript %s: %w", path, err)
	}
	return nil
}
