package spec

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trawl-tools/trawl/pkg/util"
)

// DefaultFile is the spec filename used when none is given.
const DefaultFile = "trawl_spec.yml"

// Load reads a YAML spec file and returns a validated Spec.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", path, err)
	}
	return s, nil
}

// Parse validates raw YAML spec data against the embedded schema, decodes
// it, applies defaults, and runs the semantic checks.
func Parse(data []byte) (*Spec, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing spec: %w", err)
	}

	applyDefaults(&s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyDefaults normalizes command text and fills in the default
// device type.
func applyDefaults(s *Spec) {
	for _, d := range s.Devices.All() {
		if d.DeviceType == "" {
			d.DeviceType = DeviceTypeCiscoXR
		}
	}
	for _, c := range s.Commands {
		if c != nil {
			c.Send = strings.TrimSpace(c.Send)
		}
	}
}

// Validate checks the semantic constraints the schema cannot express.
// find patterns are deliberately not compiled here: a bad search pattern
// surfaces at run time as that one device's failure, not as a rejection
// of the whole spec.
func (s *Spec) Validate() error {
	b := &util.ValidationBuilder{}

	for _, d := range s.Devices.All() {
		if strings.TrimSpace(d.Address) == "" {
			b.AddErrorf("devices.%s: address is required", d.Name)
		}
		if d.Port < 0 || d.Port > 65535 {
			b.AddErrorf("devices.%s: port %d out of range 1-65535", d.Name, d.Port)
		}
		if d.DeviceType != "" && !d.DeviceType.Valid() {
			b.AddErrorf("devices.%s: unknown device_type %q", d.Name, d.DeviceType)
		}
	}

	for i, c := range s.Commands {
		if c == nil {
			b.AddErrorf("commands[%d]: must not be null", i)
			continue
		}
		if len(strings.TrimSpace(c.Send)) < 2 {
			b.AddErrorf("commands[%d].send: must be at least 2 characters", i)
		}
		if c.Prompt != "" {
			if _, err := regexp.Compile(c.Prompt); err != nil {
				b.AddErrorf("commands[%d].prompt_pattern: %v", i, err)
			}
		}
		if c.Timeout < 0 {
			b.AddErrorf("commands[%d].timeout: must be positive", i)
		}
	}

	return b.Build()
}
