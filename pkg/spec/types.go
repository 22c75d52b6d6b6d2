// Package spec defines the trawl run specification: the devices to reach
// and the ordered command sequence to send, parsed from a YAML spec file.
package spec

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DeviceType selects the transport used to reach a device.
type DeviceType string

const (
	DeviceTypeCiscoXR       DeviceType = "cisco_xr"
	DeviceTypeCiscoXRTelnet DeviceType = "cisco_xr_telnet"
)

// Valid reports whether t is a recognized device type.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeCiscoXR, DeviceTypeCiscoXRTelnet:
		return true
	}
	return false
}

// Telnet reports whether t uses the telnet transport.
func (t DeviceType) Telnet() bool {
	return t == DeviceTypeCiscoXRTelnet
}

// Device describes how to reach one device. Name is the key under which
// the device was declared in the spec's devices mapping.
type Device struct {
	Name       string     `yaml:"-"`
	Address    string     `yaml:"address"`
	Port       int        `yaml:"port,omitempty"`
	DeviceType DeviceType `yaml:"device_type,omitempty"`
}

// DialAddr returns the host:port to connect to, applying the transport's
// default port (22 for SSH, 23 for telnet) when none is declared.
func (d *Device) DialAddr() string {
	port := d.Port
	if port == 0 {
		if d.DeviceType.Telnet() {
			port = 23
		} else {
			port = 22
		}
	}
	return net.JoinHostPort(d.Address, strconv.Itoa(port))
}

// Command is one entry in the ordered command sequence.
type Command struct {
	// Send is the command text sent to the device.
	Send string
	// Find is an optional regular expression searched against the
	// command's captured output. It is compiled when the command runs,
	// not at load time.
	Find string
	// Prompt overrides the session's prompt detection for this command.
	Prompt string
	// Timeout overrides the session's read timeout for this command.
	Timeout time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler. The timeout field is a
// duration string in the spec file, which yaml cannot decode into a
// time.Duration on its own.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Send    string `yaml:"send"`
		Find    string `yaml:"find"`
		Prompt  string `yaml:"prompt_pattern"`
		Timeout string `yaml:"timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Send, c.Find, c.Prompt = raw.Send, raw.Find, raw.Prompt
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("line %d: timeout %q: %v", node.Line, raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Spec is a parsed run specification.
type Spec struct {
	Devices  DeviceMap  `yaml:"devices"`
	Commands []*Command `yaml:"commands"`
}

// DeviceMap holds the spec's devices keyed by name. Unlike a plain Go map
// it preserves the declaration order of the YAML mapping, which is the
// order results are reported in, and it rejects duplicate names.
type DeviceMap struct {
	devices []*Device
	byName  map[string]*Device
}

// NewDeviceMap builds a DeviceMap from devices in declaration order.
// Every device must have a unique, non-empty name.
func NewDeviceMap(devices ...*Device) (DeviceMap, error) {
	var m DeviceMap
	for _, d := range devices {
		if err := m.add(d); err != nil {
			return DeviceMap{}, err
		}
	}
	return m, nil
}

// add appends a device, rejecting empty and duplicate names.
func (m *DeviceMap) add(d *Device) error {
	if d.Name == "" {
		return fmt.Errorf("device name must not be empty")
	}
	if m.byName == nil {
		m.byName = make(map[string]*Device)
	}
	if _, exists := m.byName[d.Name]; exists {
		return fmt.Errorf("duplicate device %q", d.Name)
	}
	m.byName[d.Name] = d
	m.devices = append(m.devices, d)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. It walks the mapping node
// directly so that declaration order survives the decode.
func (m *DeviceMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: devices must be a mapping of name to device", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: device name must be a plain string", keyNode.Line)
		}
		var d Device
		if err := valNode.Decode(&d); err != nil {
			return fmt.Errorf("device %q: %w", keyNode.Value, err)
		}
		d.Name = keyNode.Value
		if err := m.add(&d); err != nil {
			return fmt.Errorf("line %d: %w", keyNode.Line, err)
		}
	}
	return nil
}

// All returns the devices in declaration order.
func (m *DeviceMap) All() []*Device {
	return m.devices
}

// Get returns the named device, or nil if it is not declared.
func (m *DeviceMap) Get(name string) *Device {
	return m.byName[name]
}

// Len returns the number of declared devices.
func (m *DeviceMap) Len() int {
	return len(m.devices)
}
