package spec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trawl-tools/trawl/pkg/util"
)

// ============================================================================
// DeviceMap Tests
// ============================================================================

func TestNewDeviceMap_Order(t *testing.T) {
	m, err := NewDeviceMap(
		&Device{Name: "zulu", Address: "10.0.0.3"},
		&Device{Name: "alpha", Address: "10.0.0.1"},
		&Device{Name: "mike", Address: "10.0.0.2"},
	)
	if err != nil {
		t.Fatalf("NewDeviceMap error: %v", err)
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	got := m.All()
	want := []string{"zulu", "alpha", "mike"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("All()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestNewDeviceMap_Duplicate(t *testing.T) {
	_, err := NewDeviceMap(
		&Device{Name: "r1", Address: "10.0.0.1"},
		&Device{Name: "r1", Address: "10.0.0.2"},
	)
	if err == nil {
		t.Fatal("expected error for duplicate device name")
	}
	if !strings.Contains(err.Error(), "r1") {
		t.Errorf("error should name the duplicate device: %v", err)
	}
}

func TestNewDeviceMap_EmptyName(t *testing.T) {
	_, err := NewDeviceMap(&Device{Address: "10.0.0.1"})
	if err == nil {
		t.Fatal("expected error for empty device name")
	}
}

func TestDeviceMap_Get(t *testing.T) {
	m, err := NewDeviceMap(&Device{Name: "r1", Address: "10.0.0.1"})
	if err != nil {
		t.Fatalf("NewDeviceMap error: %v", err)
	}
	if d := m.Get("r1"); d == nil || d.Address != "10.0.0.1" {
		t.Errorf("Get(r1) = %+v, want address 10.0.0.1", d)
	}
	if d := m.Get("missing"); d != nil {
		t.Errorf("Get(missing) = %+v, want nil", d)
	}
}

// ============================================================================
// Device Tests
// ============================================================================

func TestDeviceDialAddr(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{"ssh default port", Device{Address: "10.0.0.1", DeviceType: DeviceTypeCiscoXR}, "10.0.0.1:22"},
		{"telnet default port", Device{Address: "10.0.0.1", DeviceType: DeviceTypeCiscoXRTelnet}, "10.0.0.1:23"},
		{"explicit port", Device{Address: "10.0.0.1", Port: 2222, DeviceType: DeviceTypeCiscoXR}, "10.0.0.1:2222"},
		{"no device type defaults to ssh", Device{Address: "core-sw"}, "core-sw:22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.DialAddr(); got != tt.want {
				t.Errorf("DialAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceType(t *testing.T) {
	if !DeviceTypeCiscoXR.Valid() || !DeviceTypeCiscoXRTelnet.Valid() {
		t.Error("known device types should be valid")
	}
	if DeviceType("juniper").Valid() {
		t.Error("unknown device type should not be valid")
	}
	if DeviceTypeCiscoXR.Telnet() {
		t.Error("cisco_xr should not be telnet")
	}
	if !DeviceTypeCiscoXRTelnet.Telnet() {
		t.Error("cisco_xr_telnet should be telnet")
	}
}

// ============================================================================
// Parse Tests
// ============================================================================

func TestParse(t *testing.T) {
	data := `
devices:
  edge-1:
    address: 10.1.0.1
  core-1:
    address: core-1.example.net
    port: 8022
  legacy-1:
    address: 10.1.0.9
    device_type: cisco_xr_telnet
commands:
  - send: show version
  - send: "  show logging  "
    find: '%PKT_INFRA-LINK-3-UPDOWN'
  - send: show processes cpu
    prompt_pattern: 'CPU utilization.*#\s*$'
    timeout: 45s
`
	s, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	// Devices keep declaration order
	devices := s.Devices.All()
	if len(devices) != 3 {
		t.Fatalf("len(devices) = %d, want 3", len(devices))
	}
	wantOrder := []string{"edge-1", "core-1", "legacy-1"}
	for i, name := range wantOrder {
		if devices[i].Name != name {
			t.Errorf("devices[%d].Name = %q, want %q", i, devices[i].Name, name)
		}
	}

	// Default device type applied
	if devices[0].DeviceType != DeviceTypeCiscoXR {
		t.Errorf("devices[0].DeviceType = %q, want %q", devices[0].DeviceType, DeviceTypeCiscoXR)
	}
	if devices[1].Port != 8022 {
		t.Errorf("devices[1].Port = %d, want 8022", devices[1].Port)
	}
	if devices[2].DeviceType != DeviceTypeCiscoXRTelnet {
		t.Errorf("devices[2].DeviceType = %q, want %q", devices[2].DeviceType, DeviceTypeCiscoXRTelnet)
	}

	// Commands keep order, send is trimmed, options decode
	if len(s.Commands) != 3 {
		t.Fatalf("len(commands) = %d, want 3", len(s.Commands))
	}
	if s.Commands[0].Send != "show version" {
		t.Errorf("commands[0].Send = %q", s.Commands[0].Send)
	}
	if s.Commands[1].Send != "show logging" {
		t.Errorf("commands[1].Send = %q, want trimmed text", s.Commands[1].Send)
	}
	if s.Commands[1].Find != "%PKT_INFRA-LINK-3-UPDOWN" {
		t.Errorf("commands[1].Find = %q", s.Commands[1].Find)
	}
	if s.Commands[2].Prompt == "" {
		t.Error("commands[2].Prompt should be set")
	}
	if s.Commands[2].Timeout != 45*time.Second {
		t.Errorf("commands[2].Timeout = %v, want 45s", s.Commands[2].Timeout)
	}
}

func TestParse_EmptyDevicesAndCommands(t *testing.T) {
	s, err := Parse([]byte("devices: {}\ncommands: []\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if s.Devices.Len() != 0 {
		t.Errorf("Devices.Len() = %d, want 0", s.Devices.Len())
	}
	if len(s.Commands) != 0 {
		t.Errorf("len(Commands) = %d, want 0", len(s.Commands))
	}
}

func TestParse_BadFindIsAccepted(t *testing.T) {
	// Search patterns are compiled when the command runs, not at load
	// time, so an unparsable find must not reject the spec.
	data := `
devices:
  r1:
    address: 10.0.0.1
commands:
  - send: show version
    find: "[unclosed"
`
	s, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if s.Commands[0].Find != "[unclosed" {
		t.Errorf("Find = %q, want raw pattern preserved", s.Commands[0].Find)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing devices", "commands: []\n"},
		{"missing commands", "devices: {}\n"},
		{"device missing address", "devices:\n  r1: {}\ncommands: []\n"},
		{"unknown device field", "devices:\n  r1:\n    address: 10.0.0.1\n    bogus: 1\ncommands: []\n"},
		{"unknown top-level field", "devices: {}\ncommands: []\nextra: true\n"},
		{"bad device type", "devices:\n  r1:\n    address: 10.0.0.1\n    device_type: juniper\ncommands: []\n"},
		{"port zero", "devices:\n  r1:\n    address: 10.0.0.1\n    port: 0\ncommands: []\n"},
		{"port too large", "devices:\n  r1:\n    address: 10.0.0.1\n    port: 70000\ncommands: []\n"},
		{"port as string", "devices:\n  r1:\n    address: 10.0.0.1\n    port: \"22\"\ncommands: []\n"},
		{"send too short", "devices: {}\ncommands:\n  - send: x\n"},
		{"command missing send", "devices: {}\ncommands:\n  - find: abc\n"},
		{"null command", "devices: {}\ncommands:\n  - ~\n"},
		{"timeout as int", "devices: {}\ncommands:\n  - send: show version\n    timeout: 30\n"},
		{"devices as list", "devices:\n  - address: 10.0.0.1\ncommands: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "spec validation failed") {
				t.Errorf("expected schema validation error, got: %v", err)
			}
		})
	}
}

func TestParse_SemanticViolations(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			"blank address",
			"devices:\n  r1:\n    address: \"  \"\ncommands: []\n",
			"devices.r1: address is required",
		},
		{
			"send whitespace only",
			"devices: {}\ncommands:\n  - send: \"  a  \"\n",
			"commands[0].send",
		},
		{
			"bad prompt pattern",
			"devices: {}\ncommands:\n  - send: show version\n    prompt_pattern: \"[unclosed\"\n",
			"commands[0].prompt_pattern",
		},
		{
			"negative timeout",
			"devices: {}\ncommands:\n  - send: show version\n    timeout: -5s\n",
			"commands[0].timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, util.ErrValidationFailed) {
				t.Errorf("expected ErrValidationFailed, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParse_DuplicateDevice(t *testing.T) {
	data := `
devices:
  r1:
    address: 10.0.0.1
  r1:
    address: 10.0.0.2
commands: []
`
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected error for duplicate device name")
	}
	if !strings.Contains(err.Error(), "r1") {
		t.Errorf("error should name the duplicate device: %v", err)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := Parse([]byte(""))
	if err == nil {
		t.Fatal("expected error for empty spec")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error = %v, want mention of empty file", err)
	}
}

func TestParse_BadTimeoutString(t *testing.T) {
	data := "devices: {}\ncommands:\n  - send: show version\n    timeout: 30x\n"
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

// ============================================================================
// Load Tests
// ============================================================================

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trawl_spec.yml")
	content := `
devices:
  r1:
    address: 10.0.0.1
commands:
  - send: show version
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Devices.Len() != 1 || len(s.Commands) != 1 {
		t.Errorf("loaded spec has %d devices, %d commands; want 1, 1", s.Devices.Len(), len(s.Commands))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "nope.yml") {
		t.Errorf("error should contain the path: %v", err)
	}
}

func TestLoad_ErrorMentionsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("devices: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "bad.yml") {
		t.Errorf("error should contain the path: %v", err)
	}
}
