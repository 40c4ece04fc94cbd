// Package outputs reads display connector state from the DRM sysfs tree.
//
// A connected output is how tv-power tells that the television is actually
// on: when the TV powers down, its HDMI connector reports disconnected.
package outputs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultSysfsRoot is where the kernel mounts sysfs.
const DefaultSysfsRoot = "/sys"

// Status is the connection state of an output.
type Status int

const (
	StatusUnknown Status = iota
	StatusConnected
	StatusDisconnected
)

// ParseStatus maps the contents of a connector's status file.
func ParseStatus(raw string) Status {
	switch strings.TrimSpace(raw) {
	case "connected":
		return StatusConnected
	case "disconnected":
		return StatusDisconnected
	default:
		return StatusUnknown
	}
}

// Output is one display connector.
type Output struct {
	Name   string
	Status Status
	Raw    string // status file contents, trimmed
}

// StatusString returns the human-readable status. Unknown statuses are
// reported verbatim.
func (o Output) StatusString() string {
	switch o.Status {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return o.Raw
	}
}

// Enumerator lists outputs below a sysfs root.
type Enumerator struct {
	root string
}

// NewEnumerator creates an enumerator. An empty root means /sys.
func NewEnumerator(root string) *Enumerator {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Enumerator{root: root}
}

// All returns every output with a status file, sorted by name. Nothing is
// cached; each call reads sysfs again.
func (e *Enumerator) All() ([]Output, error) {
	dir := filepath.Join(e.root, "class", "drm")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var result []Output
	for _, entry := range entries {
		statusPath := filepath.Join(dir, entry.Name(), "status")
		info, err := os.Stat(statusPath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		data, err := os.ReadFile(statusPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", statusPath, err)
		}

		raw := strings.TrimSpace(string(data))
		out := Output{Name: entry.Name(), Status: ParseStatus(raw), Raw: raw}
		if out.Status == StatusUnknown {
			log.Warn().Str("output", out.Name).Str("status", raw).Msg("Unknown output status")
		}
		result = append(result, out)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Connected returns only the connected outputs.
func (e *Enumerator) Connected() ([]Output, error) {
	all, err := e.All()
	if err != nil {
		return nil, err
	}
	var connected []Output
	for _, o := range all {
		if o.Status == StatusConnected {
			connected = append(connected, o)
		}
	}
	return connected, nil
}

// Exists reports whether an output with the given name exists.
func (e *Enumerator) Exists(name string) (bool, error) {
	all, err := e.All()
	if err != nil {
		return false, err
	}
	for _, o := range all {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// IsConnected reports whether the named output is connected. Disconnected,
// unknown and missing outputs all report false.
func (e *Enumerator) IsConnected(name string) (bool, error) {
	connected, err := e.Connected()
	if err != nil {
		return false, err
	}
	for _, o := range connected {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Sensor reports whether the TV is on by looking at one output.
type Sensor struct {
	enum *Enumerator
	name string
}

// NewSensor watches the named output.
func NewSensor(enum *Enumerator, name string) *Sensor {
	return &Sensor{enum: enum, name: name}
}

// Output returns the watched output name.
func (s *Sensor) Output() string {
	return s.name
}

// IsOn reports whether the watched output is connected right now. The
// sysfs read is not cancellable, so the context is unused.
func (s *Sensor) IsOn(_ context.Context) (bool, error) {
	return s.enum.IsConnected(s.name)
}
