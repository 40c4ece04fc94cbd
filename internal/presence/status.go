// Package presence reads the GNOME session presence status.
package presence

import "fmt"

// Status is the org.gnome.SessionManager.Presence status value.
type Status uint32

const (
	Available Status = 0
	Invisible Status = 1
	Busy      Status = 2
	Idle      Status = 3
)

// IsActive reports whether someone is using the computer. Only Idle is
// inactive.
func (s Status) IsActive() bool {
	return s != Idle
}

func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case Invisible:
		return "invisible"
	case Busy:
		return "busy"
	case Idle:
		return "idle"
	default:
		return fmt.Sprintf("status(%d)", uint32(s))
	}
}

// UnknownStatusError is returned for values outside the documented range.
type UnknownStatusError struct {
	Value uint32
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown presence status: %d", e.Value)
}

// Parse converts a raw DBus value into a Status.
func Parse(v uint32) (Status, error) {
	if v > uint32(Idle) {
		return 0, &UnknownStatusError{Value: v}
	}
	return Status(v), nil
}

func decode(v interface{}) (Status, error) {
	n, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected presence status type %T", v)
	}
	return Parse(n)
}
