package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     uint32
		want    Status
		active  bool
		wantErr bool
	}{
		{raw: 0, want: Available, active: true},
		{raw: 1, want: Invisible, active: true},
		{raw: 2, want: Busy, active: true},
		{raw: 3, want: Idle, active: false},
		{raw: 4, wantErr: true},
		{raw: 1 << 31, wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.raw)
		if tt.wantErr {
			var unknown *UnknownStatusError
			if !errors.As(err, &unknown) {
				t.Errorf("Parse(%d) error = %v, want UnknownStatusError", tt.raw, err)
			} else if unknown.Value != tt.raw {
				t.Errorf("UnknownStatusError.Value = %d, want %d", unknown.Value, tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%d) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%d) = %v, want %v", tt.raw, got, tt.want)
		}
		if got.IsActive() != tt.active {
			t.Errorf("%v.IsActive() = %v, want %v", got, got.IsActive(), tt.active)
		}
	}
}

func TestDecode_WrongType(t *testing.T) {
	if _, err := decode(int32(3)); err == nil {
		t.Fatal("decode(int32) should fail")
	}
}

func statusChanged(body ...interface{}) *dbus.Signal {
	return &dbus.Signal{
		Path: objectPath,
		Name: interfaceName + "." + statusSignal,
		Body: body,
	}
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
		want   []Status
	}{
		{name: "idle", signal: statusChanged(uint32(3)), want: []Status{Idle}},
		{name: "available", signal: statusChanged(uint32(0)), want: []Status{Available}},
		{name: "unknown_value_dropped", signal: statusChanged(uint32(9))},
		{name: "wrong_type_dropped", signal: statusChanged("idle")},
		{name: "empty_body_dropped", signal: statusChanged()},
		{
			name:   "other_member_ignored",
			signal: &dbus.Signal{Path: objectPath, Name: interfaceName + ".Other", Body: []interface{}{uint32(3)}},
		},
		{
			name:   "other_path_ignored",
			signal: &dbus.Signal{Path: "/elsewhere", Name: interfaceName + "." + statusSignal, Body: []interface{}{uint32(3)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Status
			dispatch(tt.signal, func(s Status) { got = append(got, s) })

			if len(got) != len(tt.want) {
				t.Fatalf("delivered %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("delivered[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConnect_Retries(t *testing.T) {
	orig := connectSessionBus
	t.Cleanup(func() { connectSessionBus = orig })

	calls := 0
	connectSessionBus = func() (*dbus.Conn, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("no session bus")
		}
		return nil, nil
	}

	src, err := Connect(context.Background(), Options{Attempts: 5, Backoff: time.Millisecond})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if src == nil {
		t.Fatal("Connect() returned nil source")
	}
	if calls != 3 {
		t.Errorf("dial calls = %d, want 3", calls)
	}
}

func TestConnect_GivesUp(t *testing.T) {
	orig := connectSessionBus
	t.Cleanup(func() { connectSessionBus = orig })

	calls := 0
	dialErr := errors.New("no session bus")
	connectSessionBus = func() (*dbus.Conn, error) {
		calls++
		return nil, dialErr
	}

	_, err := Connect(context.Background(), Options{Attempts: 4, Backoff: time.Millisecond})
	if !errors.Is(err, dialErr) {
		t.Fatalf("Connect() error = %v, want wrapping %v", err, dialErr)
	}
	if calls != 4 {
		t.Errorf("dial calls = %d, want 4", calls)
	}
}

func TestConnect_Cancelled(t *testing.T) {
	orig := connectSessionBus
	t.Cleanup(func() { connectSessionBus = orig })

	connectSessionBus = func() (*dbus.Conn, error) {
		return nil, errors.New("no session bus")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Connect(ctx, Options{Attempts: 10, Backoff: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Connect() error = %v, want context.Canceled", err)
	}
}
