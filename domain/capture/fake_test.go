package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/soocke/pixel-cam-go/domain/device"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeDevice is a scriptable device. All fields are guarded by mu because
// tests inspect them while the worker goroutine drives the device.
type fakeDevice struct {
	mu sync.Mutex

	format      device.DeviceFormat
	forceLayout device.PixelLayout // reported by SetFormat when non-empty
	formats     []device.FormatInfo
	controls    []device.ControlInfo
	values      map[uint32]device.Value
	controlErr  map[uint32]error

	formatErr    error
	setFormatErr error
	streamErr    error
	failStreamAt int // fail the nth Stream call (1-based)
	failFrameAt  int // first source fails on its nth frame (1-based)
	frameDelay   time.Duration
	panicOn      string

	streams        int
	openSources    int
	maxOpenSources int
	closed         bool
	calls          []string
	setControls    []uint32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		format: device.DeviceFormat{Format: device.Format{Width: 640, Height: 480}, Layout: device.LayoutYUYV},
		formats: []device.FormatInfo{
			{Layout: device.LayoutBGRA32, Resolutions: []device.Format{{Width: 640, Height: 480}, {Width: 1280, Height: 720}}},
			{Layout: device.LayoutMJPEG, Resolutions: []device.Format{{Width: 1920, Height: 1080}}},
		},
		values:     map[uint32]device.Value{},
		controlErr: map[uint32]error{},
		frameDelay: time.Millisecond,
	}
}

func (d *fakeDevice) record(call string) {
	d.calls = append(d.calls, call)
	if d.panicOn == call {
		panic("fake device: " + call)
	}
}

func (d *fakeDevice) Format() (device.DeviceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("format")
	if d.formatErr != nil {
		return device.DeviceFormat{}, d.formatErr
	}
	return d.format, nil
}

func (d *fakeDevice) SetFormat(f device.DeviceFormat) (device.DeviceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("set_format")
	if d.openSources > 0 {
		return device.DeviceFormat{}, errors.New("fake: format change with open source")
	}
	if d.setFormatErr != nil {
		return device.DeviceFormat{}, d.setFormatErr
	}
	d.format = f
	if d.forceLayout != "" {
		d.format.Layout = d.forceLayout
	}
	return d.format, nil
}

func (d *fakeDevice) QueryFormats() ([]device.FormatInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("query_formats")
	return d.formats, nil
}

func (d *fakeDevice) QueryControls() ([]device.ControlInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("query_controls")
	return d.controls, nil
}

func (d *fakeDevice) Control(id uint32) (device.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("control")
	if err := d.controlErr[id]; err != nil {
		return device.Value{}, err
	}
	return d.values[id], nil
}

func (d *fakeDevice) SetControl(id uint32, v device.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("set_control")
	d.setControls = append(d.setControls, id)
	d.values[id] = v
	return nil
}

func (d *fakeDevice) Stream() (device.FrameSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("stream")
	d.streams++
	if d.streamErr != nil || d.streams == d.failStreamAt {
		if d.streamErr != nil {
			return nil, d.streamErr
		}
		return nil, errors.New("fake: stream unavailable")
	}
	d.openSources++
	if d.openSources > d.maxOpenSources {
		d.maxOpenSources = d.openSources
	}
	failAt := 0
	if d.streams == 1 {
		failAt = d.failFrameAt
	}
	return &fakeSource{dev: d, failAt: failAt, format: d.format.Format, delay: d.frameDelay}, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("close")
	d.closed = true
	return nil
}

func (d *fakeDevice) snapshot() (closed bool, open, maxOpen, streams int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed, d.openSources, d.maxOpenSources, d.streams
}

type fakeSource struct {
	dev    *fakeDevice
	format device.Format
	delay  time.Duration
	failAt int
	n      int
	closed bool
}

func (s *fakeSource) Next() (device.Frame, error) {
	time.Sleep(s.delay)
	s.n++
	if s.failAt > 0 && s.n == s.failAt {
		return device.Frame{}, errors.New("fake: frame lost")
	}
	w, h := 2, 2
	return device.Frame{Width: w, Height: h, Layout: device.LayoutBGRA32, Pix: make([]byte, w*h*4)}, nil
}

func (s *fakeSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.mu.Lock()
	s.dev.openSources--
	s.dev.mu.Unlock()
	return nil
}

func openerFor(dev device.Device) device.Opener {
	return device.OpenerFunc(func(context.Context, string) (device.Device, error) { return dev, nil })
}

// nextEvent waits for the next event or fails the test.
func nextEvent(t *testing.T, sub *Subscription, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("event stream closed")
		}
		return ev
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for event (state=%v)", sub.State())
	}
	return nil
}

// nextNonFrame skips FrameReady events.
func nextNonFrame(t *testing.T, sub *Subscription, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		ev := nextEvent(t, sub, time.Until(deadline))
		if f, ok := ev.(FrameReady); ok {
			RecycleFrame(f.Image)
			continue
		}
		return ev
	}
}

func expectResult(t *testing.T, ev Event, kind CommandKind) CommandResult {
	t.Helper()
	r, ok := ev.(CommandResult)
	if !ok {
		t.Fatalf("expected CommandResult(%s), got %T %v", kind, ev, ev)
	}
	if r.Kind != kind {
		t.Fatalf("expected result kind=%s got=%s", kind, r.Kind)
	}
	return r
}

// connect opens dev and returns the handle from the Connected event.
func connect(t *testing.T, dev device.Device) (*Subscription, *Handle) {
	t.Helper()
	sub := Connect(context.Background(), discardLogger, openerFor(dev), "fake:0")
	ev := nextEvent(t, sub, time.Second)
	c, ok := ev.(Connected)
	if !ok {
		t.Fatalf("expected Connected, got %T %v", ev, ev)
	}
	if c.Handle == nil || c.Handle.ID() != sub.ID() {
		t.Fatalf("connected handle mismatch handle=%v sub=%s", c.Handle, sub.ID())
	}
	return sub, c.Handle
}

// drainUntilClosed collects the remaining events.
func drainUntilClosed(t *testing.T, sub *Subscription, timeout time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("event stream not closed after %v (state=%v)", timeout, sub.State())
		}
	}
}

func waitForState(t *testing.T, sub *Subscription, expected State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if sub.State() == expected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for state %v (got %v)", expected, sub.State())
}
