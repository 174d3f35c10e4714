package presenter

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
	"github.com/soocke/pixel-cam-go/ui/model"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeCommands struct {
	calls    []string
	formats  []device.Format
	controls []capture.ControlDescriptor
	closed   int
}

func (f *fakeCommands) ID() string     { return "fake" }
func (f *fakeCommands) StartStream()   { f.calls = append(f.calls, "start_stream") }
func (f *fakeCommands) StopStream()    { f.calls = append(f.calls, "stop_stream") }
func (f *fakeCommands) QueryFormats()  { f.calls = append(f.calls, "query_formats") }
func (f *fakeCommands) QueryControls() { f.calls = append(f.calls, "query_controls") }
func (f *fakeCommands) GetFormat()     { f.calls = append(f.calls, "get_format") }
func (f *fakeCommands) Close()         { f.closed++ }

func (f *fakeCommands) SetFormat(fm device.Format) {
	f.calls = append(f.calls, "set_format")
	f.formats = append(f.formats, fm)
}

func (f *fakeCommands) SetControl(c capture.ControlDescriptor) {
	f.calls = append(f.calls, "set_control")
	f.controls = append(f.controls, c)
}

type fakeSub struct {
	events chan capture.Event
	done   chan struct{}
	stats  capture.Stats
	closed int
}

func newFakeSub() *fakeSub {
	return &fakeSub{events: make(chan capture.Event, 16), done: make(chan struct{})}
}

func (s *fakeSub) Events() <-chan capture.Event { return s.events }
func (s *fakeSub) Stats() capture.Stats         { return s.stats }
func (s *fakeSub) Done() <-chan struct{}        { return s.done }
func (s *fakeSub) Close()                       { s.closed++ }

type fakeView struct {
	devices   []string
	devSel    int
	formats   []string
	fmtSel    int
	controls  []capture.ControlDescriptor
	connected bool
	streaming bool
	preview   *image.RGBA
	log       []model.LogEntry
	status    string
	renders   int
}

func (v *fakeView) SetDevices(labels []string, sel int) {
	v.devices, v.devSel = labels, sel
	v.renders++
}

func (v *fakeView) SetFormats(labels []string, sel int) {
	v.formats, v.fmtSel = labels, sel
	v.renders++
}

func (v *fakeView) SetControls(c []capture.ControlDescriptor) {
	v.controls = c
	v.renders++
}

func (v *fakeView) SetStreaming(connected, streaming bool) {
	v.connected, v.streaming = connected, streaming
	v.renders++
}

func (v *fakeView) SetPreview(img *image.RGBA) {
	v.preview = img
	v.renders++
}

func (v *fakeView) SetLog(entries []model.LogEntry) {
	v.log = entries
	v.renders++
}

func (v *fakeView) SetStatus(text string) { v.status = text }

// harness wires a State to fakes. Connect hands out subs in order.
type harness struct {
	state    *State
	cmds     *fakeCommands
	subs     []*fakeSub
	devices  []device.Info
	recycled []*image.RGBA
	now      time.Time
}

func newHarness() *harness {
	h := &harness{
		cmds:    &fakeCommands{},
		devices: []device.Info{{URI: "/dev/video0", Name: "Camera 0"}, {URI: "screen:0", Name: "Screen 0"}},
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s := NewState(&model.ConnectionModel{}, model.NewLogModel(50, model.LogVerbose), &model.DeviceListModel{}, discardLogger)
	s.Discover = func(context.Context) ([]device.Info, error) { return h.devices, nil }
	s.Connect = func(string) EventSource {
		sub := newFakeSub()
		h.subs = append(h.subs, sub)
		return sub
	}
	s.Adopt = func(*capture.Handle) Commands { return h.cmds }
	s.Recycle = func(img *image.RGBA) { h.recycled = append(h.recycled, img) }
	s.Now = func() time.Time { return h.now }
	h.state = s
	return h
}

// run dispatches msgs and everything they cause.
func (h *harness) run(msgs ...Msg) {
	NewDispatcher(h.state).Dispatch(msgs...)
}

func (h *harness) event(ev capture.Event) {
	h.run(MsgConnectionEvent{Event: ev})
}

// connected runs discovery and the Connected event.
func (h *harness) connected() {
	h.run(MsgEnumDevices{})
	h.event(capture.Connected{})
	h.cmds.calls = nil
}

func (h *harness) lastLog() model.LogEntry {
	v := h.state.Log.Visible()
	if len(v) == 0 {
		return model.LogEntry{}
	}
	return v[len(v)-1]
}
