package capture

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/soocke/pixel-cam-go/domain/device"
)

func TestWorker_IdleCommandsAnsweredInOrder(t *testing.T) {
	dev := newFakeDevice()
	dev.controls = []device.ControlInfo{{ID: 7, Name: "Gain", Repr: device.IntegerRepr(0, 10, 1, 5)}}
	dev.values[7] = device.IntValue(5)
	sub, h := connect(t, dev)
	defer sub.Close()

	h.QueryFormats()
	h.QueryControls()
	h.GetFormat()
	h.SetFormat(device.Format{Width: 1280, Height: 720})
	h.SetControl(ControlDescriptor{ID: 7, Name: "Gain", Repr: device.IntegerRepr(0, 10, 1, 5), Value: device.IntValue(3)})
	h.StopStream()

	want := []CommandKind{CmdQueryFormats, CmdQueryControls, CmdGetFormat, CmdSetFormat, CmdSetControl, CmdStopStream}
	for i, kind := range want {
		r := expectResult(t, nextEvent(t, sub, time.Second), kind)
		if !r.OK() {
			t.Fatalf("result %d kind=%s err=%v", i, kind, r.Err)
		}
	}
	if sub.State() != StateIdle {
		t.Fatalf("expected idle after commands, got %v", sub.State())
	}
}

func TestWorker_StopStreamIdempotentWhileIdle(t *testing.T) {
	sub, h := connect(t, newFakeDevice())
	defer sub.Close()
	h.StopStream()
	h.StopStream()
	for i := 0; i < 2; i++ {
		r := expectResult(t, nextEvent(t, sub, time.Second), CmdStopStream)
		if r.Err != nil {
			t.Fatalf("stop %d err=%v", i, r.Err)
		}
	}
}

func TestWorker_ScenarioStreamThenStop(t *testing.T) {
	dev := newFakeDevice()
	sub, h := connect(t, dev)
	defer sub.Close()

	h.QueryFormats()
	r := expectResult(t, nextEvent(t, sub, time.Second), CmdQueryFormats)
	got := r.Formats()
	if len(got) != 2 || got[0] != (device.Format{Width: 640, Height: 480}) || got[1] != (device.Format{Width: 1280, Height: 720}) {
		t.Fatalf("formats=%v", got)
	}

	h.StartStream()
	if r := expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream); r.Err != nil {
		t.Fatalf("start err=%v", r.Err)
	}
	var last uint64
	for i := 0; i < 5; i++ {
		f, ok := nextEvent(t, sub, time.Second).(FrameReady)
		if !ok {
			t.Fatalf("expected FrameReady #%d", i)
		}
		if f.Sequence <= last || f.Image == nil || f.Image.Bounds().Dx() != 2 {
			t.Fatalf("bad frame seq=%d last=%d img=%v", f.Sequence, last, f.Image)
		}
		last = f.Sequence
		RecycleFrame(f.Image)
	}

	h.StopStream()
	expectResult(t, nextNonFrame(t, sub, time.Second), CmdStopStream)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event after stop: %T", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if _, open, _, _ := dev.snapshot(); open != 0 {
		t.Fatalf("frame source still open after stop: open=%d", open)
	}
}

func TestWorker_OpenFailureEmitsSingleError(t *testing.T) {
	busy := errors.New("device busy")
	opener := device.OpenerFunc(func(context.Context, string) (device.Device, error) { return nil, busy })
	sub := Connect(context.Background(), discardLogger, opener, "fake:0")
	events := drainUntilClosed(t, sub, time.Second)
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %v", len(events), events)
	}
	e, ok := events[0].(Error)
	if !ok || !errors.Is(e.Err, busy) || e.Err.Error() != "device busy" {
		t.Fatalf("expected Error(device busy), got %T %v", events[0], events[0])
	}
	if sub.State() != StateFinished {
		t.Fatalf("state=%v want finished", sub.State())
	}
}

func TestWorker_FailedConnectsReleaseGoroutines(t *testing.T) {
	busy := errors.New("device busy")
	opener := device.OpenerFunc(func(context.Context, string) (device.Device, error) { return nil, busy })
	before := runtime.NumGoroutine()
	const n = 50
	for i := 0; i < n; i++ {
		sub := Connect(context.Background(), discardLogger, opener, "fake:0")
		drainUntilClosed(t, sub, time.Second)
		<-sub.Done()
		sub.Close()
	}
	deadline := time.Now().Add(2 * time.Second)
	after := runtime.NumGoroutine()
	for after > before+5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		after = runtime.NumGoroutine()
	}
	if after > before+5 {
		t.Fatalf("goroutines before=%d after=%d connects=%d", before, after, n)
	}
}

func TestWorker_CommandQueueClosedAfterFinish(t *testing.T) {
	sub, h := connect(t, newFakeDevice())
	sub.Close()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatalf("worker did not finish after Close")
	}
	if err := h.cmds.push(GetFormat{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("push after finish err=%v want ErrClosed", err)
	}
	h.StartStream()
	h.Close()
}

func TestWorker_LayoutMismatchIsFatal(t *testing.T) {
	dev := newFakeDevice()
	dev.forceLayout = device.LayoutYUYV
	sub := Connect(context.Background(), discardLogger, openerFor(dev), "fake:0")
	events := drainUntilClosed(t, sub, time.Second)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	if e, ok := events[0].(Error); !ok || !errors.Is(e.Err, ErrLayoutUnsupported) {
		t.Fatalf("expected layout error, got %v", events[0])
	}
	if closed, _, _, _ := dev.snapshot(); !closed {
		t.Fatalf("device not closed after negotiation failure")
	}
}

func TestWorker_NegotiationFormatErrors(t *testing.T) {
	readErr := errors.New("ioctl read")
	dev := newFakeDevice()
	dev.formatErr = readErr
	sub := Connect(context.Background(), discardLogger, openerFor(dev), "fake:0")
	events := drainUntilClosed(t, sub, time.Second)
	if len(events) != 1 {
		t.Fatalf("events=%v", events)
	}
	if e, ok := events[0].(Error); !ok || !errors.Is(e.Err, readErr) {
		t.Fatalf("expected wrapped read error, got %v", events[0])
	}

	setErr := errors.New("ioctl write")
	dev = newFakeDevice()
	dev.setFormatErr = setErr
	sub = Connect(context.Background(), discardLogger, openerFor(dev), "fake:0")
	events = drainUntilClosed(t, sub, time.Second)
	if e, ok := events[0].(Error); !ok || !errors.Is(e.Err, setErr) {
		t.Fatalf("expected wrapped set error, got %v", events[0])
	}
}

func TestWorker_FrameErrorFallsBackToIdle(t *testing.T) {
	dev := newFakeDevice()
	dev.failFrameAt = 10
	sub, h := connect(t, dev)
	defer sub.Close()

	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	frames := 0
	for {
		ev := nextEvent(t, sub, time.Second)
		if f, ok := ev.(FrameReady); ok {
			frames++
			RecycleFrame(f.Image)
			continue
		}
		if _, ok := ev.(Error); !ok {
			t.Fatalf("expected Error after frames, got %T", ev)
		}
		break
	}
	if frames != 9 {
		t.Fatalf("frames before error=%d want 9", frames)
	}
	waitForState(t, sub, StateIdle, time.Second)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event after stream error: %T", ev)
	case <-time.After(30 * time.Millisecond):
	}

	h.StartStream()
	if r := expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream); r.Err != nil {
		t.Fatalf("restart err=%v", r.Err)
	}
	if _, ok := nextEvent(t, sub, time.Second).(FrameReady); !ok {
		t.Fatalf("frames did not resume")
	}
}

func TestWorker_StartStreamFailureStaysIdle(t *testing.T) {
	dev := newFakeDevice()
	dev.failStreamAt = 1
	sub, h := connect(t, dev)
	defer sub.Close()
	h.StartStream()
	if r := expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream); r.Err == nil {
		t.Fatalf("expected start failure")
	}
	if sub.State() != StateIdle {
		t.Fatalf("state=%v want idle", sub.State())
	}
	h.StartStream()
	if r := expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream); r.Err != nil {
		t.Fatalf("second start err=%v", r.Err)
	}
}

func TestWorker_SetFormatWhileStreamingReopens(t *testing.T) {
	dev := newFakeDevice()
	sub, h := connect(t, dev)
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)

	h.SetFormat(device.Format{Width: 1280, Height: 720})
	r := expectResult(t, nextNonFrame(t, sub, time.Second), CmdSetFormat)
	if r.Err != nil {
		t.Fatalf("set format err=%v", r.Err)
	}
	if f, ok := r.Format(); !ok || f != (device.Format{Width: 1280, Height: 720}) {
		t.Fatalf("set format payload=%v", r.Payload)
	}
	if _, ok := nextEvent(t, sub, time.Second).(FrameReady); !ok {
		t.Fatalf("stream did not continue after reformat")
	}
	_, open, maxOpen, streams := dev.snapshot()
	if open != 1 || maxOpen != 1 || streams != 2 {
		t.Fatalf("sources open=%d max=%d streams=%d", open, maxOpen, streams)
	}
	if sub.State() != StateStreaming {
		t.Fatalf("state=%v want streaming", sub.State())
	}
}

func TestWorker_SetFormatReopenFailureGoesIdle(t *testing.T) {
	dev := newFakeDevice()
	dev.failStreamAt = 2
	sub, h := connect(t, dev)
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	h.SetFormat(device.Format{Width: 1280, Height: 720})
	r := expectResult(t, nextNonFrame(t, sub, time.Second), CmdSetFormat)
	if !errors.Is(r.Err, ErrStreamReopen) {
		t.Fatalf("expected reopen error, got %v", r.Err)
	}
	waitForState(t, sub, StateIdle, time.Second)
}

func TestWorker_SetFormatErrorWhileStreamingGoesIdle(t *testing.T) {
	dev := newFakeDevice()
	sub, h := connect(t, dev)
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)

	rejected := errors.New("resolution not supported")
	dev.mu.Lock()
	dev.setFormatErr = rejected
	dev.mu.Unlock()
	h.SetFormat(device.Format{Width: 1280, Height: 720})
	r := expectResult(t, nextNonFrame(t, sub, time.Second), CmdSetFormat)
	if !errors.Is(r.Err, rejected) || errors.Is(r.Err, ErrStreamReopen) {
		t.Fatalf("expected format error without reopen, got %v", r.Err)
	}
	waitForState(t, sub, StateIdle, time.Second)

	h.GetFormat()
	ev := nextEvent(t, sub, time.Second)
	if _, ok := ev.(FrameReady); ok {
		t.Fatalf("frame delivered after failed set format")
	}
	expectResult(t, ev, CmdGetFormat)
	if _, open, maxOpen, _ := dev.snapshot(); open != 0 || maxOpen != 1 {
		t.Fatalf("sources open=%d max=%d", open, maxOpen)
	}
}

func TestWorker_StartWhileStreamingIsInvalid(t *testing.T) {
	sub, h := connect(t, newFakeDevice())
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	h.StartStream()
	ev := nextNonFrame(t, sub, time.Second)
	if e, ok := ev.(Error); !ok || !errors.Is(e.Err, ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %T %v", ev, ev)
	}
	if _, ok := nextEvent(t, sub, time.Second).(FrameReady); !ok {
		t.Fatalf("stream stopped after invalid start")
	}
}

func TestWorker_OneCommandBetweenFrames(t *testing.T) {
	sub, h := connect(t, newFakeDevice())
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	if _, ok := nextEvent(t, sub, time.Second).(FrameReady); !ok {
		t.Fatalf("expected first frame")
	}
	const n = 8
	for i := 0; i < n; i++ {
		h.GetFormat()
	}
	results, sinceFrame := 0, 0
	for results < n {
		switch ev := nextEvent(t, sub, time.Second).(type) {
		case FrameReady:
			sinceFrame = 0
			RecycleFrame(ev.Image)
		case CommandResult:
			results++
			sinceFrame++
			if sinceFrame > 1 {
				t.Fatalf("two commands drained without a frame in between (result %d)", results)
			}
		default:
			t.Fatalf("unexpected event %T", ev)
		}
	}
}

func TestHandle_CloseStopsThenDisconnects(t *testing.T) {
	dev := newFakeDevice()
	sub, h := connect(t, dev)
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	h.Close()
	h.Close()
	h.QueryFormats() // after close: dropped silently

	var tail []Event
	for _, ev := range drainUntilClosed(t, sub, time.Second) {
		if f, ok := ev.(FrameReady); ok {
			RecycleFrame(f.Image)
			continue
		}
		tail = append(tail, ev)
	}
	if len(tail) != 2 {
		t.Fatalf("expected stop result and disconnect, got %v", tail)
	}
	expectResult(t, tail[0], CmdStopStream)
	if _, ok := tail[1].(Disconnected); !ok {
		t.Fatalf("expected Disconnected last, got %T", tail[1])
	}
	<-sub.Done()
	closed, open, _, _ := dev.snapshot()
	if !closed || open != 0 {
		t.Fatalf("device closed=%v open sources=%d", closed, open)
	}
	if sub.State() != StateFinished {
		t.Fatalf("state=%v want finished", sub.State())
	}
}

func TestWorker_ContextCancelDisconnects(t *testing.T) {
	dev := newFakeDevice()
	ctx, cancel := context.WithCancel(context.Background())
	sub := Connect(ctx, discardLogger, openerFor(dev), "fake:0")
	if _, ok := nextEvent(t, sub, time.Second).(Connected); !ok {
		t.Fatalf("expected Connected")
	}
	cancel()
	events := drainUntilClosed(t, sub, time.Second)
	if len(events) != 1 {
		t.Fatalf("events after cancel=%v", events)
	}
	if _, ok := events[0].(Disconnected); !ok {
		t.Fatalf("expected Disconnected, got %T", events[0])
	}
	if closed, _, _, _ := dev.snapshot(); !closed {
		t.Fatalf("device not released on cancel")
	}
}

func TestWorker_PanicInDeviceBecomesTerminalError(t *testing.T) {
	dev := newFakeDevice()
	dev.panicOn = "query_controls"
	sub, h := connect(t, dev)
	h.QueryControls()
	events := drainUntilClosed(t, sub, time.Second)
	if len(events) != 1 {
		t.Fatalf("events=%v", events)
	}
	if _, ok := events[0].(Error); !ok {
		t.Fatalf("expected Error, got %T", events[0])
	}
	if closed, _, _, _ := dev.snapshot(); !closed {
		t.Fatalf("device not closed after panic")
	}
	h.StartStream() // worker gone, must not block
}

func TestSubscription_StatsCountFrames(t *testing.T) {
	sub, h := connect(t, newFakeDevice())
	defer sub.Close()
	h.StartStream()
	expectResult(t, nextEvent(t, sub, time.Second), CmdStartStream)
	for i := 0; i < 3; i++ {
		if f, ok := nextEvent(t, sub, time.Second).(FrameReady); ok {
			RecycleFrame(f.Image)
		}
	}
	s := sub.Stats()
	if s.Frames < 3 || s.Commands != 1 || s.Bytes < 3*16 {
		t.Fatalf("stats frames=%d commands=%d bytes=%d", s.Frames, s.Commands, s.Bytes)
	}
	if s.Throughput() == "" {
		t.Fatalf("empty throughput")
	}
}
