package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// Subscription is the event side of a connection. The first event is
// Connected or a terminal Error; the channel closes after Disconnected or
// that Error.
type Subscription struct {
	id     string
	events *queue[Event]
	state  *atomic.Int32
	stats  *workerStats
	cancel context.CancelFunc
	done   chan struct{}
}

// Connect starts a worker that opens uri with opener and owns the device for
// the rest of its life. Cancelling ctx is treated like closing the handle.
func Connect(ctx context.Context, logger *slog.Logger, opener device.Opener, uri string) *Subscription {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	w := &worker{
		uri:    uri,
		opener: opener,
		logger: logger.With("conn", id, "uri", uri),
		cmds:   newQueue[Command](),
		events: newQueue[Event](),
		stats:  &workerStats{started: time.Now()},
	}
	w.handle = newHandle(id, w.cmds, w.logger)
	sub := &Subscription{
		id:     id,
		events: w.events,
		state:  &w.state,
		stats:  w.stats,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(sub.done)
		w.run(ctx)
	}()
	return sub
}

// ID matches Handle.ID of the same connection.
func (s *Subscription) ID() string { return s.id }

// Events delivers events in the order the worker produced them.
func (s *Subscription) Events() <-chan Event { return s.events.recv() }

// State is the worker's current state.
func (s *Subscription) State() State { return State(s.state.Load()) }

// Stats is a snapshot of the worker counters.
func (s *Subscription) Stats() Stats { return s.stats.snapshot() }

// Done is closed once the worker released the device and exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close cancels the worker and discards undelivered events. Use it when the
// consumer goes away; Handle.Close is the orderly shutdown.
func (s *Subscription) Close() {
	s.cancel()
	s.events.abandon()
}

// worker owns the device and frame source. Neither escapes this struct.
type worker struct {
	uri    string
	opener device.Opener
	logger *slog.Logger
	cmds   *queue[Command]
	events *queue[Event]
	handle *Handle
	state  atomic.Int32
	stats  *workerStats

	dev device.Device
	src device.FrameSource
	seq uint64
}

func (w *worker) current() State   { return State(w.state.Load()) }
func (w *worker) setState(s State) { w.state.Store(int32(s)) }

func (w *worker) emit(ev Event) {
	if err := w.events.push(ev); err != nil {
		w.logger.Debug("capture.emit dropped", "event", fmt.Sprintf("%T", ev), "error", err)
	}
}

func (w *worker) run(ctx context.Context) {
	defer w.events.close()
	defer w.release()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("capture worker panic", "error", r, "stack", string(debug.Stack()))
			w.emit(Error{Err: fmt.Errorf("capture worker panic: %v", r)})
		}
	}()

	w.setState(StateOpening)
	if err := w.open(ctx); err != nil {
		w.logger.Error("capture.open failed", "error", err)
		w.emit(Error{Err: err})
		return
	}
	w.logger.Info("capture.connected")
	w.emit(Connected{Handle: w.handle})
	w.setState(StateIdle)

	statsTicker := time.NewTicker(statsLogInterval)
	defer statsTicker.Stop()
	for {
		var next State
		switch w.current() {
		case StateIdle:
			next = w.stepIdle(ctx)
		case StateStreaming:
			next = w.stepStreaming(ctx)
		default:
			return
		}
		if prev := w.current(); prev != next {
			w.logger.Debug("capture.transition", "from", prev.String(), "to", next.String())
		}
		w.setState(next)
		if next == StateStreaming {
			select {
			case <-statsTicker.C:
				logStats(w.logger, w.stats.snapshot())
			default:
			}
		}
	}
}

func (w *worker) open(ctx context.Context) error {
	dev, err := w.opener.Open(ctx, w.uri)
	if err != nil {
		return err
	}
	w.dev = dev
	f, err := negotiate(dev)
	if err != nil {
		return err
	}
	w.logger.Debug("capture.negotiated", "format", f.Format.String(), "layout", string(f.Layout))
	return nil
}

// release runs on every exit path. Abandoning the command queue stops its
// pump even when no Handle was ever handed out.
func (w *worker) release() {
	w.cmds.abandon()
	w.closeSource()
	if w.dev != nil {
		if err := w.dev.Close(); err != nil {
			w.logger.Warn("capture.device close", "error", err)
		}
		w.dev = nil
	}
	w.setState(StateFinished)
	w.logger.Info("capture.finished")
}

func (w *worker) closeSource() {
	if w.src == nil {
		return
	}
	if err := w.src.Close(); err != nil {
		w.logger.Debug("capture.source close", "error", err)
	}
	w.src = nil
}

func (w *worker) disconnect() State {
	w.closeSource()
	w.emit(Disconnected{})
	return StateFinished
}

func (w *worker) stepIdle(ctx context.Context) State {
	select {
	case <-ctx.Done():
		return w.disconnect()
	case cmd, ok := <-w.cmds.recv():
		if !ok {
			return w.disconnect()
		}
		return w.idleCommand(cmd)
	}
}

func (w *worker) idleCommand(cmd Command) State {
	w.stats.commands.Add(1)
	switch cmd.(type) {
	case StartStream:
		if err := w.openSource(); err != nil {
			w.emit(CommandResult{Kind: CmdStartStream, Err: err})
			return StateIdle
		}
		w.emit(CommandResult{Kind: CmdStartStream})
		return StateStreaming
	case StopStream:
		w.emit(CommandResult{Kind: CmdStopStream})
		return StateIdle
	}
	w.dispatch(cmd)
	return StateIdle
}

// stepStreaming drains at most one command and then pulls one frame, so
// neither side starves the other.
func (w *worker) stepStreaming(ctx context.Context) State {
	select {
	case <-ctx.Done():
		return w.disconnect()
	case cmd, ok := <-w.cmds.recv():
		if !ok {
			return w.disconnect()
		}
		if next := w.streamingCommand(cmd); next != StateStreaming {
			return next
		}
	default:
	}
	return w.pullFrame()
}

func (w *worker) streamingCommand(cmd Command) State {
	w.stats.commands.Add(1)
	switch c := cmd.(type) {
	case StopStream:
		w.closeSource()
		w.emit(CommandResult{Kind: CmdStopStream})
		return StateIdle
	case StartStream:
		w.emit(Error{Err: fmt.Errorf("%w: start_stream while streaming", ErrInvalidState)})
		return StateStreaming
	case SetFormat:
		return w.reformat(c)
	}
	w.dispatch(cmd)
	return StateStreaming
}

// reformat closes the running source before the format changes and reopens
// it afterwards.
func (w *worker) reformat(c SetFormat) State {
	w.closeSource()
	payload, err := execute(w.dev, c)
	if err != nil {
		w.emit(CommandResult{Kind: CmdSetFormat, Err: err})
		return StateIdle
	}
	if err := w.openSource(); err != nil {
		w.emit(CommandResult{Kind: CmdSetFormat, Err: fmt.Errorf("%w: %w", ErrStreamReopen, err)})
		return StateIdle
	}
	w.emit(CommandResult{Kind: CmdSetFormat, Payload: payload})
	return StateStreaming
}

func (w *worker) openSource() error {
	src, err := w.dev.Stream()
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	w.src = src
	return nil
}

func (w *worker) dispatch(cmd Command) {
	payload, err := execute(w.dev, cmd)
	if err != nil {
		w.logger.Debug("capture.command failed", "cmd", cmd.Kind().String(), "error", err)
	}
	w.emit(CommandResult{Kind: cmd.Kind(), Payload: payload, Err: err})
}

func (w *worker) pullFrame() State {
	start := time.Now()
	frame, err := w.src.Next()
	var img *image.RGBA
	if err == nil {
		img, err = decodeFrame(frame)
	}
	if err != nil {
		w.stats.frameErrors.Add(1)
		w.closeSource()
		w.logger.Warn("capture.stream failed", "error", err)
		w.emit(Error{Err: fmt.Errorf("stream: %w", err)})
		return StateIdle
	}
	now := time.Now()
	w.seq++
	w.stats.frame(w.seq, len(frame.Pix), now.Sub(start), now)
	w.emit(FrameReady{Image: img, Sequence: w.seq, CapturedAt: now})
	return StateStreaming
}
