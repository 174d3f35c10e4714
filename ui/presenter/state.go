package presenter

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
	"github.com/soocke/pixel-cam-go/ui/model"
)

// Commands is the part of capture.Handle the presenter drives.
type Commands interface {
	ID() string
	StartStream()
	StopStream()
	QueryFormats()
	QueryControls()
	GetFormat()
	SetFormat(device.Format)
	SetControl(capture.ControlDescriptor)
	Close()
}

// EventSource is the part of capture.Subscription the loop drains.
type EventSource interface {
	Events() <-chan capture.Event
	Stats() capture.Stats
	Done() <-chan struct{}
	Close()
}

// Dirty flags tell the loop which view parts to refresh.
type Dirty uint8

const (
	DirtyDevices Dirty = 1 << iota
	DirtyFormats
	DirtyControls
	DirtyStream
	DirtyFrame
	DirtyLog
)

const dirtyAll = DirtyDevices | DirtyFormats | DirtyControls | DirtyStream | DirtyFrame | DirtyLog

// State is everything Update reads and writes. It lives on the Tk goroutine.
type State struct {
	Conn    *model.ConnectionModel
	Log     *model.LogModel
	Devices *model.DeviceListModel
	Logger  *slog.Logger

	AutoStart bool
	// Discover lists devices for MsgEnumDevices.
	Discover func(ctx context.Context) ([]device.Info, error)
	// Connect starts a connection to uri.
	Connect func(uri string) EventSource
	// Adopt turns the handle of a Connected event into Commands.
	Adopt func(*capture.Handle) Commands
	// Recycle receives frames the model no longer holds.
	Recycle func(*image.RGBA)
	Now     func() time.Time

	Handle Commands
	Sub    EventSource
	dirty  Dirty
}

// NewState wires defaults around the given models.
func NewState(conn *model.ConnectionModel, log *model.LogModel, devices *model.DeviceListModel, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &State{
		Conn:    conn,
		Log:     log,
		Devices: devices,
		Logger:  logger,
		Adopt:   func(h *capture.Handle) Commands { return h },
		Recycle: capture.RecycleFrame,
		Now:     time.Now,
		dirty:   dirtyAll,
	}
}

func (s *State) mark(d Dirty) { s.dirty |= d }

// TakeDirty returns and clears the pending refresh flags.
func (s *State) TakeDirty() Dirty {
	d := s.dirty
	s.dirty = 0
	return d
}

func (s *State) recycle(img *image.RGBA) {
	if img != nil && s.Recycle != nil {
		s.Recycle(img)
	}
}

// disconnect closes the current connection, if any, and resets the model.
func (s *State) disconnect() {
	if s.Handle != nil {
		s.Handle.Close()
		s.Handle = nil
	}
	if s.Sub != nil {
		s.Sub.Close()
		s.Sub = nil
	}
	s.recycle(s.Conn.Reset())
	s.mark(DirtyFormats | DirtyControls | DirtyStream | DirtyFrame)
}

// Shutdown closes the connection and waits up to timeout for the worker to
// release the device.
func (s *State) Shutdown(timeout time.Duration) {
	if s == nil {
		return
	}
	sub := s.Sub
	if s.Handle != nil {
		s.Handle.Close()
		s.Handle = nil
	}
	if sub == nil {
		return
	}
	select {
	case <-sub.Done():
	case <-time.After(timeout):
		s.Logger.Warn("shutdown: worker did not finish", "timeout", timeout)
	}
	sub.Close()
	s.Sub = nil
	s.recycle(s.Conn.Reset())
}

func newLog(level model.LogLevel, format string, args ...any) Msg {
	return MsgLog{Level: level, Text: fmt.Sprintf(format, args...)}
}
