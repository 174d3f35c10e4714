package presenter

import (
	"image"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/ui/model"
)

// defaultMaxEvents bounds how many connection events one tick consumes so a
// fast stream cannot starve the Tk event loop.
const defaultMaxEvents = 64

// View is what the loop renders into.
type View interface {
	SetDevices(labels []string, selected int)
	SetFormats(labels []string, selected int)
	SetControls(controls []capture.ControlDescriptor)
	SetStreaming(connected, streaming bool)
	SetPreview(img *image.RGBA)
	SetLog(entries []model.LogEntry)
}

// Loop drains connection events into the dispatcher, refreshes the dirty
// parts of the view and reschedules itself. The zero value is usable
// (methods are nil-safe).
type Loop struct {
	Dispatcher *Dispatcher
	State      *State
	View       View
	Session    *SessionPresenter
	Watcher    *DeviceWatcher
	Schedule   func()
	MaxEvents  int
}

func NewLoop(d *Dispatcher, s *State, view View, sess *SessionPresenter, schedule func()) *Loop {
	return &Loop{Dispatcher: d, State: s, View: view, Session: sess, Schedule: schedule, MaxEvents: defaultMaxEvents}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	if l.State != nil {
		select {
		case <-l.Watcher.Changed():
			l.Dispatcher.Dispatch(MsgEnumDevices{})
		default:
		}
		l.drain()
		if l.Session != nil {
			l.Session.Tick(l.State.Now(), l.stats())
		}
		l.render()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

func (l *Loop) drain() {
	limit := l.MaxEvents
	if limit <= 0 {
		limit = defaultMaxEvents
	}
	for i := 0; i < limit; i++ {
		// Update may replace the subscription; re-read it every round.
		sub := l.State.Sub
		if sub == nil {
			return
		}
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				l.Dispatcher.Dispatch(MsgConnectionClosed{})
				return
			}
			l.Dispatcher.Dispatch(MsgConnectionEvent{Event: ev})
		default:
			return
		}
	}
}

func (l *Loop) stats() func() capture.Stats {
	if sub := l.State.Sub; sub != nil {
		return sub.Stats
	}
	return nil
}

func (l *Loop) render() {
	dirty := l.State.TakeDirty()
	if l.View == nil || dirty == 0 {
		return
	}
	s := l.State
	if dirty&DirtyDevices != 0 {
		l.View.SetDevices(s.Devices.Labels(), s.Devices.Index(s.Devices.Selected()))
	}
	if dirty&DirtyFormats != 0 {
		labels := make([]string, len(s.Conn.Formats))
		for i, f := range s.Conn.Formats {
			labels[i] = f.String()
		}
		l.View.SetFormats(labels, s.Conn.FormatIndex())
	}
	if dirty&DirtyControls != 0 {
		l.View.SetControls(s.Conn.Controls)
	}
	if dirty&DirtyStream != 0 {
		l.View.SetStreaming(s.Conn.Connected, s.Conn.Streaming)
	}
	if dirty&DirtyFrame != 0 {
		l.View.SetPreview(s.Conn.Frame())
	}
	if dirty&DirtyLog != 0 {
		l.View.SetLog(s.Log.Visible())
	}
}
