package presenter

import (
	"context"
	"errors"
	"time"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/ui/model"
)

const discoverTimeout = 3 * time.Second

// Update applies msg to s and returns follow-up messages. It never calls
// itself; the Dispatcher feeds the follow-ups back in order.
func Update(s *State, msg Msg) []Msg {
	switch m := msg.(type) {
	case MsgEnumDevices:
		return enumDevices(s)
	case MsgDeviceSelected:
		return selectDevice(s, m.URI)
	case MsgFormatSelected:
		if s.Handle == nil {
			return []Msg{logWarn("cannot set format %s: not connected", m.Format)}
		}
		s.Handle.SetFormat(m.Format)
		return []Msg{logVerbose("set format %s requested", m.Format)}
	case MsgControlChanged:
		if s.Handle == nil {
			return []Msg{logWarn("cannot set %s: not connected", m.Control.Name)}
		}
		s.Handle.SetControl(m.Control)
		return []Msg{logVerbose("set %s = %s requested", m.Control.Name, m.Control.Value)}
	case MsgToggleStream:
		if s.Handle == nil {
			return []Msg{logWarn("cannot toggle stream: not connected")}
		}
		if s.Conn.Streaming {
			s.Handle.StopStream()
		} else {
			s.Handle.StartStream()
		}
		return nil
	case MsgLog:
		s.Log.Append(m.Level, m.Text, s.Now())
		s.mark(DirtyLog)
		logToSlog(s, m)
		return nil
	case MsgLogFilter:
		s.Log.SetFilter(m.Level)
		s.mark(DirtyLog)
		return nil
	case MsgConnectionEvent:
		return connectionEvent(s, m.Event)
	case MsgConnectionClosed:
		if s.Sub == nil {
			return nil
		}
		wasConnected := s.Conn.Connected
		s.disconnect()
		if wasConnected {
			return []Msg{logWarn("connection closed")}
		}
		return nil
	}
	return nil
}

func enumDevices(s *State) []Msg {
	if s.Discover == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
	defer cancel()
	devices, err := s.Discover(ctx)
	if err != nil {
		return []Msg{logError("device scan failed: %v", err)}
	}
	s.Devices.Set(devices)
	s.mark(DirtyDevices)
	out := []Msg{logVerbose("found %d devices", len(devices))}
	if s.Devices.Selected() == "" && len(devices) > 0 {
		out = append(out, MsgDeviceSelected{URI: devices[0].URI})
	}
	return out
}

func selectDevice(s *State, uri string) []Msg {
	if uri == "" {
		return nil
	}
	if uri == s.Devices.Selected() && s.Sub != nil {
		return nil
	}
	s.disconnect()
	s.Devices.Select(uri)
	s.Conn.URI = uri
	s.mark(DirtyDevices)
	if s.Connect == nil {
		return []Msg{logError("no connector configured")}
	}
	s.Sub = s.Connect(uri)
	return []Msg{logInfo("connecting to %s", uri)}
}

func connectionEvent(s *State, ev capture.Event) []Msg {
	switch e := ev.(type) {
	case capture.Connected:
		s.Handle = s.Adopt(e.Handle)
		s.Conn.Connected = true
		s.mark(DirtyStream)
		s.Handle.QueryFormats()
		s.Handle.QueryControls()
		s.Handle.GetFormat()
		if s.AutoStart {
			s.Handle.StartStream()
		}
		return []Msg{logInfo("connected to %s", s.Conn.URI)}
	case capture.Disconnected:
		uri := s.Conn.URI
		s.disconnect()
		return []Msg{logInfo("disconnected from %s", uri)}
	case capture.Error:
		return connectionError(s, e.Err)
	case capture.CommandResult:
		return commandResult(s, e)
	case capture.FrameReady:
		s.recycle(s.Conn.SetFrame(e.Image))
		s.mark(DirtyFrame)
		return nil
	}
	return nil
}

func connectionError(s *State, err error) []Msg {
	switch {
	case !s.Conn.Connected:
		// Opening failed; the worker is gone.
		uri := s.Conn.URI
		s.disconnect()
		s.Conn.URI = uri
		return []Msg{logError("connect %s: %v", uri, err)}
	case errors.Is(err, capture.ErrInvalidState):
		return []Msg{logWarn("%v", err)}
	default:
		// Frame source failure; the worker fell back to idle.
		s.Conn.Streaming = false
		s.mark(DirtyStream)
		return []Msg{logError("stream: %v", err)}
	}
}

func commandResult(s *State, r capture.CommandResult) []Msg {
	if r.Err != nil {
		switch r.Kind {
		case capture.CmdStartStream, capture.CmdSetFormat:
			// A failed reformat leaves the worker idle.
			s.Conn.Streaming = false
			s.mark(DirtyStream)
		}
		return []Msg{logError("%s failed: %v", r.Kind, r.Err)}
	}
	switch r.Kind {
	case capture.CmdStartStream:
		s.Conn.Streaming = true
		s.mark(DirtyStream)
		return []Msg{logInfo("stream started")}
	case capture.CmdStopStream:
		wasStreaming := s.Conn.Streaming
		s.Conn.Streaming = false
		s.mark(DirtyStream)
		if wasStreaming {
			return []Msg{logInfo("stream stopped")}
		}
	case capture.CmdQueryFormats:
		s.Conn.Formats = r.Formats()
		s.mark(DirtyFormats)
		return []Msg{logVerbose("%d formats available", len(s.Conn.Formats))}
	case capture.CmdQueryControls:
		s.Conn.Controls = r.Controls()
		s.mark(DirtyControls)
		return []Msg{logVerbose("%d controls available", len(s.Conn.Controls))}
	case capture.CmdGetFormat, capture.CmdSetFormat:
		if f, ok := r.Format(); ok {
			s.Conn.Current = f
			s.mark(DirtyFormats)
			if r.Kind == capture.CmdSetFormat {
				return []Msg{logInfo("format set to %s", f)}
			}
		}
	case capture.CmdSetControl:
		if c, ok := r.Control(); ok && s.Conn.UpdateControl(c) {
			s.mark(DirtyControls)
			return []Msg{logVerbose("%s = %s", c.Name, c.Value)}
		}
	}
	return nil
}

func logToSlog(s *State, m MsgLog) {
	switch m.Level {
	case model.LogError:
		s.Logger.Error("ui.log", "text", m.Text)
	case model.LogWarn:
		s.Logger.Warn("ui.log", "text", m.Text)
	case model.LogInfo:
		s.Logger.Info("ui.log", "text", m.Text)
	default:
		s.Logger.Debug("ui.log", "text", m.Text)
	}
}
