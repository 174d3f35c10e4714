package model

import (
	"image"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
)

// ConnectionModel mirrors what the UI knows about the connected device. It is
// only touched from the Tk goroutine. The zero value is disconnected.
type ConnectionModel struct {
	URI       string
	Connected bool
	Streaming bool
	Formats   []device.Format
	Current   device.Format
	Controls  []capture.ControlDescriptor

	frame  *image.RGBA
	frames uint64
}

// Reset clears device-derived state and returns the frame that was held, if
// any, so the caller can recycle it.
func (m *ConnectionModel) Reset() *image.RGBA {
	if m == nil {
		return nil
	}
	old := m.frame
	*m = ConnectionModel{}
	return old
}

// SetFrame keeps img as the newest frame and returns the superseded one.
func (m *ConnectionModel) SetFrame(img *image.RGBA) (prev *image.RGBA) {
	if m == nil {
		return nil
	}
	prev = m.frame
	m.frame = img
	m.frames++
	return prev
}

// Frame is the newest frame or nil.
func (m *ConnectionModel) Frame() *image.RGBA {
	if m == nil {
		return nil
	}
	return m.frame
}

// FrameCount counts frames received since the last Reset.
func (m *ConnectionModel) FrameCount() uint64 {
	if m == nil {
		return 0
	}
	return m.frames
}

// UpdateControl replaces the stored control with the same id. It reports
// whether a control was found.
func (m *ConnectionModel) UpdateControl(c capture.ControlDescriptor) bool {
	if m == nil {
		return false
	}
	for i := range m.Controls {
		if m.Controls[i].ID == c.ID {
			m.Controls[i] = c
			return true
		}
	}
	return false
}

// FormatIndex is the position of Current in Formats or -1.
func (m *ConnectionModel) FormatIndex() int {
	if m == nil {
		return -1
	}
	for i, f := range m.Formats {
		if f == m.Current {
			return i
		}
	}
	return -1
}
