package model

import (
	"time"
)

// SessionModel tracks how long the current stream has been running and the
// accumulated streaming time of this run. Presenters call OnTick with the
// streaming flag and poll Values. The zero value is ready to use.
type SessionModel struct {
	active       bool
	streamStart  time.Time
	lastDuration time.Duration
	accumulated  time.Duration
	startFrames  uint64
	lastFrames   uint64
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the model. frames is the running frame counter of the
// connection and is used for the per-session frame rate.
func (m *SessionModel) OnTick(streaming bool, frames uint64, now time.Time) {
	if m == nil {
		return
	}
	if streaming {
		if !m.active {
			m.active = true
			m.streamStart = now
			m.startFrames = frames
			m.lastDuration = 0
		}
		m.lastDuration = now.Sub(m.streamStart)
		m.lastFrames = frames
	} else if m.active {
		m.lastDuration = now.Sub(m.streamStart)
		m.accumulated += m.lastDuration
		m.active = false
	}
}

// Values returns the current session duration and the total streaming time.
// The total includes the ongoing session when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.lastDuration
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

// FPS is the average frame rate of the current or last session.
func (m *SessionModel) FPS() float64 {
	if m == nil || m.lastDuration <= 0 || m.lastFrames < m.startFrames {
		return 0
	}
	return float64(m.lastFrames-m.startFrames) / m.lastDuration.Seconds()
}
