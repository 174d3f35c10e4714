package capture

import (
	"errors"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// TargetLayout is the pixel layout negotiated on open; the preview renders it
// without conversion.
const TargetLayout = device.LayoutBGRA32

var (
	ErrLayoutUnsupported = errors.New("device does not support the required pixel layout")
	ErrInvalidState      = errors.New("command invalid in current state")
	ErrIncompatibleValue = errors.New("value incompatible with control representation")
	ErrClosed            = errors.New("connection closed")
	ErrStreamReopen      = errors.New("reopen stream")
)

// State of the connection worker.
type State int32

const (
	StateOpening State = iota
	StateIdle
	StateStreaming
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
