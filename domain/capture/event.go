package capture

import (
	"fmt"
	"image"
	"time"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// Event is a worker to UI notification. The set of variants is closed.
type Event interface{ event() }

// Connected is the first event of every successful connection.
type Connected struct{ Handle *Handle }

// Disconnected is the last event after the command queue closed.
type Disconnected struct{}

// Error reports a failure that is not tied to a single command result:
// open/negotiation (terminal), a frame source failure, or a command that is
// invalid for the current state.
type Error struct{ Err error }

// CommandResult answers exactly one Command. Payload depends on Kind; use the
// typed accessors.
type CommandResult struct {
	Kind    CommandKind
	Payload any
	Err     error
}

// FrameReady carries one decoded frame. Image comes from the frame pool and
// may be handed back with RecycleFrame once the consumer is done with it.
type FrameReady struct {
	Image      *image.RGBA
	Sequence   uint64
	CapturedAt time.Time
}

func (Connected) event()     {}
func (Disconnected) event()  {}
func (Error) event()         {}
func (CommandResult) event() {}
func (FrameReady) event()    {}

func (e Error) String() string { return fmt.Sprintf("error: %v", e.Err) }

func (r CommandResult) OK() bool { return r.Err == nil }

// Formats is the QueryFormats payload.
func (r CommandResult) Formats() []device.Format {
	f, _ := r.Payload.([]device.Format)
	return f
}

// Controls is the QueryControls payload.
func (r CommandResult) Controls() []ControlDescriptor {
	c, _ := r.Payload.([]ControlDescriptor)
	return c
}

// Format is the GetFormat and SetFormat payload.
func (r CommandResult) Format() (device.Format, bool) {
	f, ok := r.Payload.(device.Format)
	return f, ok
}

// Control is the SetControl payload.
func (r CommandResult) Control() (ControlDescriptor, bool) {
	c, ok := r.Payload.(ControlDescriptor)
	return c, ok
}

func (r CommandResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Kind, r.Err)
	}
	if r.Payload == nil {
		return r.Kind.String() + ": ok"
	}
	return fmt.Sprintf("%s: %v", r.Kind, r.Payload)
}
