package capture

import "github.com/soocke/pixel-cam-go/domain/device"

// CommandKind names a Command variant in logs and results.
type CommandKind int

const (
	CmdStartStream CommandKind = iota
	CmdStopStream
	CmdQueryFormats
	CmdQueryControls
	CmdGetFormat
	CmdSetFormat
	CmdSetControl
)

func (k CommandKind) String() string {
	switch k {
	case CmdStartStream:
		return "start_stream"
	case CmdStopStream:
		return "stop_stream"
	case CmdQueryFormats:
		return "query_formats"
	case CmdQueryControls:
		return "query_controls"
	case CmdGetFormat:
		return "get_format"
	case CmdSetFormat:
		return "set_format"
	case CmdSetControl:
		return "set_control"
	default:
		return "unknown"
	}
}

// Command is a UI to worker instruction. The set of variants is closed.
type Command interface {
	Kind() CommandKind
	command()
}

type (
	StartStream   struct{}
	StopStream    struct{}
	QueryFormats  struct{}
	QueryControls struct{}
	GetFormat     struct{}
	SetFormat     struct{ Format device.Format }
	SetControl    struct{ Control ControlDescriptor }
)

func (StartStream) Kind() CommandKind   { return CmdStartStream }
func (StopStream) Kind() CommandKind    { return CmdStopStream }
func (QueryFormats) Kind() CommandKind  { return CmdQueryFormats }
func (QueryControls) Kind() CommandKind { return CmdQueryControls }
func (GetFormat) Kind() CommandKind     { return CmdGetFormat }
func (SetFormat) Kind() CommandKind     { return CmdSetFormat }
func (SetControl) Kind() CommandKind    { return CmdSetControl }

func (StartStream) command()   {}
func (StopStream) command()    {}
func (QueryFormats) command()  {}
func (QueryControls) command() {}
func (GetFormat) command()     {}
func (SetFormat) command()     {}
func (SetControl) command()    {}

// ControlDescriptor is the model-side view of a device control. Value is None
// until read from the device, and always None for buttons.
type ControlDescriptor struct {
	ID    uint32
	Name  string
	Repr  device.Representation
	Value device.Value
}

// WithValue returns a copy of c carrying v.
func (c ControlDescriptor) WithValue(v device.Value) ControlDescriptor {
	c.Value = v
	return c
}
