package device

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedURI = errors.New("unsupported device uri")
	ErrNotFound       = errors.New("device not found")
	ErrStreamClosed   = errors.New("stream closed")
	ErrUnknownControl = errors.New("unknown control")
)

// PixelLayout names the byte arrangement of a frame's color channels.
type PixelLayout string

const (
	// LayoutBGRA32 is 32-bit blue, green, red, alpha. The preview renders it natively.
	LayoutBGRA32 PixelLayout = "BGRA32"
	LayoutRGB24  PixelLayout = "RGB24"
	LayoutYUYV   PixelLayout = "YUYV"
	LayoutMJPEG  PixelLayout = "MJPEG"
)

// Format is a frame resolution. Equality is structural.
type Format struct {
	Width  uint32
	Height uint32
}

func (f Format) String() string { return fmt.Sprintf("%dx%d", f.Width, f.Height) }

// DeviceFormat is the resolution plus pixel layout a driver negotiates.
type DeviceFormat struct {
	Format
	Layout PixelLayout
}

// FormatInfo lists the resolutions a device offers for one pixel layout.
type FormatInfo struct {
	Layout      PixelLayout
	Resolutions []Format
}

// ControlInfo is the driver-side description of a device control.
type ControlInfo struct {
	ID   uint32
	Name string
	Repr Representation
}

// Frame is one raw captured frame in the negotiated pixel layout.
type Frame struct {
	Width  int
	Height int
	Layout PixelLayout
	Pix    []byte
}

// Device is an opened capture device. Every call may block and may fail.
// A Device is not safe for concurrent use.
type Device interface {
	Format() (DeviceFormat, error)
	// SetFormat requests f. The returned format is what the device actually
	// applied and may differ from f.
	SetFormat(f DeviceFormat) (DeviceFormat, error)
	QueryFormats() ([]FormatInfo, error)
	QueryControls() ([]ControlInfo, error)
	Control(id uint32) (Value, error)
	SetControl(id uint32, v Value) error
	// Stream opens a frame source. The device format must not change while
	// a source is open.
	Stream() (FrameSource, error)
	Close() error
}

// FrameSource yields successive frames. Next blocks until a frame is ready
// or the device fails.
type FrameSource interface {
	Next() (Frame, error)
	Close() error
}

// Opener opens a device by uri.
type Opener interface {
	Open(ctx context.Context, uri string) (Device, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, uri string) (Device, error)

func (f OpenerFunc) Open(ctx context.Context, uri string) (Device, error) { return f(ctx, uri) }

// Info identifies a discovered device.
type Info struct {
	URI  string
	Name string
}

func (i Info) String() string {
	if i.Name == "" || i.Name == i.URI {
		return i.URI
	}
	return i.Name + " (" + i.URI + ")"
}
