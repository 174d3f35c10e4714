package device

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const screenScheme = "screen:"

// Screen device control ids.
const (
	ScreenCtrlBrightness uint32 = iota + 1
	ScreenCtrlContrast
	ScreenCtrlGrayscale
	ScreenCtrlReset
)

var errScreenBusy = errors.New("screen: format cannot change while streaming")

// screenDivisors are the downscale factors offered as resolutions.
var screenDivisors = []uint32{1, 2, 4}

// ScreenConfig configures a virtual screen capture device. Grab and Bounds
// default to GDI on Windows and vova616/screenshot elsewhere.
type ScreenConfig struct {
	Display int
	FPS     int
	Grab    func() (*image.RGBA, error)
	Bounds  func() (image.Rectangle, error)
}

// ScreenDevice exposes the desktop as a capture device producing BGRA frames.
type ScreenDevice struct {
	cfg        ScreenConfig
	native     Format
	format     Format
	brightness int64
	contrast   int64
	grayscale  bool
	source     *screenSource
}

// NewScreenDevice probes the screen size and returns a device at native resolution.
func NewScreenDevice(cfg ScreenConfig) (*ScreenDevice, error) {
	grab, bounds := platformScreen()
	if cfg.Grab == nil {
		cfg.Grab = grab
	}
	if cfg.Bounds == nil {
		cfg.Bounds = bounds
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 10
	}
	r, err := cfg.Bounds()
	if err != nil {
		return nil, fmt.Errorf("screen bounds: %w", err)
	}
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, fmt.Errorf("screen bounds: empty rectangle %v", r)
	}
	native := Format{Width: uint32(r.Dx()), Height: uint32(r.Dy())}
	return &ScreenDevice{cfg: cfg, native: native, format: native}, nil
}

// parseScreenURI accepts "screen:N".
func parseScreenURI(uri string) (int, bool) {
	if !strings.HasPrefix(uri, screenScheme) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(uri, screenScheme))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (d *ScreenDevice) resolutions() []Format {
	out := make([]Format, 0, len(screenDivisors))
	for _, div := range screenDivisors {
		f := Format{Width: d.native.Width / div, Height: d.native.Height / div}
		if f.Width == 0 || f.Height == 0 {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (d *ScreenDevice) Format() (DeviceFormat, error) {
	return DeviceFormat{Format: d.format, Layout: LayoutBGRA32}, nil
}

// SetFormat snaps the request to the closest offered resolution. The layout
// is always BGRA32 regardless of the request.
func (d *ScreenDevice) SetFormat(f DeviceFormat) (DeviceFormat, error) {
	if d.source != nil && !d.source.closed {
		return DeviceFormat{}, errScreenBusy
	}
	best := d.native
	bestDiff := int64(-1)
	for _, r := range d.resolutions() {
		diff := absInt64(int64(r.Width)*int64(r.Height) - int64(f.Width)*int64(f.Height))
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = r, diff
		}
	}
	d.format = best
	return DeviceFormat{Format: best, Layout: LayoutBGRA32}, nil
}

func (d *ScreenDevice) QueryFormats() ([]FormatInfo, error) {
	return []FormatInfo{{Layout: LayoutBGRA32, Resolutions: d.resolutions()}}, nil
}

func (d *ScreenDevice) QueryControls() ([]ControlInfo, error) {
	return []ControlInfo{
		{ID: ScreenCtrlBrightness, Name: "Brightness", Repr: IntegerRepr(-100, 100, 1, 0)},
		{ID: ScreenCtrlContrast, Name: "Contrast", Repr: IntegerRepr(-100, 100, 1, 0)},
		{ID: ScreenCtrlGrayscale, Name: "Grayscale", Repr: BooleanRepr()},
		{ID: ScreenCtrlReset, Name: "Reset", Repr: ButtonRepr()},
	}, nil
}

func (d *ScreenDevice) Control(id uint32) (Value, error) {
	switch id {
	case ScreenCtrlBrightness:
		return IntValue(d.brightness), nil
	case ScreenCtrlContrast:
		return IntValue(d.contrast), nil
	case ScreenCtrlGrayscale:
		return BoolValue(d.grayscale), nil
	case ScreenCtrlReset:
		return NoneValue(), nil
	}
	return Value{}, fmt.Errorf("%w: %d", ErrUnknownControl, id)
}

func (d *ScreenDevice) SetControl(id uint32, v Value) error {
	switch id {
	case ScreenCtrlBrightness, ScreenCtrlContrast:
		i, ok := v.Int()
		if !ok {
			return fmt.Errorf("screen: control %d expects an integer, got %s", id, v)
		}
		if i < -100 || i > 100 {
			return fmt.Errorf("screen: control %d value %d out of range", id, i)
		}
		if id == ScreenCtrlBrightness {
			d.brightness = i
		} else {
			d.contrast = i
		}
	case ScreenCtrlGrayscale:
		d.grayscale = v.Truthy()
	case ScreenCtrlReset:
		d.brightness, d.contrast, d.grayscale = 0, 0, false
	default:
		return fmt.Errorf("%w: %d", ErrUnknownControl, id)
	}
	return nil
}

func (d *ScreenDevice) Stream() (FrameSource, error) {
	interval := time.Second / time.Duration(d.cfg.FPS)
	d.source = &screenSource{dev: d, ticker: time.NewTicker(interval)}
	return d.source, nil
}

func (d *ScreenDevice) Close() error {
	if d.source != nil {
		_ = d.source.Close()
	}
	return nil
}

// render applies the resolution and the image controls.
func (d *ScreenDevice) render(img *image.RGBA) image.Image {
	var out image.Image = img
	if uint32(img.Bounds().Dx()) != d.format.Width || uint32(img.Bounds().Dy()) != d.format.Height {
		out = imaging.Resize(out, int(d.format.Width), int(d.format.Height), imaging.Box)
	}
	if d.brightness != 0 {
		out = imaging.AdjustBrightness(out, float64(d.brightness))
	}
	if d.contrast != 0 {
		out = imaging.AdjustContrast(out, float64(d.contrast))
	}
	if d.grayscale {
		out = imaging.Grayscale(out)
	}
	return out
}

type screenSource struct {
	dev    *ScreenDevice
	ticker *time.Ticker
	closed bool
}

func (s *screenSource) Next() (Frame, error) {
	if s.closed {
		return Frame{}, ErrStreamClosed
	}
	<-s.ticker.C
	img, err := s.dev.cfg.Grab()
	if err != nil {
		return Frame{}, fmt.Errorf("screen grab: %w", err)
	}
	out := s.dev.render(img)
	b := out.Bounds()
	return Frame{Width: b.Dx(), Height: b.Dy(), Layout: LayoutBGRA32, Pix: ImageToBGRA(out)}, nil
}

func (s *screenSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.ticker.Stop()
	return nil
}

func absInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
