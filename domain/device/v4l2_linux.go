//go:build linux

package device

import (
	"context"
	"fmt"
	"sort"

	v4ldev "github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

// convertible native encodings, in order of preference.
var v4l2Preferred = []v4l2.FourCCType{v4l2.PixelFmtYUYV, v4l2.PixelFmtMJPEG}

// V4L2Device wraps a go4vl device. Native YUYV and MJPEG are converted to
// BGRA32 on read so the device advertises BGRA32 for both.
type V4L2Device struct {
	path   string
	dev    *v4ldev.Device
	ctx    context.Context
	source *v4l2Source
}

// OpenV4L2 opens the device node at path.
func OpenV4L2(ctx context.Context, path string) (*V4L2Device, error) {
	dev, err := v4ldev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("v4l2 open %s: %w", path, err)
	}
	return &V4L2Device{path: path, dev: dev, ctx: ctx}, nil
}

func layoutOf(fourcc v4l2.FourCCType) PixelLayout {
	switch fourcc {
	case v4l2.PixelFmtYUYV, v4l2.PixelFmtMJPEG:
		return LayoutBGRA32
	case v4l2.PixelFmtRGB24:
		return LayoutRGB24
	}
	return PixelLayout(v4l2.PixelFormats[fourcc])
}

func convertible(fourcc v4l2.FourCCType) bool {
	for _, p := range v4l2Preferred {
		if p == fourcc {
			return true
		}
	}
	return false
}

func (d *V4L2Device) Format() (DeviceFormat, error) {
	pf, err := d.dev.GetPixFormat()
	if err != nil {
		return DeviceFormat{}, err
	}
	return DeviceFormat{Format: Format{Width: pf.Width, Height: pf.Height}, Layout: layoutOf(pf.PixelFormat)}, nil
}

// SetFormat keeps the current native encoding when it converts to BGRA32 and
// otherwise falls back to the first supported preferred encoding.
func (d *V4L2Device) SetFormat(f DeviceFormat) (DeviceFormat, error) {
	if d.source != nil && !d.source.closed {
		return DeviceFormat{}, fmt.Errorf("v4l2 %s: format cannot change while streaming", d.path)
	}
	cur, err := d.dev.GetPixFormat()
	if err != nil {
		return DeviceFormat{}, err
	}
	fourcc := cur.PixelFormat
	if f.Layout == LayoutBGRA32 && !convertible(fourcc) {
		descs, err := d.dev.GetFormatDescriptions()
		if err != nil {
			return DeviceFormat{}, err
		}
	pick:
		for _, p := range v4l2Preferred {
			for _, desc := range descs {
				if desc.PixelFormat == p {
					fourcc = p
					break pick
				}
			}
		}
	}
	err = d.dev.SetPixFormat(v4l2.PixFormat{
		Width:       f.Width,
		Height:      f.Height,
		PixelFormat: fourcc,
		Field:       v4l2.FieldNone,
	})
	if err != nil {
		return DeviceFormat{}, err
	}
	return d.Format()
}

func (d *V4L2Device) QueryFormats() ([]FormatInfo, error) {
	descs, err := d.dev.GetFormatDescriptions()
	if err != nil {
		return nil, err
	}
	byLayout := map[PixelLayout][]Format{}
	var order []PixelLayout
	for _, desc := range descs {
		sizes, err := v4l2.GetFormatFrameSizes(d.dev.Fd(), desc.PixelFormat)
		if err != nil {
			continue
		}
		l := layoutOf(desc.PixelFormat)
		if _, seen := byLayout[l]; !seen {
			order = append(order, l)
		}
		for _, s := range sizes {
			f := Format{Width: s.Size.MaxWidth, Height: s.Size.MaxHeight}
			if !containsFormat(byLayout[l], f) {
				byLayout[l] = append(byLayout[l], f)
			}
		}
	}
	out := make([]FormatInfo, 0, len(order))
	for _, l := range order {
		res := byLayout[l]
		sort.Slice(res, func(i, j int) bool {
			return res[i].Width*res[i].Height > res[j].Width*res[j].Height
		})
		out = append(out, FormatInfo{Layout: l, Resolutions: res})
	}
	return out, nil
}

func containsFormat(list []Format, f Format) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

func reprOf(c v4l2.Control) Representation {
	switch c.Type {
	case v4l2.CtrlTypeButton:
		return ButtonRepr()
	case v4l2.CtrlTypeBool:
		return BooleanRepr()
	case v4l2.CtrlTypeInt:
		return IntegerRepr(int64(c.Minimum), int64(c.Maximum), int64(c.Step), int64(c.Default))
	}
	return Representation{Kind: ReprUnknown}
}

func (d *V4L2Device) QueryControls() ([]ControlInfo, error) {
	ctrls, err := d.dev.QueryAllControls()
	if err != nil {
		return nil, err
	}
	out := make([]ControlInfo, 0, len(ctrls))
	for _, c := range ctrls {
		out = append(out, ControlInfo{ID: uint32(c.ID), Name: c.Name, Repr: reprOf(c)})
	}
	return out, nil
}

func (d *V4L2Device) Control(id uint32) (Value, error) {
	c, err := d.dev.GetControl(v4l2.CtrlID(id))
	if err != nil {
		return Value{}, err
	}
	switch c.Type {
	case v4l2.CtrlTypeBool:
		return BoolValue(c.Value != 0), nil
	case v4l2.CtrlTypeInt:
		return IntValue(int64(c.Value)), nil
	}
	return NoneValue(), nil
}

func (d *V4L2Device) SetControl(id uint32, v Value) error {
	var raw int64
	switch v.Kind() {
	case ValueBoolean:
		if v.Truthy() {
			raw = 1
		}
	case ValueInteger:
		raw, _ = v.Int()
	case ValueNone:
		raw = 1 // buttons trigger on any write
	default:
		return fmt.Errorf("v4l2: control %d cannot take %s", id, v)
	}
	return d.dev.SetControlValue(v4l2.CtrlID(id), v4l2.CtrlValue(raw))
}

func (d *V4L2Device) Stream() (FrameSource, error) {
	pf, err := d.dev.GetPixFormat()
	if err != nil {
		return nil, err
	}
	if !convertible(pf.PixelFormat) {
		return nil, fmt.Errorf("v4l2 %s: unsupported encoding %s", d.path, v4l2.PixelFormats[pf.PixelFormat])
	}
	ctx, cancel := context.WithCancel(d.ctx)
	if err := d.dev.Start(ctx); err != nil {
		cancel()
		return nil, err
	}
	d.source = &v4l2Source{dev: d.dev, format: pf, cancel: cancel}
	return d.source, nil
}

func (d *V4L2Device) Close() error {
	if d.source != nil {
		_ = d.source.Close()
	}
	return d.dev.Close()
}

type v4l2Source struct {
	dev    *v4ldev.Device
	format v4l2.PixFormat
	cancel context.CancelFunc
	closed bool
}

func (s *v4l2Source) Next() (Frame, error) {
	if s.closed {
		return Frame{}, ErrStreamClosed
	}
	raw, ok := <-s.dev.GetOutput()
	if !ok {
		return Frame{}, ErrStreamClosed
	}
	w, h := int(s.format.Width), int(s.format.Height)
	switch s.format.PixelFormat {
	case v4l2.PixelFmtYUYV:
		pix, err := YUYVToBGRA(raw, w, h)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Width: w, Height: h, Layout: LayoutBGRA32, Pix: pix}, nil
	default:
		pix, w, h, err := MJPEGToBGRA(raw)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Width: w, Height: h, Layout: LayoutBGRA32, Pix: pix}, nil
	}
}

func (s *v4l2Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.dev.Stop()
}

func openVideo(ctx context.Context, path string) (Device, error) {
	return OpenV4L2(ctx, path)
}
