package capture

import (
	"fmt"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// execute runs one query or set command against dev. It is shared by the idle
// and streaming states and never retries.
func execute(dev device.Device, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case QueryFormats:
		return queryFormats(dev)
	case QueryControls:
		return queryControls(dev)
	case GetFormat:
		f, err := dev.Format()
		if err != nil {
			return nil, fmt.Errorf("get format: %w", err)
		}
		return f.Format, nil
	case SetFormat:
		return setFormat(dev, c.Format)
	case SetControl:
		return setControl(dev, c.Control)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidState, cmd.Kind())
}

func queryFormats(dev device.Device) ([]device.Format, error) {
	infos, err := dev.QueryFormats()
	if err != nil {
		return nil, fmt.Errorf("query formats: %w", err)
	}
	out := []device.Format{}
	for _, info := range infos {
		if info.Layout != TargetLayout {
			continue
		}
		out = append(out, info.Resolutions...)
	}
	return out, nil
}

// queryControls reads the current value of every boolean and integer control.
// A failed read leaves that control's value None.
func queryControls(dev device.Device) ([]ControlDescriptor, error) {
	infos, err := dev.QueryControls()
	if err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}
	out := make([]ControlDescriptor, 0, len(infos))
	for _, info := range infos {
		d := ControlDescriptor{ID: info.ID, Name: info.Name, Repr: info.Repr, Value: device.NoneValue()}
		if info.Repr.Readable() {
			if v, err := dev.Control(info.ID); err == nil {
				d.Value = v
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// setFormat changes only the resolution; the negotiated layout is kept.
func setFormat(dev device.Device, f device.Format) (device.Format, error) {
	cur, err := dev.Format()
	if err != nil {
		return device.Format{}, fmt.Errorf("set format: read current: %w", err)
	}
	cur.Width, cur.Height = f.Width, f.Height
	got, err := dev.SetFormat(cur)
	if err != nil {
		return device.Format{}, fmt.Errorf("set format %s: %w", f, err)
	}
	return got.Format, nil
}

func setControl(dev device.Device, c ControlDescriptor) (ControlDescriptor, error) {
	if !c.Value.CompatibleWith(c.Repr) {
		return ControlDescriptor{}, fmt.Errorf("%w: %s %q takes %s, got %s", ErrIncompatibleValue, c.Repr.Kind, c.Name, c.Repr, c.Value)
	}
	if err := dev.SetControl(c.ID, c.Value); err != nil {
		return ControlDescriptor{}, fmt.Errorf("set control %q: %w", c.Name, err)
	}
	return c, nil
}

// negotiate asks for TargetLayout at the current resolution and verifies the
// device really switched.
func negotiate(dev device.Device) (device.DeviceFormat, error) {
	cur, err := dev.Format()
	if err != nil {
		return device.DeviceFormat{}, fmt.Errorf("read format: %w", err)
	}
	got, err := dev.SetFormat(device.DeviceFormat{Format: cur.Format, Layout: TargetLayout})
	if err != nil {
		return device.DeviceFormat{}, fmt.Errorf("set format: %w", err)
	}
	if got.Layout != TargetLayout {
		return got, fmt.Errorf("%w: got %s", ErrLayoutUnsupported, got.Layout)
	}
	return got, nil
}
