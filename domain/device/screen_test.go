package device

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func fakeScreen(t *testing.T, w, h int, c color.RGBA) *ScreenDevice {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	d, err := NewScreenDevice(ScreenConfig{
		FPS:    1000,
		Grab:   func() (*image.RGBA, error) { return img, nil },
		Bounds: func() (image.Rectangle, error) { return img.Rect, nil },
	})
	if err != nil {
		t.Fatalf("new screen: %v", err)
	}
	return d
}

func TestScreenDevice_FormatsAndSnap(t *testing.T) {
	d := fakeScreen(t, 64, 32, color.RGBA{A: 255})
	infos, _ := d.QueryFormats()
	if len(infos) != 1 || infos[0].Layout != LayoutBGRA32 || len(infos[0].Resolutions) != 3 {
		t.Fatalf("unexpected formats %+v", infos)
	}
	got, err := d.SetFormat(DeviceFormat{Format: Format{Width: 30, Height: 15}, Layout: LayoutRGB24})
	if err != nil {
		t.Fatalf("set format: %v", err)
	}
	if got.Format != (Format{Width: 32, Height: 16}) || got.Layout != LayoutBGRA32 {
		t.Fatalf("snap got=%+v", got)
	}
}

func TestScreenDevice_StreamProducesScaledBGRA(t *testing.T) {
	d := fakeScreen(t, 8, 8, color.RGBA{R: 255, A: 255})
	if _, err := d.SetFormat(DeviceFormat{Format: Format{Width: 4, Height: 4}}); err != nil {
		t.Fatalf("set format: %v", err)
	}
	src, err := d.Stream()
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if _, err := d.SetFormat(DeviceFormat{Format: Format{Width: 8, Height: 8}}); err == nil {
		t.Fatalf("expected busy error while streaming")
	}
	f, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if f.Width != 4 || f.Height != 4 || len(f.Pix) != 64 {
		t.Fatalf("frame w=%d h=%d len=%d", f.Width, f.Height, len(f.Pix))
	}
	if f.Pix[0] != 0 || f.Pix[2] != 255 {
		t.Fatalf("expected red in BGRA order, got %v", f.Pix[:4])
	}
	_ = src.Close()
	if _, err := src.Next(); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("next after close err=%v", err)
	}
}

func TestScreenDevice_Controls(t *testing.T) {
	d := fakeScreen(t, 4, 4, color.RGBA{R: 10, G: 200, B: 90, A: 255})
	if err := d.SetControl(ScreenCtrlBrightness, IntValue(500)); err == nil {
		t.Fatalf("expected range error")
	}
	if err := d.SetControl(ScreenCtrlBrightness, IntValue(20)); err != nil {
		t.Fatalf("brightness: %v", err)
	}
	if err := d.SetControl(ScreenCtrlGrayscale, BoolValue(true)); err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	if v, _ := d.Control(ScreenCtrlBrightness); v != IntValue(20) {
		t.Fatalf("brightness readback %s", v)
	}
	src, _ := d.Stream()
	f, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if f.Pix[0] != f.Pix[1] || f.Pix[1] != f.Pix[2] {
		t.Fatalf("grayscale frame not gray: %v", f.Pix[:4])
	}
	_ = src.Close()
	if err := d.SetControl(ScreenCtrlReset, NoneValue()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v, _ := d.Control(ScreenCtrlGrayscale); v.Truthy() {
		t.Fatalf("reset left grayscale on")
	}
	if _, err := d.Control(99); !errors.Is(err, ErrUnknownControl) {
		t.Fatalf("unknown control err=%v", err)
	}
}

func TestScreenDevice_GrabError(t *testing.T) {
	boom := errors.New("no display")
	d, err := NewScreenDevice(ScreenConfig{
		FPS:    1000,
		Grab:   func() (*image.RGBA, error) { return nil, boom },
		Bounds: func() (image.Rectangle, error) { return image.Rect(0, 0, 2, 2), nil },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	src, _ := d.Stream()
	defer src.Close()
	if _, err := src.Next(); !errors.Is(err, boom) {
		t.Fatalf("grab err=%v", err)
	}
}
