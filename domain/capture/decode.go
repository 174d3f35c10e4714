package capture

import (
	"fmt"
	"image"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// decodeFrame turns a packed BGRA frame into a pooled RGBA image.
func decodeFrame(f device.Frame) (*image.RGBA, error) {
	if f.Layout != TargetLayout {
		return nil, fmt.Errorf("decode frame: layout %s, want %s", f.Layout, TargetLayout)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("decode frame: empty %dx%d", f.Width, f.Height)
	}
	need := f.Width * f.Height * 4
	if len(f.Pix) < need {
		return nil, fmt.Errorf("decode frame: short buffer %d < %d", len(f.Pix), need)
	}
	img := AcquireFrame(image.Rect(0, 0, f.Width, f.Height))
	dst, src := img.Pix, f.Pix[:need]
	for i := 0; i < need; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	return img, nil
}
