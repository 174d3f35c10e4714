//go:build !windows

package device

import (
	"image"

	"github.com/vova616/screenshot"
)

func platformScreen() (grab func() (*image.RGBA, error), bounds func() (image.Rectangle, error)) {
	return screenshot.CaptureScreen, screenshot.ScreenRect
}
