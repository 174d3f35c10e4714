package view

import (
	"image"

	"github.com/soocke/pixel-cam-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the newest frame of the connected device.
type CapturePreview interface {
	Update(img image.Image)
	Reset()
}

type capturePreview struct {
	label     *LabelWidget
	targetW   int
	targetH   int
	prevPhoto *Img // last Tk photo image instance
}

// Internal state tracks the current photo so we can dispose the old image
// before replacing it, preventing accumulation of off-screen image data.

// NewCapturePreview creates the preview label inside parent and returns the view.
func NewCapturePreview(parent *FrameWidget, maxW, maxH int) CapturePreview {
	v := &capturePreview{}
	v.setTargetSize(maxW, maxH)
	v.prevPhoto = NewPhoto(Data(images.EncodePNG(images.Placeholder(v.targetW/2, v.targetH/2))))
	v.label = parent.Label(Image(v.prevPhoto), Borderwidth(1), Relief("sunken"))
	Grid(v.label, Row(0), Column(0), Sticky("nswe"), Padx("0.4m"), Pady("0.4m"))
	return v
}

const (
	// Lower bound for the preview; the upper bound comes from config.
	minPreviewW = 160
	minPreviewH = 90
)

func (v *capturePreview) Update(img image.Image) {
	if v.label == nil || img == nil {
		return
	}
	// Scale for display only; allocate a fresh scaled image each call.
	scaled := images.ScaleToFit(img, v.targetW, v.targetH)
	v.show(images.EncodePNG(scaled))
}

func (v *capturePreview) Reset() {
	if v.label == nil {
		return
	}
	v.show(images.EncodePNG(images.Placeholder(v.targetW/2, v.targetH/2)))
}

// show replaces the previous photo to avoid retaining obsolete pixel buffers.
func (v *capturePreview) show(pngBytes []byte) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.label.Configure(Image(v.prevPhoto))
}

// setTargetSize updates desired scaling dimensions used by Update.
func (v *capturePreview) setTargetSize(w, h int) {
	if w < minPreviewW {
		w = minPreviewW
	}
	if h < minPreviewH {
		h = minPreviewH
	}
	v.targetW, v.targetH = w, h
}
