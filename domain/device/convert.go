package device

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
)

// RGBAToBGRA swaps the red and blue channels of img into a packed BGRA buffer.
func RGBAToBGRA(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out[y*w*4 : (y+1)*w*4]
		for x := 0; x < w*4; x += 4 {
			dst[x+0] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x+0]
			dst[x+3] = src[x+3]
		}
	}
	return out
}

// ImageToBGRA converts any image into a packed BGRA buffer.
func ImageToBGRA(img image.Image) []byte {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return RGBAToBGRA(rgba)
}

// YUYVToBGRA converts packed YUYV 4:2:2 into BGRA using BT.601 coefficients.
func YUYVToBGRA(src []byte, width, height int) ([]byte, error) {
	if width%2 != 0 {
		return nil, fmt.Errorf("yuyv: odd width %d", width)
	}
	if len(src) < width*height*2 {
		return nil, fmt.Errorf("yuyv: short buffer: %d < %d", len(src), width*height*2)
	}
	out := make([]byte, width*height*4)
	o := 0
	for i := 0; i+3 < width*height*2; i += 4 {
		y0, u, y1, v := int32(src[i]), int32(src[i+1])-128, int32(src[i+2]), int32(src[i+3])-128
		o = putYUV(out, o, y0, u, v)
		o = putYUV(out, o, y1, u, v)
	}
	return out, nil
}

func putYUV(dst []byte, o int, y, u, v int32) int {
	c := (y - 16) * 298
	r := clamp8((c + 409*v + 128) >> 8)
	g := clamp8((c - 100*u - 208*v + 128) >> 8)
	b := clamp8((c + 516*u + 128) >> 8)
	dst[o+0] = b
	dst[o+1] = g
	dst[o+2] = r
	dst[o+3] = 0xff
	return o + 4
}

func clamp8(x int32) byte {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return byte(x)
}

// MJPEGToBGRA decodes one JPEG frame into BGRA.
func MJPEGToBGRA(src []byte) (buf []byte, width, height int, err error) {
	img, err := jpeg.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("mjpeg decode: %w", err)
	}
	b := img.Bounds()
	return ImageToBGRA(img), b.Dx(), b.Dy(), nil
}
