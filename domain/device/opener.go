package device

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const videoPrefix = "/dev/video"

// DefaultOpener dispatches by uri: "screen:N" opens the desktop, "/dev/videoN"
// or a bare index N opens a V4L2 node.
type DefaultOpener struct {
	ScreenFPS int
	// Screen overrides the screen device defaults when non-nil.
	Screen *ScreenConfig
}

func (o DefaultOpener) Open(ctx context.Context, uri string) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uri = strings.TrimSpace(uri)
	if n, ok := parseScreenURI(uri); ok {
		cfg := ScreenConfig{Display: n, FPS: o.ScreenFPS}
		if o.Screen != nil {
			cfg = *o.Screen
			cfg.Display = n
		}
		return NewScreenDevice(cfg)
	}
	path, ok := videoPath(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return openVideo(ctx, path)
}

// videoPath normalizes "/dev/videoN" and "N" to a device node path.
func videoPath(uri string) (string, bool) {
	num := uri
	if strings.HasPrefix(uri, videoPrefix) {
		num = strings.TrimPrefix(uri, videoPrefix)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return "", false
	}
	return videoPrefix + strconv.Itoa(n), true
}
