//go:build !linux

package device

import (
	"context"
	"fmt"
)

func openVideo(_ context.Context, path string) (Device, error) {
	return nil, fmt.Errorf("%w: %s (v4l2 is linux only)", ErrUnsupportedURI, path)
}
