package presenter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
)

var ErrControlInput = errors.New("invalid control input")

// ParseControlInput turns the text typed for control c into a descriptor
// carrying the new value. Integers are range checked and snapped to the step
// grid starting at Min. Buttons ignore text.
func ParseControlInput(c capture.ControlDescriptor, text string) (capture.ControlDescriptor, error) {
	text = strings.TrimSpace(text)
	switch c.Repr.Kind {
	case device.ReprButton:
		return c.WithValue(device.NoneValue()), nil
	case device.ReprBoolean:
		b, err := parseBool(text)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %v", ErrControlInput, c.Name, err)
		}
		return c.WithValue(device.BoolValue(b)), nil
	case device.ReprInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %q is not an integer", ErrControlInput, c.Name, text)
		}
		r := c.Repr
		if i < r.Min || i > r.Max {
			return c, fmt.Errorf("%w: %s: %d outside %d..%d", ErrControlInput, c.Name, i, r.Min, r.Max)
		}
		return c.WithValue(device.IntValue(snap(i, r))), nil
	}
	return c, fmt.Errorf("%w: %s has representation %s", ErrControlInput, c.Name, c.Repr)
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(text)
}

// snap rounds i to the nearest step from Min, staying inside Max.
func snap(i int64, r device.Representation) int64 {
	if r.Step <= 1 {
		return i
	}
	off := i - r.Min
	n := (off + r.Step/2) / r.Step
	v := r.Min + n*r.Step
	if v > r.Max {
		v -= r.Step
	}
	return v
}
