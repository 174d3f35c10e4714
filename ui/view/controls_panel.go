package view

import (
	"fmt"
	"strings"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
	"github.com/soocke/pixel-cam-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ControlsPanel renders the device controls. The whole panel is rebuilt when
// the control list changes; values are edited as text and submitted through
// onApply(index, text).
type ControlsPanel interface {
	SetControls(controls []capture.ControlDescriptor)
	SetEditable(enabled bool)
}

type controlsPanel struct {
	parent  *FrameWidget
	row     int
	onApply func(index int, text string)
	frame   *FrameWidget
	inputs  map[int]*TextWidget
	buttons []*TButtonWidget
}

// NewControlsPanel grids an empty panel at row inside parent.
func NewControlsPanel(parent *FrameWidget, row int, onApply func(index int, text string)) ControlsPanel {
	p := &controlsPanel{parent: parent, row: row, onApply: onApply}
	p.SetControls(nil)
	return p
}

func (p *controlsPanel) SetControls(controls []capture.ControlDescriptor) {
	if p.frame != nil {
		Destroy(p.frame)
	}
	p.inputs = make(map[int]*TextWidget)
	p.buttons = nil
	p.frame = p.parent.Frame(Borderwidth(1), Relief("groove"))
	Grid(p.frame, Row(p.row), Column(0), Sticky("nwe"), Padx("0.4m"), Pady("0.4m"))
	if len(controls) == 0 {
		Grid(p.frame.Label(Txt("No controls"), Anchor("w")), Row(0), Column(0), Sticky("w"), Padx("0.4m"))
		return
	}
	for i, c := range controls {
		p.makeRow(i, c)
	}
}

func (p *controlsPanel) makeRow(row int, c capture.ControlDescriptor) {
	f := p.frame
	lbl := f.Label(Txt(c.Name), Anchor("w"))
	Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
	idx := row
	switch c.Repr.Kind {
	case device.ReprButton:
		b := f.TButton(Txt("Trigger"), Command(func() { p.apply(idx, "") }))
		Grid(b, Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		p.buttons = append(p.buttons, b)
	case device.ReprBoolean:
		on := c.Value.Truthy()
		b := f.TButton(Txt(onOff(on)), Command(func() { p.apply(idx, fmt.Sprintf("%t", !on)) }))
		Grid(b, Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		p.buttons = append(p.buttons, b)
	case device.ReprInteger:
		w := f.Text(Height(1), Width(8))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", c.Value.String())
		p.inputs[idx] = w
		b := f.TButton(Txt("Apply"), Style(theme.StylePrimaryButton), Command(func() { p.apply(idx, text(w)) }))
		Grid(b, Row(row), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		p.buttons = append(p.buttons, b)
		hint := f.TLabel(Txt(fmt.Sprintf("%d..%d step %d (default %d)", c.Repr.Min, c.Repr.Max, c.Repr.Step, c.Repr.Default)), Style(theme.StyleHintLabel))
		Grid(hint, Row(row), Column(3), Sticky("w"), Padx("0.4m"))
	default:
		Grid(f.Label(Txt(c.Value.String()), Anchor("w")), Row(row), Column(1), Sticky("w"), Padx("0.4m"))
	}
}

func (p *controlsPanel) apply(index int, text string) {
	if p.onApply != nil {
		p.onApply(index, text)
	}
}

func (p *controlsPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range p.inputs {
		w.Configure(State(state))
	}
	for _, b := range p.buttons {
		b.Configure(State(state))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}
