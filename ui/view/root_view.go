package view

import (
	"image"
	"log/slog"
	"strconv"

	"github.com/soocke/pixel-cam-go/config"
	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/ui/model"
	"github.com/soocke/pixel-cam-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions. Indexes refer to the lists last
// passed to SetDevices, SetFormats and SetControls.
type Handlers struct {
	OnRefresh        func()
	OnDeviceSelected func(index int)
	OnFormatSelected func(index int)
	OnToggleStream   func()
	OnControl        func(index int, text string)
	OnLogFilter      func(level model.LogLevel)
	OnExit           func()
}

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg    *config.Config
	logger *slog.Logger

	// Subviews
	Preview  CapturePreview
	Controls ControlsPanel
	Log      LogPanel

	// Widgets
	DeviceSelect *TComboboxWidget
	FormatSelect *TComboboxWidget
	StreamButton *TButtonWidget
	StatusLabel  *TLabelWidget
}

func NewRootView(cfg *config.Config, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, logger: logger}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: device, refresh, format, stream toggle, exit
	bar := Frame()
	Grid(bar, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	Grid(bar.Label(Txt("Device")), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	rv.DeviceSelect = bar.TCombobox(Values([]string{"<none>"}), Width(28), State("readonly"))
	Grid(rv.DeviceSelect, Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	bindSelection(rv.DeviceSelect, rv.logger, "device", h.OnDeviceSelected)
	Grid(bar.TButton(Txt("Refresh"), Command(call(h.OnRefresh))), Row(0), Column(2), Padx("0.2m"))

	Grid(bar.Label(Txt("Format")), Row(0), Column(3), Sticky("w"), Padx("0.2m"))
	rv.FormatSelect = bar.TCombobox(Values([]string{"<none>"}), Width(12), State("readonly"))
	Grid(rv.FormatSelect, Row(0), Column(4), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	bindSelection(rv.FormatSelect, rv.logger, "format", h.OnFormatSelected)

	rv.StreamButton = bar.TButton(Txt("Start stream"), Style(theme.StreamButtonStyle(false)), Command(call(h.OnToggleStream)))
	Grid(rv.StreamButton, Row(0), Column(5), Sticky("we"), Padx("0.2m"))
	Grid(bar.TButton(Txt("Exit"), Command(call(h.OnExit))), Row(0), Column(6), Sticky("e"), Padx("0.2m"))
	GridColumnConfigure(bar, 1, Weight(1))

	// Row 1: preview left, controls right
	body := Frame()
	Grid(body, Row(1), Column(0), Columnspan(2), Sticky("nswe"), Padx("0.4m"))
	maxW, maxH := 960, 540
	if rv.cfg != nil {
		maxW, maxH = rv.cfg.PreviewMaxW, rv.cfg.PreviewMaxH
	}
	rv.Preview = NewCapturePreview(body, maxW, maxH)
	side := body.Frame()
	Grid(side, Row(0), Column(1), Sticky("nwe"), Padx("0.4m"))
	rv.Controls = NewControlsPanel(side, 0, h.OnControl)
	GridColumnConfigure(body, 0, Weight(1))

	// Row 2: status line
	rv.StatusLabel = TLabel(Txt("disconnected"), Style(theme.StyleStatusLabel), Anchor("w"))
	Grid(rv.StatusLabel, Row(2), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Row 3: log
	filter := model.LogInfo
	if rv.cfg != nil {
		filter = model.ParseLogLevel(rv.cfg.LogLevelFilter)
	}
	rv.Log = NewLogPanel(3, filter, h.OnLogFilter)
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))
	rv.SetStreaming(false, false)
}

func call(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}

func bindSelection(cb *TComboboxWidget, logger *slog.Logger, what string, fn func(int)) {
	Bind(cb, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(cb.Current(nil))
		if err != nil || idx < 0 {
			if logger != nil {
				logger.Error("combobox selection parse error", "widget", what, "error", err)
			}
			return
		}
		if fn != nil {
			fn(idx)
		}
	}))
}

// setChoices replaces combobox values. An empty list shows a placeholder.
func setChoices(cb *TComboboxWidget, labels []string, selected int) {
	if cb == nil {
		return
	}
	if len(labels) == 0 {
		cb.Configure(Values([]string{"<none>"}))
		cb.Current(0)
		return
	}
	cb.Configure(Values(labels))
	if selected >= 0 && selected < len(labels) {
		cb.Current(selected)
	}
}

func (rv *RootView) SetDevices(labels []string, selected int) {
	if rv != nil {
		setChoices(rv.DeviceSelect, labels, selected)
	}
}

func (rv *RootView) SetFormats(labels []string, selected int) {
	if rv != nil {
		setChoices(rv.FormatSelect, labels, selected)
	}
}

func (rv *RootView) SetControls(controls []capture.ControlDescriptor) {
	if rv != nil && rv.Controls != nil {
		rv.Controls.SetControls(controls)
	}
}

// SetStreaming updates the toggle label and style. Without a connection the
// toggle and controls are disabled.
func (rv *RootView) SetStreaming(connected, streaming bool) {
	if rv == nil || rv.StreamButton == nil {
		return
	}
	label := "Start stream"
	if streaming {
		label = "Stop stream"
	}
	state := "normal"
	if !connected {
		state = "disabled"
	}
	rv.StreamButton.Configure(Txt(label), Style(theme.StreamButtonStyle(streaming)), State(state))
	if rv.FormatSelect != nil {
		if connected {
			rv.FormatSelect.Configure(State("readonly"))
		} else {
			rv.FormatSelect.Configure(State("disabled"))
		}
	}
	if rv.Controls != nil {
		rv.Controls.SetEditable(connected)
	}
}

// SetPreview shows img or the placeholder when img is nil.
func (rv *RootView) SetPreview(img *image.RGBA) {
	if rv == nil || rv.Preview == nil {
		return
	}
	if img == nil {
		rv.Preview.Reset()
		return
	}
	rv.Preview.Update(img)
}

func (rv *RootView) SetLog(entries []model.LogEntry) {
	if rv != nil && rv.Log != nil {
		rv.Log.SetEntries(entries)
	}
}

func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}
