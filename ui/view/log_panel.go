package view

import (
	"strconv"
	"strings"

	"github.com/soocke/pixel-cam-go/ui/model"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// LogPanel shows the UI log and a level filter.
type LogPanel interface {
	SetEntries(entries []model.LogEntry)
}

type logPanel struct {
	text   *TextWidget
	filter *TComboboxWidget
}

// NewLogPanel grids the filter combobox and the log text at row. onFilter
// receives the selected level.
func NewLogPanel(row int, filter model.LogLevel, onFilter func(model.LogLevel)) LogPanel {
	p := &logPanel{}
	frame := Frame()
	Grid(frame, Row(row), Column(0), Columnspan(2), Sticky("nswe"), Padx("0.4m"), Pady("0.3m"))
	GridColumnConfigure(frame, 1, Weight(1))

	levels := model.LogLevels
	labels := make([]string, len(levels))
	for i, l := range levels {
		labels[i] = l.String()
	}
	Grid(frame.Label(Txt("Log level"), Anchor("w")), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	p.filter = frame.TCombobox(Values(labels), Width(10), State("readonly"))
	Grid(p.filter, Row(0), Column(1), Sticky("w"), Padx("0.2m"), Pady("0.2m"))
	p.filter.Current(int(filter))
	Bind(p.filter, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(p.filter.Current(nil))
		if err == nil && idx >= 0 && idx < len(levels) && onFilter != nil {
			onFilter(levels[idx])
		}
	}))

	p.text = frame.Text(Height(8), Width(100), State("disabled"))
	Grid(p.text, Row(1), Column(0), Columnspan(2), Sticky("nswe"), Padx("0.2m"), Pady("0.2m"))
	return p
}

// SetEntries replaces the log text, newest line first so it stays in view.
func (p *logPanel) SetEntries(entries []model.LogEntry) {
	if p.text == nil {
		return
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[len(entries)-1-i] = e.String()
	}
	p.text.Configure(State("normal"))
	p.text.Delete("1.0", END)
	p.text.Insert("1.0", strings.Join(lines, "\n"))
	p.text.Configure(State("disabled"))
}
