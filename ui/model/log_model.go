package model

import (
	"fmt"
	"strings"
	"time"
)

// LogLevel orders log entries by severity; lower is more severe.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogVerbose
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogInfo:
		return "info"
	case LogVerbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// ParseLogLevel accepts the String forms; unknown names map to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogError
	case "warn", "warning":
		return LogWarn
	case "verbose", "debug":
		return LogVerbose
	}
	return LogInfo
}

// LogLevels lists levels in display order.
var LogLevels = []LogLevel{LogError, LogWarn, LogInfo, LogVerbose}

// LogEntry is one line in the UI log.
type LogEntry struct {
	At    time.Time
	Level LogLevel
	Text  string
}

func (e LogEntry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.At.Format("15:04:05"), e.Level, e.Text)
}

// LogModel is a bounded ring of entries plus a display filter. Entries above
// the filter level are kept but not shown.
type LogModel struct {
	entries []LogEntry
	start   int
	count   int
	filter  LogLevel
}

func NewLogModel(capacity int, filter LogLevel) *LogModel {
	if capacity < 1 {
		capacity = 1
	}
	return &LogModel{entries: make([]LogEntry, capacity), filter: filter}
}

// Append adds an entry, evicting the oldest when full.
func (m *LogModel) Append(level LogLevel, text string, at time.Time) {
	if m == nil {
		return
	}
	idx := (m.start + m.count) % len(m.entries)
	m.entries[idx] = LogEntry{At: at, Level: level, Text: text}
	if m.count < len(m.entries) {
		m.count++
		return
	}
	m.start = (m.start + 1) % len(m.entries)
}

func (m *LogModel) SetFilter(l LogLevel) {
	if m != nil {
		m.filter = l
	}
}

func (m *LogModel) Filter() LogLevel {
	if m == nil {
		return LogInfo
	}
	return m.filter
}

// Visible returns entries at or below the filter level, oldest first.
func (m *LogModel) Visible() []LogEntry {
	if m == nil {
		return nil
	}
	out := make([]LogEntry, 0, m.count)
	for i := 0; i < m.count; i++ {
		e := m.entries[(m.start+i)%len(m.entries)]
		if e.Level <= m.filter {
			out = append(out, e)
		}
	}
	return out
}

// Len is the number of retained entries regardless of filter.
func (m *LogModel) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}
