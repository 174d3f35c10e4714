package capture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const statsLogInterval = 5 * time.Second

// Stats summarises worker behaviour for instrumentation.
type Stats struct {
	Frames      uint64
	FrameErrors uint64
	Commands    uint64
	Bytes       uint64
	AvgFrame    time.Duration
	LastFrame   time.Time
	Sequence    uint64
	Uptime      time.Duration
}

type workerStats struct {
	started     time.Time
	frames      atomic.Uint64
	frameErrors atomic.Uint64
	commands    atomic.Uint64
	bytes       atomic.Uint64
	frameNanos  atomic.Uint64
	lastFrame   atomic.Int64
	sequence    atomic.Uint64
}

func (s *workerStats) frame(seq uint64, size int, took time.Duration, at time.Time) {
	s.frames.Add(1)
	s.bytes.Add(uint64(size))
	s.frameNanos.Add(uint64(took.Nanoseconds()))
	s.lastFrame.Store(at.UnixNano())
	s.sequence.Store(seq)
}

func (s *workerStats) snapshot() Stats {
	frames := s.frames.Load()
	var avg time.Duration
	if frames > 0 {
		avg = time.Duration(s.frameNanos.Load() / frames)
	}
	var last time.Time
	if n := s.lastFrame.Load(); n != 0 {
		last = time.Unix(0, n)
	}
	var up time.Duration
	if !s.started.IsZero() {
		up = time.Since(s.started)
	}
	return Stats{
		Frames:      frames,
		FrameErrors: s.frameErrors.Load(),
		Commands:    s.commands.Load(),
		Bytes:       s.bytes.Load(),
		AvgFrame:    avg,
		LastFrame:   last,
		Sequence:    s.sequence.Load(),
		Uptime:      up,
	}
}

// Throughput is the average decoded bytes per second, humanized.
func (s Stats) Throughput() string {
	if s.Uptime <= 0 {
		return "0 B/s"
	}
	return humanize.Bytes(uint64(float64(s.Bytes)/s.Uptime.Seconds())) + "/s"
}

func logStats(logger *slog.Logger, s Stats) {
	logger.Debug("capture.stats",
		"frames", humanize.Comma(int64(s.Frames)),
		"frame_errors", s.FrameErrors,
		"commands", s.Commands,
		"bytes", humanize.Bytes(s.Bytes),
		"throughput", s.Throughput(),
		"avg_frame", s.AvgFrame,
		"seq", s.Sequence,
	)
}
