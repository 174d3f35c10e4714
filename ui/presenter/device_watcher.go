package presenter

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-cam-go/domain/device"
)

const defaultWatchInterval = 2 * time.Second

// DeviceWatcher polls device discovery in the background and signals when the
// set of URIs changes, e.g. a webcam was plugged in. It never touches State;
// the Loop turns a signal into MsgEnumDevices on the Tk goroutine.
type DeviceWatcher struct {
	Discover func(ctx context.Context) ([]device.Info, error)
	Logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
	done     chan struct{}
	changed  chan struct{}
}

// NewDeviceWatcher constructs a watcher. interval <= 0 selects the default.
func NewDeviceWatcher(discover func(ctx context.Context) ([]device.Info, error), logger *slog.Logger, interval time.Duration) *DeviceWatcher {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	return &DeviceWatcher{Discover: discover, Logger: logger, interval: interval, changed: make(chan struct{}, 1)}
}

// Start begins polling. The first poll only records the baseline.
func (w *DeviceWatcher) Start() {
	if w == nil || w.Discover == nil || w.running.Load() {
		return
	}
	w.done = make(chan struct{})
	w.running.Store(true)
	go w.loop(w.done)
}

func (w *DeviceWatcher) Stop() {
	if w == nil || !w.running.Load() {
		return
	}
	close(w.done)
	w.running.Store(false)
}

// Changed receives a value after the device set changed. Signals coalesce.
func (w *DeviceWatcher) Changed() <-chan struct{} {
	if w == nil {
		return nil
	}
	return w.changed
}

func (w *DeviceWatcher) loop(done chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	last, _ := w.poll()
	for {
		select {
		case <-ticker.C:
			uris, ok := w.poll()
			if !ok || slices.Equal(uris, last) {
				continue
			}
			last = uris
			if w.Logger != nil {
				w.Logger.Debug("device set changed", "devices", len(uris))
			}
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case <-done:
			return
		}
	}
}

func (w *DeviceWatcher) poll() ([]string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()
	devices, err := w.Discover(ctx)
	if err != nil {
		if w.Logger != nil {
			w.Logger.Debug("device watch failed", "error", err)
		}
		return nil, false
	}
	uris := make([]string, len(devices))
	for i, d := range devices {
		uris[i] = d.URI
	}
	return uris, true
}
