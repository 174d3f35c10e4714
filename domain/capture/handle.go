package capture

import (
	"log/slog"
	"sync"

	"github.com/soocke/pixel-cam-go/domain/device"
)

// Handle is the UI side of a connection. Every method enqueues a Command and
// returns immediately; results arrive as CommandResult events. A Handle never
// exposes the device. Methods are safe on a nil Handle.
type Handle struct {
	id     string
	cmds   *queue[Command]
	logger *slog.Logger
	once   sync.Once
}

func newHandle(id string, cmds *queue[Command], logger *slog.Logger) *Handle {
	return &Handle{id: id, cmds: cmds, logger: logger}
}

// ID is the connection id used in log records.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

func (h *Handle) send(c Command) {
	if h == nil {
		return
	}
	if err := h.cmds.push(c); err != nil {
		// The worker is gone; its Disconnected or Error is already queued.
		h.logger.Debug("capture.send dropped", "conn", h.id, "cmd", c.Kind().String(), "error", err)
	}
}

func (h *Handle) StartStream()                   { h.send(StartStream{}) }
func (h *Handle) StopStream()                    { h.send(StopStream{}) }
func (h *Handle) QueryFormats()                  { h.send(QueryFormats{}) }
func (h *Handle) QueryControls()                 { h.send(QueryControls{}) }
func (h *Handle) GetFormat()                     { h.send(GetFormat{}) }
func (h *Handle) SetFormat(f device.Format)      { h.send(SetFormat{Format: f}) }
func (h *Handle) SetControl(c ControlDescriptor) { h.send(SetControl{Control: c}) }

// Close enqueues StopStream and then closes the command queue. The worker
// answers the StopStream, emits Disconnected and releases the device.
// Further calls are no-ops.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.send(StopStream{})
		h.cmds.close()
	})
}
