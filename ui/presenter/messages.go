package presenter

import (
	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
	"github.com/soocke/pixel-cam-go/ui/model"
)

// Msg is a UI message handled by Update. The set of variants is closed.
type Msg interface{ msg() }

// MsgEnumDevices rescans devices and selects one if nothing is selected.
type MsgEnumDevices struct{}

// MsgDeviceSelected connects to URI, closing any previous connection.
type MsgDeviceSelected struct{ URI string }

type MsgFormatSelected struct{ Format device.Format }

type MsgControlChanged struct{ Control capture.ControlDescriptor }

type MsgToggleStream struct{}

type MsgLog struct {
	Level model.LogLevel
	Text  string
}

type MsgLogFilter struct{ Level model.LogLevel }

type MsgConnectionEvent struct{ Event capture.Event }

// MsgConnectionClosed is sent when the event stream ended.
type MsgConnectionClosed struct{}

func (MsgEnumDevices) msg()      {}
func (MsgDeviceSelected) msg()   {}
func (MsgFormatSelected) msg()   {}
func (MsgControlChanged) msg()   {}
func (MsgToggleStream) msg()     {}
func (MsgLog) msg()              {}
func (MsgLogFilter) msg()        {}
func (MsgConnectionEvent) msg()  {}
func (MsgConnectionClosed) msg() {}

func logInfo(format string, args ...any) Msg  { return newLog(model.LogInfo, format, args...) }
func logWarn(format string, args ...any) Msg  { return newLog(model.LogWarn, format, args...) }
func logError(format string, args ...any) Msg { return newLog(model.LogError, format, args...) }
func logVerbose(format string, args ...any) Msg {
	return newLog(model.LogVerbose, format, args...)
}
