package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/pixel-cam-go/config"
	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/domain/device"
	"github.com/soocke/pixel-cam-go/ui/model"
	"github.com/soocke/pixel-cam-go/ui/presenter"
	"github.com/soocke/pixel-cam-go/ui/view"
)

// AppContainer assembles models, device access, presenters and the root view.
type AppContainer struct {
	Config  *config.Config
	Logger  *slog.Logger
	Opener  device.Opener
	Conn    *model.ConnectionModel
	Log     *model.LogModel
	Devices *model.DeviceListModel
	Session *model.SessionModel
	State   *presenter.State

	RootView *view.RootView

	// Presenters
	Dispatcher       *presenter.Dispatcher
	SessionPresenter *presenter.SessionPresenter
	Watcher          *presenter.DeviceWatcher
	Loop             *presenter.Loop

	// ctx outlives every connection; cancelling it stops all workers.
	ctx    context.Context
	cancel context.CancelFunc
}

// BuildContainer constructs all components. Nothing touches a device until
// the first message is dispatched.
func BuildContainer(cfg *config.Config, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.Opener = device.DefaultOpener{ScreenFPS: cfg.ScreenFPS}
	c.Conn = &model.ConnectionModel{}
	c.Log = model.NewLogModel(cfg.LogCapacity, model.ParseLogLevel(cfg.LogLevelFilter))
	c.Devices = &model.DeviceListModel{}
	c.Session = model.NewSessionModel()

	c.State = presenter.NewState(c.Conn, c.Log, c.Devices, logger)
	c.State.AutoStart = cfg.AutoStart
	c.State.Discover = device.Discover
	c.State.Connect = func(uri string) presenter.EventSource {
		return capture.Connect(c.ctx, logger, c.Opener, uri)
	}
	c.Dispatcher = presenter.NewDispatcher(c.State)

	// View
	c.RootView = view.NewRootView(cfg, logger)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.Conn, c.RootView)
	if cfg.WatchMs > 0 {
		c.Watcher = presenter.NewDeviceWatcher(device.Discover, logger, time.Duration(cfg.WatchMs)*time.Millisecond)
	}
	// Loop scheduling is attached by the app once Tk is running.
	c.Loop = presenter.NewLoop(c.Dispatcher, c.State, c.RootView, c.SessionPresenter, nil)
	c.Loop.Watcher = c.Watcher
	return c
}

// InitialMessages connects to the configured device, or to the first
// discovered one when none is configured.
func (c *AppContainer) InitialMessages() []presenter.Msg {
	if c.Config.Device != "" {
		return []presenter.Msg{presenter.MsgDeviceSelected{URI: c.Config.Device}, presenter.MsgEnumDevices{}}
	}
	return []presenter.Msg{presenter.MsgEnumDevices{}}
}

// Handlers maps view callbacks to dispatched messages.
func (c *AppContainer) Handlers(onExit func()) view.Handlers {
	dispatch := func(m presenter.Msg) {
		if m != nil {
			c.Dispatcher.Dispatch(m)
		}
	}
	return view.Handlers{
		OnRefresh:        func() { dispatch(presenter.MsgEnumDevices{}) },
		OnDeviceSelected: func(i int) { dispatch(presenter.SelectDeviceAt(c.State, i)) },
		OnFormatSelected: func(i int) { dispatch(presenter.SelectFormatAt(c.State, i)) },
		OnToggleStream:   func() { dispatch(presenter.MsgToggleStream{}) },
		OnControl:        func(i int, text string) { dispatch(presenter.ApplyControlAt(c.State, i, text)) },
		OnLogFilter:      func(l model.LogLevel) { dispatch(presenter.MsgLogFilter{Level: l}) },
		OnExit:           onExit,
	}
}

// Shutdown stops background work and waits briefly for the worker to release
// the device.
func (c *AppContainer) Shutdown(timeout time.Duration) {
	if c == nil {
		return
	}
	c.Watcher.Stop()
	c.State.Shutdown(timeout)
	c.cancel()
}
