package app

import (
	"fmt"
	"log/slog"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/pixel-cam-go/config"
	"github.com/soocke/pixel-cam-go/ui/theme"
)

const shutdownTimeout = 2 * time.Second

type app struct {
	title     string
	width     int
	height    int
	tick      time.Duration
	afterID   string
	container *AppContainer
	logger    *slog.Logger
	exiting   bool
}

func NewApp(title string, width, height int, cfg *config.Config, logger *slog.Logger) *app {
	a := &app{
		title:     title,
		width:     width,
		height:    height,
		tick:      time.Duration(cfg.TickMs) * time.Millisecond,
		container: BuildContainer(cfg, logger),
		logger:    logger,
	}

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

func (a *app) Start() {
	c := a.container
	theme.SetDark(c.Config.DarkMode)
	c.RootView.Build(c.Handlers(a.exitHandler))

	c.Loop.Schedule = a.scheduleUpdate
	c.Watcher.Start()
	c.Dispatcher.Dispatch(c.InitialMessages()...)
	a.logger.Info("viewer started", "device", c.Config.Device, "auto_start", c.Config.AutoStart)

	// Kick off update loop.
	c.Loop.Tick()

	App.Wait()
}

func (a *app) exitHandler() {
	if a.exiting {
		return
	}
	a.exiting = true
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.container.Shutdown(shutdownTimeout)
	a.logger.Info("viewer stopped")
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	if a.exiting {
		return
	}
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(a.tick, func() { a.container.Loop.Tick() })
}
