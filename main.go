package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/soocke/pixel-cam-go/app"
	"github.com/soocke/pixel-cam-go/config"
	"github.com/soocke/pixel-cam-go/debug"
)

func main() {
	cfgPath := flag.String("config", "pixel-cam.json", "path to the JSON config file")
	deviceURI := flag.String("device", "", "device uri to open (screen:N, /dev/videoN or N)")
	flag.Parse()

	// Base config from defaults, overridden by the file when present
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}
	if *deviceURI != "" {
		cfg.Device = *deviceURI
	}

	// Set up logger
	logger := NewLogger(cfg.SlogLevel())

	if cfg.Debug {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		debug.StartGoroutineLogger(ctx, 10*time.Second, logger)
		debug.StartMemLogger(ctx, 10*time.Second, logger)
	}

	application := app.NewApp("Pixel Cam", 1280, 860, cfg, logger)
	application.Start()
}
