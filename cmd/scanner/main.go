// go-scan - live camera barcode scanner with a web dashboard
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-scan/internal/config"
	scanlog "github.com/teslashibe/go-scan/internal/log"
	"github.com/teslashibe/go-scan/pkg/app"
	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
)

func main() {
	cfg := parseFlags()
	scanlog.Init(cfg.LogLevel)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		log.Fatalf("❌ Initialization failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = a.Run(ctx)
	cancel()
	a.Shutdown()
	if err != nil {
		// log.Fatalf skips defers, so everything is closed above
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables supply the defaults; flags override them.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every decode attempt")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	port := flag.String("port", config.Port(), "Dashboard port (SCAN_PORT)")
	device := flag.Int("device", config.DeviceID(), "Camera index, -1 picks the first back-facing camera (SCAN_DEVICE)")
	display := flag.String("display", "", "Screen size WIDTHxHEIGHT (SCAN_DISPLAY)")
	preset := flag.String("preset", camera.PresetDefault, "Camera preset: "+joinPresets())
	historyPath := flag.String("history", config.HistoryPath(), "Scan history file, empty to disable (SCAN_HISTORY)")
	formats := flag.String("formats", "", "Comma-separated formats, e.g. QR_CODE,EAN_13 (default: preferred groups)")
	aztec := flag.Bool("aztec", false, "Also decode Aztec codes")
	charset := flag.String("charset", "", "Character set hint for decoders")
	autoResume := flag.Duration("auto-resume", 0, "Resume scanning this long after a result (0 waits for the dashboard)")
	mock := flag.Bool("mock", false, "Use a synthetic camera and decoder")
	mockEvery := flag.Int("mock-every", cfg.MockEvery, "Mock decoder finds a code every N attempts")
	flag.Parse()

	cfg.Debug, cfg.DebugFrames = *debug, *debugFrames
	cfg.LogLevel = *logLevel
	if *debug {
		cfg.LogLevel = "debug"
	}
	cfg.Port, cfg.HistoryPath = *port, *historyPath
	cfg.CharacterSet = *charset
	cfg.AutoResume = *autoResume
	cfg.Mock, cfg.MockEvery = *mock, *mockEvery
	cfg.FormatPrefs.Aztec = *aztec

	preferred := camera.GetPreset(*preset)
	if preferred == nil {
		log.Fatalf("❌ Unknown preset %q (available: %s)", *preset, joinPresets())
	}
	cfg.Camera = *preferred
	cfg.Camera.Device = *device

	// The display flag beats the environment, which beats the preset
	size := *display
	if size == "" {
		size = config.DisplayOverride()
	}
	if size != "" {
		w, h, err := config.ParseSize(size)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg.Camera.DisplayWidth, cfg.Camera.DisplayHeight = w, h
	}

	if *formats != "" {
		set, err := decode.ParseFormats(*formats)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg.Formats = set
	}
	return cfg
}

func joinPresets() string {
	return strings.Join(camera.PresetNames(), ", ")
}
