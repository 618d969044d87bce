// Command meshview connects a depth source, the fast-mesh triangulator
// and a live Tk window into one pipeline.
//
// Usage:
//
//	meshview [options] [device_id]
//
// Run with --help for the option list and connected-device diagnostics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/e7canasta/meshview/config"
	"github.com/e7canasta/meshview/grabber"
	"github.com/e7canasta/meshview/grabber/gstdepth"
	"github.com/e7canasta/meshview/grabber/synthetic"
	"github.com/e7canasta/meshview/mesh"
	"github.com/e7canasta/meshview/pipeline"
	"github.com/e7canasta/meshview/viewer/tkviewer"
)

const version = "v0.1.0"

func main() {
	// --help anywhere in argv prints the full diagnostics screen. Exit
	// code 1 so scripts never mistake the help screen for a clean run.
	for _, arg := range os.Args[1:] {
		if arg == "--help" || arg == "-h" {
			usage()
			os.Exit(1)
		}
	}

	cfg, deviceArg := parseFlags()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	deviceID, err := grabber.ParseDeviceID(deviceArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source, err := openSource(cfg, deviceID, logger)
	if err != nil {
		logger.Error("Failed to open capture source", "error", err)
		os.Exit(1)
	}

	// One-time capability probe decides the point type for the whole run.
	if source.ProvidesColor() {
		logger.Info("PointXYZRGB mode enabled")
	} else {
		logger.Info("PointXYZ mode enabled")
	}

	mesher := mesh.Reconstructor{
		MaxEdgeLength:     float32(cfg.MaxEdgeLength),
		TrianglePixelSize: cfg.TrianglePixelSize,
		Type:              cfg.TriangulationType(),
	}
	logger.Info("Triangulation configured",
		"type", mesher.Type,
		"max_edge_length", cfg.MaxEdgeLength,
		"triangle_pixel_size", cfg.TrianglePixelSize,
	)

	display := tkviewer.New(tkviewer.Config{
		Title:  "meshview " + version,
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
	})

	p := pipeline.New(source, display, mesher, pipeline.Config{
		Representation: cfg.DisplayRepresentation(),
		RateWindow:     cfg.RateWindow,
		Logger:         logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutdown signal received, stopping gracefully...")
		cancel()
		display.RequestClose()
	}()

	// The pipeline drives the collaborators from its own goroutine; the
	// Tk event loop owns the main goroutine until the window closes.
	errCh := make(chan error, 1)
	go func() {
		err := p.Run(ctx)
		errCh <- err
		// A pipeline that ends first (start failure, signal) must also
		// bring the window down.
		display.RequestClose()
	}()

	display.Run()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
	logger.Info("meshview stopped gracefully")
}

// parseFlags loads the optional config file, then lets explicitly set
// flags override it.
func parseFlags() (*config.Config, string) {
	configPath := flag.String("config", "", "JSON config file (optional)")
	sourceFlag := flag.String("source", "", "Capture source: synthetic or gstreamer")
	uriFlag := flag.String("uri", "", "Capture URI for the gstreamer source")
	widthFlag := flag.Int("width", 0, "Acquisition grid width")
	heightFlag := flag.Int("height", 0, "Acquisition grid height")
	fpsFlag := flag.Float64("fps", 0, "Acquisition frame rate")
	colorFlag := flag.Bool("color", false, "Enable the synthetic color plane")
	edgeFlag := flag.Float64("edge", -1, "Max triangle edge length in meters (0 = unbounded)")
	pixelFlag := flag.Int("pixel-size", 0, "Triangle pixel size (grid decimation step)")
	cutFlag := flag.String("triangulation", "", "Cut style: right, left, adaptive")
	repFlag := flag.String("rep", "", "Representation: wireframe, solid, points")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")

	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *sourceFlag
		case "uri":
			cfg.URI = *uriFlag
		case "width":
			cfg.Width = *widthFlag
		case "height":
			cfg.Height = *heightFlag
		case "fps":
			cfg.FPS = *fpsFlag
		case "color":
			cfg.Color = *colorFlag
		case "edge":
			cfg.MaxEdgeLength = *edgeFlag
		case "pixel-size":
			cfg.TrianglePixelSize = *pixelFlag
		case "triangulation":
			cfg.Triangulation = *cutFlag
		case "rep":
			cfg.Representation = *repFlag
		case "debug":
			cfg.Debug = *debugFlag
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: at most one device_id argument, got %d\n", flag.NArg())
		os.Exit(1)
	}
	return cfg, flag.Arg(0)
}

// openSource resolves the configured capture source. A device id that
// matches nothing fails here, before the pipeline starts.
func openSource(cfg *config.Config, id grabber.DeviceID, logger *slog.Logger) (grabber.Provider, error) {
	switch cfg.Source {
	case "gstreamer":
		if id.Kind != grabber.KindDefault {
			logger.Warn("device_id ignored, gstreamer source is addressed by uri")
		}
		return gstdepth.New(gstdepth.Config{
			URI:    cfg.URI,
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
		})
	default:
		return synthetic.Open(id, synthetic.Config{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.FPS,
			Color:  cfg.Color,
		})
	}
}

// usage prints the option summary plus connected-device diagnostics, the
// same screen --help shows.
func usage() {
	fmt.Fprintf(os.Stderr, `usage: meshview [options] [device_id]

Streams organized depth frames, triangulates each one with an organized
fast mesh, and shows the live surface in a window. Frames that arrive
while the viewer is busy are dropped, never queued.

options:
  -config path      JSON config file (flags override it)
  -source name      capture source: synthetic (default) or gstreamer
  -uri uri          capture uri for the gstreamer source
  -width n          acquisition grid width
  -height n         acquisition grid height
  -fps hz           acquisition frame rate
  -color            enable the synthetic color plane
  -edge meters      max triangle edge length, 0 disables the cut
  -pixel-size n     triangle pixel size (grid decimation step)
  -triangulation s  cut style: right, left, adaptive (default)
  -rep mode         wireframe (default), solid, points
  -debug            debug logging

device_id may be:
  #1, #2, ...       index in the device list below
  bus@address       usb bus/address pair, decimal
  <serial>          device serial number
  (nothing)         first available device

`)

	devices := synthetic.Enumerate()
	if len(devices) == 0 {
		fmt.Fprintln(os.Stderr, "No devices connected.")
		return
	}
	fmt.Fprintln(os.Stderr, "Device list:")
	for _, d := range devices {
		fmt.Fprintf(os.Stderr, "  %s\n", d)
	}
}
