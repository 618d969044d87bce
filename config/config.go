// Package config holds the runtime configuration for the meshview
// pipeline. Fields may be loaded from a JSON file and overridden by
// command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/e7canasta/meshview/mesh"
	"github.com/e7canasta/meshview/viewer"
)

// Config is the full runtime configuration.
type Config struct {
	// Source selection.
	Source string `json:"source"` // "synthetic" or "gstreamer"
	URI    string `json:"uri"`    // capture uri for the gstreamer source

	// Acquisition grid and rate.
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	Color  bool    `json:"color"` // synthetic source only

	// Triangulation parameters.
	MaxEdgeLength     float64 `json:"max_edge_length"`
	TrianglePixelSize int     `json:"triangle_pixel_size"`
	Triangulation     string  `json:"triangulation"` // "right", "left", "adaptive"

	// Display.
	Representation string `json:"representation"` // "wireframe", "solid", "points"
	WindowWidth    int    `json:"window_width"`
	WindowHeight   int    `json:"window_height"`

	// RateWindow is the moving-window size for the frame-rate monitors.
	RateWindow int `json:"rate_window"`

	Debug bool `json:"debug"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Source:            "synthetic",
		Width:             320,
		Height:            240,
		FPS:               30,
		MaxEdgeLength:     0,
		TrianglePixelSize: 1,
		Triangulation:     "adaptive",
		Representation:    "wireframe",
		WindowWidth:       960,
		WindowHeight:      720,
		RateWindow:        100,
	}
}

// Validate clamps/normalizes values to safe ranges and rejects the few
// fields that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Source {
	case "", "synthetic":
		c.Source = "synthetic"
	case "gstreamer":
		if c.URI == "" {
			return fmt.Errorf("config: gstreamer source needs a uri")
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}

	if c.Width < 2 {
		c.Width = 320
	}
	if c.Height < 2 {
		c.Height = 240
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.MaxEdgeLength < 0 {
		c.MaxEdgeLength = 0
	}
	if c.TrianglePixelSize < 1 {
		c.TrianglePixelSize = 1
	}
	switch c.Triangulation {
	case "":
		c.Triangulation = "adaptive"
	case "right", "left", "adaptive":
	default:
		return fmt.Errorf("config: unknown triangulation %q", c.Triangulation)
	}
	switch c.Representation {
	case "":
		c.Representation = "wireframe"
	case "wireframe", "solid", "points":
	default:
		return fmt.Errorf("config: unknown representation %q", c.Representation)
	}
	if c.WindowWidth < 100 {
		c.WindowWidth = 960
	}
	if c.WindowHeight < 100 {
		c.WindowHeight = 720
	}
	if c.RateWindow < 1 {
		c.RateWindow = 100
	}
	return nil
}

// TriangulationType maps the config spelling to the mesh enum.
// Call after Validate.
func (c *Config) TriangulationType() mesh.TriangulationType {
	switch c.Triangulation {
	case "right":
		return mesh.TriangleRightCut
	case "left":
		return mesh.TriangleLeftCut
	default:
		return mesh.TriangleAdaptiveCut
	}
}

// DisplayRepresentation maps the config spelling to the viewer enum.
// Call after Validate.
func (c *Config) DisplayRepresentation() viewer.Representation {
	switch c.Representation {
	case "solid":
		return viewer.Solid
	case "points":
		return viewer.PointsOnly
	default:
		return viewer.Wireframe
	}
}

// Load attempts to read configuration from the given JSON file path. If
// the file does not exist it returns DefaultConfig(). On JSON or
// validation error it returns what it read along with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
