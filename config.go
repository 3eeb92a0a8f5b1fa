package swarm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout kinds understood by LayoutConfig.Kind.
const (
	LayoutGrid    = "grid"
	LayoutSquare  = "square"
	LayoutCube    = "cube"
	LayoutOutline = "outline"
	LayoutFixed   = "fixed"
)

// Shape names understood by Config.Shape.
const (
	ShapeQuad     = "quad"
	ShapePentagon = "pentagon"
)

type WindowConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	Resizable bool   `yaml:"resizable"`
}

type ShaderConfig struct {
	// Path of a WGSL file. Empty selects the embedded default shader.
	Path      string `yaml:"path"`
	HotReload bool   `yaml:"hot_reload"`
}

type LayoutConfig struct {
	Kind    string     `yaml:"kind"`
	Grid    [2]uint32  `yaml:"grid"`
	Cube    [3]uint32  `yaml:"cube"`
	Spacing float32    `yaml:"spacing"`
	Screen  [2]float32 `yaml:"screen"`
	Offset  [3]float32 `yaml:"offset"`
	Colored bool       `yaml:"colored"`

	// Cube jitter; zero disables it.
	Wiggle float32 `yaml:"wiggle"`
	Seed   uint64  `yaml:"seed"`

	// Outline rectangle.
	Rect   [2]float32 `yaml:"rect"`
	Radius float32    `yaml:"radius"`

	// Fixed-length placeholder set.
	Count int        `yaml:"count"`
	Color [3]float32 `yaml:"color"`
}

type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	Fovy   float32    `yaml:"fovy"`
	ZNear  float32    `yaml:"znear"`
	ZFar   float32    `yaml:"zfar"`
}

// Config holds the start-time constants of a run. Nothing in it can be
// changed once the render state exists.
type Config struct {
	Window       WindowConfig `yaml:"window"`
	Shader       ShaderConfig `yaml:"shader"`
	Shape        string       `yaml:"shape"`
	ParticleSize float32      `yaml:"particle_size"`
	Layout       LayoutConfig `yaml:"layout"`
	Camera       CameraConfig `yaml:"camera"`
	HUD          bool         `yaml:"hud"`
	Debug        bool         `yaml:"debug"`
	Animate      bool         `yaml:"animate"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    720,
			Title:     "swarm",
			Resizable: true,
		},
		Shape:        ShapeQuad,
		ParticleSize: 0.08,
		Layout: LayoutConfig{
			Kind:    LayoutCube,
			Grid:    [2]uint32{20, 20},
			Cube:    [3]uint32{20, 20, 20},
			Spacing: 0.1,
			Screen:  [2]float32{2, 2},
			Offset:  [3]float32{-1, -1, -2},
			Colored: true,
			Seed:    1,
			Rect:    [2]float32{2, 1},
			Radius:  0.04,
			Count:   16,
			Color:   [3]float32{1, 1, 1},
		},
		Camera: CameraConfig{
			Eye:   [3]float32{-4, 2, 2},
			Fovy:  45,
			ZNear: 0.1,
			ZFar:  100,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := ParseConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML into cfg and validates the result.
func ParseConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	switch c.Shape {
	case ShapeQuad, ShapePentagon:
	default:
		errs = append(errs, fmt.Errorf("unknown shape %q", c.Shape))
	}
	if c.ParticleSize <= 0 {
		errs = append(errs, fmt.Errorf("particle_size must be positive, got %v", c.ParticleSize))
	}
	switch c.Layout.Kind {
	case LayoutGrid, LayoutSquare:
		if c.Layout.Grid[0] == 0 || c.Layout.Grid[1] == 0 {
			errs = append(errs, errors.New("layout.grid dimensions must be non-zero"))
		}
	case LayoutCube:
		if c.Layout.Cube[0] == 0 || c.Layout.Cube[1] == 0 || c.Layout.Cube[2] == 0 {
			errs = append(errs, errors.New("layout.cube dimensions must be non-zero"))
		}
	case LayoutOutline:
		if c.Layout.Radius <= 0 || c.Layout.Rect[0] <= 0 || c.Layout.Rect[1] <= 0 {
			errs = append(errs, errors.New("layout.rect and layout.radius must be positive"))
		}
	case LayoutFixed:
		if c.Layout.Count <= 0 {
			errs = append(errs, errors.New("layout.count must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown layout kind %q", c.Layout.Kind))
	}
	if c.Camera.Fovy <= 0 || c.Camera.Fovy >= 180 {
		errs = append(errs, fmt.Errorf("camera.fovy %v out of range (0, 180)", c.Camera.Fovy))
	}
	if c.Camera.ZNear <= 0 || c.Camera.ZNear >= c.Camera.ZFar {
		errs = append(errs, fmt.Errorf("camera planes znear=%v zfar=%v invalid", c.Camera.ZNear, c.Camera.ZFar))
	}
	return errors.Join(errs...)
}
