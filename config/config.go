package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/field"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type Particles struct {
	Count  int     `yaml:"count"`
	Extent float32 `yaml:"extent"`
	// Seed 0 draws from the wall clock.
	Seed int64 `yaml:"seed"`

	LoadSnapshot string `yaml:"load_snapshot,omitempty"`
	SaveSnapshot string `yaml:"save_snapshot,omitempty"`
}

type Material struct {
	Size            float32 `yaml:"size"`
	SizeAttenuation bool    `yaml:"size_attenuation"`
	Color           string  `yaml:"color"`
	Opacity         float32 `yaml:"opacity"`
	Transparent     bool    `yaml:"transparent"`
	AlphaMap        string  `yaml:"alpha_map"`
	Map             string  `yaml:"map,omitempty"`
	AlphaTest       float32 `yaml:"alpha_test"`
	DepthTest       bool    `yaml:"depth_test"`
	DepthWrite      bool    `yaml:"depth_write"`
	Blending        string  `yaml:"blending"`
	VertexColors    bool    `yaml:"vertex_colors"`
}

type Camera struct {
	Fov      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
}

type Controls struct {
	EnableDamping bool    `yaml:"enable_damping"`
	DampingFactor float32 `yaml:"damping_factor"`
	RotateSpeed   float32 `yaml:"rotate_speed"`
	ZoomSpeed     float32 `yaml:"zoom_speed"`
	PanSpeed      float32 `yaml:"pan_speed"`
}

type Renderer struct {
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
	ClearColor    string  `yaml:"clear_color"`
}

type Config struct {
	Window    Window    `yaml:"window"`
	Particles Particles `yaml:"particles"`
	Material  Material  `yaml:"material"`
	Camera    Camera    `yaml:"camera"`
	Controls  Controls  `yaml:"controls"`
	Renderer  Renderer  `yaml:"renderer"`
	Debug     bool      `yaml:"debug"`
}

// Default returns the stock particle field scene.
func Default() Config {
	return Config{
		Window: Window{
			Width:  1280,
			Height: 720,
			Title:  "Particle Field",
		},
		Particles: Particles{
			Count:  field.DefaultCount,
			Extent: field.DefaultExtent,
		},
		Material: Material{
			Size:            0.1,
			SizeAttenuation: true,
			Color:           "#ff88cc",
			Opacity:         1,
			Transparent:     true,
			AlphaMap:        "textures/particles/2.png",
			AlphaTest:       0,
			DepthTest:       true,
			DepthWrite:      false,
			Blending:        core.AdditiveBlending.String(),
			VertexColors:    true,
		},
		Camera: Camera{
			Fov:      75,
			Near:     0.1,
			Far:      100,
			Position: [3]float32{0, 0, 3},
		},
		Controls: Controls{
			EnableDamping: true,
			DampingFactor: 0.05,
			RotateSpeed:   1,
			ZoomSpeed:     1,
			PanSpeed:      1,
		},
		Renderer: Renderer{
			MaxPixelRatio: core.DefaultMaxPixelRatio,
			ClearColor:    "#000000",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Particles.Count < 0 {
		return invalid("particle count %d", c.Particles.Count)
	}
	if c.Particles.Extent < 0 {
		return invalid("particle extent %v", c.Particles.Extent)
	}
	if c.Material.Size <= 0 {
		return invalid("material size %v", c.Material.Size)
	}
	if c.Material.Opacity < 0 || c.Material.Opacity > 1 {
		return invalid("material opacity %v", c.Material.Opacity)
	}
	if _, err := core.ParseBlending(c.Material.Blending); err != nil {
		return invalid("material: %v", err)
	}
	if _, err := colorful.Hex(c.Material.Color); err != nil {
		return invalid("material color %q", c.Material.Color)
	}
	if _, err := colorful.Hex(c.Renderer.ClearColor); err != nil {
		return invalid("clear color %q", c.Renderer.ClearColor)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return invalid("camera fov %v", c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return invalid("camera clip %v..%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Controls.DampingFactor < 0 || c.Controls.DampingFactor > 1 {
		return invalid("damping factor %v", c.Controls.DampingFactor)
	}
	if c.Renderer.MaxPixelRatio <= 0 {
		return invalid("max pixel ratio %v", c.Renderer.MaxPixelRatio)
	}
	return nil
}

// PointsMaterial builds the render material. Texture paths are resolved by
// the caller, which passes the resulting ids.
func (m Material) PointsMaterial(colorMap, alphaMap core.TextureID) (core.PointsMaterial, error) {
	blending, err := core.ParseBlending(m.Blending)
	if err != nil {
		return core.PointsMaterial{}, invalid("material: %v", err)
	}
	tint, err := HexColor(m.Color)
	if err != nil {
		return core.PointsMaterial{}, err
	}

	mat := core.NewPointsMaterial()
	mat.Size = m.Size
	mat.SizeAttenuation = m.SizeAttenuation
	mat.Color = tint
	mat.Opacity = m.Opacity
	mat.Map = colorMap
	mat.AlphaMap = alphaMap
	mat.Transparent = m.Transparent
	mat.AlphaTest = m.AlphaTest
	mat.DepthTest = m.DepthTest
	mat.DepthWrite = m.DepthWrite
	mat.Blending = blending
	mat.VertexColors = m.VertexColors
	return mat, nil
}

// HexColor parses "#rrggbb" into sRGB components in 0..1, unconverted.
func HexColor(s string) ([3]float32, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return [3]float32{}, invalid("color %q", s)
	}
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// LinearHexColor parses "#rrggbb" and decodes it to linear RGB, the space an
// sRGB render target expects shader outputs and clear values in.
func LinearHexColor(s string) ([3]float32, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return [3]float32{}, invalid("color %q", s)
	}
	r, g, b := c.LinearRgb()
	return [3]float32{float32(r), float32(g), float32(b)}, nil
}
