package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefield/assets"
	"github.com/gekko3d/particlefield/config"
	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/field"
	"github.com/gekko3d/particlefield/logging"
	"github.com/go-gl/mathgl/mgl32"
)

// BuildField loads the configured snapshot or generates a fresh field, and
// saves it when a snapshot path is set.
func BuildField(p config.Particles, log logging.Logger) (field.ParticleSet, error) {
	log = logging.OrNop(log)

	var (
		set field.ParticleSet
		err error
	)
	if p.LoadSnapshot != "" {
		set, err = field.LoadSnapshot(p.LoadSnapshot)
		if err != nil {
			return set, err
		}
		log.Infof("Loaded %d particles from %s", set.Count, p.LoadSnapshot)
	} else {
		set, err = field.Generate(p.Count, p.Extent, field.NewSource(p.Seed))
		if err != nil {
			return set, err
		}
		log.Infof("Generated %d particles (extent %.2f, seed %d)", set.Count, set.Extent, p.Seed)
	}

	if p.SaveSnapshot != "" {
		if err := field.SaveSnapshot(p.SaveSnapshot, set); err != nil {
			return set, err
		}
		log.Infof("Saved field snapshot to %s", p.SaveSnapshot)
	}
	return set, nil
}

// LoadTextures resolves the material's texture paths. The alpha map always
// resolves (falling back to a procedural sprite); a missing color map is
// logged and left unset.
func LoadTextures(server *assets.TextureServer, m config.Material, log logging.Logger) (colorMap, alphaMap core.TextureID) {
	log = logging.OrNop(log)
	alphaMap = server.LoadOrSprite(m.AlphaMap, log)
	if m.Map != "" {
		id, err := server.LoadTexture(m.Map)
		if err != nil {
			log.Warnf("Color map unavailable: %v", err)
		} else {
			colorMap = id
		}
	}
	return colorMap, alphaMap
}

// BuildMaterial resolves textures and converts the material settings. With
// linear set the tint is decoded from sRGB for an sRGB render target.
func BuildMaterial(server *assets.TextureServer, m config.Material, linear bool, log logging.Logger) (core.PointsMaterial, error) {
	colorMap, alphaMap := LoadTextures(server, m, log)
	mat, err := m.PointsMaterial(colorMap, alphaMap)
	if err != nil {
		return mat, fmt.Errorf("material: %w", err)
	}
	if linear {
		if mat.Color, err = config.LinearHexColor(m.Color); err != nil {
			return mat, fmt.Errorf("material: %w", err)
		}
	}
	return mat, nil
}

// ClearColor parses the background color, linearized for sRGB targets.
func ClearColor(hex string, linear bool) (wgpu.Color, error) {
	parse := config.HexColor
	if linear {
		parse = config.LinearHexColor
	}
	c, err := parse(hex)
	if err != nil {
		return wgpu.Color{}, err
	}
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}, nil
}

func NewCamera(c config.Camera, width, height int) *core.PerspectiveCamera {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	cam := core.NewPerspectiveCamera(c.Fov, aspect, c.Near, c.Far)
	cam.Position = mgl32.Vec3(c.Position)
	cam.LookAt(mgl32.Vec3{})
	return cam
}

func NewControls(cam *core.PerspectiveCamera, c config.Controls) *core.OrbitControls {
	controls := core.NewOrbitControls(cam)
	controls.EnableDamping = c.EnableDamping
	controls.DampingFactor = c.DampingFactor
	controls.RotateSpeed = c.RotateSpeed
	controls.ZoomSpeed = c.ZoomSpeed
	controls.PanSpeed = c.PanSpeed
	return controls
}
