package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefield/assets"
	"github.com/gekko3d/particlefield/config"
	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/field"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildField_Generates(t *testing.T) {
	p := config.Default().Particles
	p.Count = 10
	p.Seed = 5

	set, err := BuildField(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, set.Count)
	assert.Len(t, set.Positions, 30)

	again, err := BuildField(p, nil)
	require.NoError(t, err)
	assert.Equal(t, set.Positions, again.Positions, "seeded fields repeat")
}

func TestBuildField_NegativeCount(t *testing.T) {
	p := config.Default().Particles
	p.Count = -1
	_, err := BuildField(p, nil)
	assert.ErrorIs(t, err, field.ErrNegativeCount)
}

func TestBuildField_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.pfld")

	p := config.Default().Particles
	p.Count = 4
	p.Seed = 11
	p.SaveSnapshot = path
	saved, err := BuildField(p, nil)
	require.NoError(t, err)

	loaded, err := BuildField(config.Particles{LoadSnapshot: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestBuildField_MissingSnapshot(t *testing.T) {
	_, err := BuildField(config.Particles{LoadSnapshot: filepath.Join(t.TempDir(), "none")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadTextures(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "map.png")
	f, err := os.Create(mapPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	server := assets.NewTextureServer()
	m := config.Default().Material
	m.AlphaMap = filepath.Join(dir, "missing.png")
	m.Map = mapPath

	colorMap, alphaMap := LoadTextures(server, m, nil)
	require.NotEmpty(t, alphaMap, "alpha map falls back to a sprite")
	require.NotEmpty(t, colorMap)

	sprite, ok := server.Get(alphaMap)
	require.True(t, ok)
	assert.Equal(t, "procedural:soft-sprite", sprite.Name)

	m.Map = filepath.Join(dir, "also-missing.png")
	colorMap, _ = LoadTextures(server, m, nil)
	assert.Empty(t, colorMap)
}

func TestBuildMaterial(t *testing.T) {
	m := config.Default().Material
	m.AlphaMap = ""
	mat, err := BuildMaterial(assets.NewTextureServer(), m, false, nil)
	require.NoError(t, err)
	assert.Equal(t, core.AdditiveBlending, mat.Blending)
	assert.NotEmpty(t, mat.AlphaMap)

	m.Blending = "screen"
	_, err = BuildMaterial(assets.NewTextureServer(), m, false, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBuildMaterial_LinearTint(t *testing.T) {
	m := config.Default().Material
	m.AlphaMap = ""
	m.Color = "#ff88cc"

	mat, err := BuildMaterial(assets.NewTextureServer(), m, false, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0x88/255.0, mat.Color[1], 1e-6, "unconverted for plain targets")

	mat, err = BuildMaterial(assets.NewTextureServer(), m, true, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, mat.Color[0], 1e-3)
	assert.InDelta(t, 0.2462, mat.Color[1], 1e-3)
	assert.InDelta(t, 0.6038, mat.Color[2], 1e-3)
}

func TestClearColor(t *testing.T) {
	c, err := ClearColor("#000000", true)
	require.NoError(t, err)
	assert.Equal(t, wgpu.Color{A: 1}, c)

	c, err = ClearColor("#ff88cc", true)
	require.NoError(t, err)
	assert.InDelta(t, 0.2462, c.G, 1e-3)

	c, err = ClearColor("#ff88cc", false)
	require.NoError(t, err)
	assert.InDelta(t, 0x88/255.0, c.G, 1e-9)

	_, err = ClearColor("nope", true)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewCamera(t *testing.T) {
	cam := NewCamera(config.Default().Camera, 1280, 720)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Position)
	assert.Equal(t, mgl32.Vec3{}, cam.Target)
	assert.InDelta(t, 1280.0/720.0, cam.Aspect, 1e-6)

	assert.Equal(t, float32(1), NewCamera(config.Default().Camera, 0, 0).Aspect)
}

func TestNewControls(t *testing.T) {
	c := config.Default().Controls
	c.ZoomSpeed = 2
	controls := NewControls(NewCamera(config.Default().Camera, 1, 1), c)
	assert.True(t, controls.EnableDamping)
	assert.Equal(t, float32(0.05), controls.DampingFactor)
	assert.Equal(t, float32(2), controls.ZoomSpeed)
}
