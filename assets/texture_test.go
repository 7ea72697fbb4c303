package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sprite.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestTextureServer_LoadTexture(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	path := writePNG(t, gray)

	server := NewTextureServer()
	id, err := server.LoadTexture(path)
	require.NoError(t, err)

	tex, ok := server.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint32(4), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)
	require.Len(t, tex.Texels, 4*2*4)

	// pixel (1,1), green channel carries the alpha map value
	off := (1*4 + 1) * 4
	assert.Equal(t, uint8(200), tex.Texels[off+1])
	assert.Equal(t, uint8(255), tex.Texels[off+3])
}

func TestTextureServer_LoadTextureMissing(t *testing.T) {
	server := NewTextureServer()
	_, err := server.LoadTexture(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, server.Len())
}

func TestTextureServer_LoadTextureGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewTextureServer().LoadTexture(path)
	assert.ErrorIs(t, err, image.ErrFormat)
}

func TestTextureServer_LoadOrSprite(t *testing.T) {
	server := NewTextureServer()

	fallback := server.LoadOrSprite(filepath.Join(t.TempDir(), "missing.png"), nil)
	tex, ok := server.Get(fallback)
	require.True(t, ok)
	assert.Equal(t, "procedural:soft-sprite", tex.Name)

	path := writePNG(t, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	loaded := server.LoadOrSprite(path, nil)
	assert.NotEqual(t, fallback, loaded)
	tex, _ = server.Get(loaded)
	assert.Equal(t, path, tex.Name)
	assert.Equal(t, 2, server.Len())
}

func TestCreateTexture_Validates(t *testing.T) {
	server := NewTextureServer()
	_, err := server.CreateTexture("bad", make([]uint8, 3), 1, 1)
	assert.ErrorIs(t, err, ErrTexelCount)

	id, err := server.CreateTexture("white", []uint8{255, 255, 255, 255}, 1, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestDecodeTexture_BMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	src.SetRGBA(2, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, err := DecodeTexture(&buf)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(2, 0))
}

func TestToRGBA_Downscales(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, MaxTextureSize*2, 16))
	img := toRGBA(src)
	assert.Equal(t, MaxTextureSize, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestPackRGBA_SubImage(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	full.SetRGBA(2, 2, color.RGBA{1, 2, 3, 4})
	sub := full.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

	packed := packRGBA(sub)
	require.Len(t, packed, 2*2*4)
	assert.Equal(t, []uint8{1, 2, 3, 4}, packed[:4])
}

func TestSoftSprite(t *testing.T) {
	img := SoftSprite(64, 4)
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	center := img.RGBAAt(32, 32).G
	corner := img.RGBAAt(0, 0).G
	assert.Greater(t, center, uint8(200))
	assert.Less(t, corner, uint8(10))

	// Blur softens the rim: somewhere between center and edge there is a
	// partial value.
	var partial bool
	for x := 32; x < 64; x++ {
		g := img.RGBAAt(x, 32).G
		if g > 20 && g < 235 {
			partial = true
			break
		}
	}
	assert.True(t, partial)

	assert.Equal(t, image.Rect(0, 0, 1, 1), SoftSprite(0, 0).Bounds())
}
