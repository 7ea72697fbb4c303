package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sync"

	"github.com/anthonynsimon/bild/blur"
	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/logging"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Textures wider or taller than this are downscaled on load.
const MaxTextureSize = 4096

var ErrTexelCount = errors.New("assets: texel count does not match size")

// TextureAsset is tightly packed RGBA8.
type TextureAsset struct {
	ID     core.TextureID
	Name   string
	Texels []uint8
	Width  uint32
	Height uint32
}

type TextureServer struct {
	mu       sync.RWMutex
	textures map[core.TextureID]TextureAsset
}

func NewTextureServer() *TextureServer {
	return &TextureServer{
		textures: make(map[core.TextureID]TextureAsset),
	}
}

func makeTextureID() core.TextureID {
	return core.TextureID(uuid.NewString())
}

func (s *TextureServer) CreateTexture(name string, texels []uint8, width, height uint32) (core.TextureID, error) {
	if uint64(len(texels)) != uint64(width)*uint64(height)*4 {
		return "", fmt.Errorf("%w: %d bytes for %dx%d", ErrTexelCount, len(texels), width, height)
	}

	id := makeTextureID()
	s.mu.Lock()
	s.textures[id] = TextureAsset{
		ID:     id,
		Name:   name,
		Texels: texels,
		Width:  width,
		Height: height,
	}
	s.mu.Unlock()
	return id, nil
}

func (s *TextureServer) AddImage(name string, img *image.RGBA) core.TextureID {
	b := img.Bounds()
	id, err := s.CreateTexture(name, packRGBA(img), uint32(b.Dx()), uint32(b.Dy()))
	if err != nil {
		// packRGBA always yields w*h*4 bytes
		panic(err)
	}
	return id
}

// LoadTexture decodes an image file (PNG, JPEG, GIF, BMP, TIFF, WebP).
func (s *TextureServer) LoadTexture(path string) (core.TextureID, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("assets: open texture: %w", err)
	}
	defer file.Close()

	img, err := DecodeTexture(file)
	if err != nil {
		return "", fmt.Errorf("assets: %s: %w", path, err)
	}
	return s.AddImage(path, img), nil
}

// LoadOrSprite loads path, falling back to a procedural SoftSprite when the
// file is missing or undecodable. An empty path goes straight to the sprite.
func (s *TextureServer) LoadOrSprite(path string, log logging.Logger) core.TextureID {
	log = logging.OrNop(log)
	if path != "" {
		id, err := s.LoadTexture(path)
		if err == nil {
			tex, _ := s.Get(id)
			log.Infof("Loaded texture %s (%dx%d)", path, tex.Width, tex.Height)
			return id
		}
		log.Warnf("Texture unavailable, using procedural sprite: %v", err)
	}
	return s.AddImage("procedural:soft-sprite", SoftSprite(64, 4))
}

func (s *TextureServer) Get(id core.TextureID) (TextureAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tex, ok := s.textures[id]
	return tex, ok
}

func (s *TextureServer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.textures)
}

// DecodeTexture decodes any registered image format into RGBA, downscaling
// to MaxTextureSize when needed.
func DecodeTexture(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w > MaxTextureSize || h > MaxTextureSize {
		if w >= h {
			h = max(1, h*MaxTextureSize/w)
			w = MaxTextureSize
		} else {
			w = max(1, w*MaxTextureSize/h)
			h = MaxTextureSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// packRGBA copies img into a stride-free buffer.
func packRGBA(img *image.RGBA) []uint8 {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	if img.Stride == rowBytes && len(img.Pix) == rowBytes*b.Dy() {
		return img.Pix
	}
	out := make([]uint8, 0, rowBytes*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[start:start+rowBytes]...)
	}
	return out
}

// SoftSprite draws a white disc on black and blurs its edge, giving a
// grayscale alpha map whose green channel fades from 1 at the center to 0
// at the border.
func SoftSprite(size int, blurRadius float64) *image.RGBA {
	if size < 1 {
		size = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	c := float64(size-1) / 2
	r := float64(size) / 4
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			v := uint8(0)
			if dx*dx+dy*dy <= r*r {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	if blurRadius > 0 {
		img = blur.Gaussian(img, blurRadius)
	}
	return img
}
