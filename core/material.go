package core

import (
	"fmt"
	"strings"
)

type Blending int

const (
	NoBlending Blending = iota
	NormalBlending
	AdditiveBlending
)

var blendingNames = map[Blending]string{
	NoBlending:       "none",
	NormalBlending:   "normal",
	AdditiveBlending: "additive",
}

func (b Blending) String() string {
	if name, ok := blendingNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Blending(%d)", int(b))
}

func ParseBlending(s string) (Blending, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for b, name := range blendingNames {
		if name == key {
			return b, nil
		}
	}
	return NoBlending, fmt.Errorf("unknown blending %q", s)
}

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

type BlendComponent struct {
	Src BlendFactor
	Dst BlendFactor
}

// BlendState is an additive-equation blend: out = src*Src + dst*Dst.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

type DepthCompare int

const (
	CompareLessEqual DepthCompare = iota
	CompareAlways
)

// TextureID names a texture held by the asset server. Empty means unset.
type TextureID string

// PointsMaterial describes how a point cloud is shaded: each point becomes a
// camera-facing quad of Size world units (with SizeAttenuation) or Size
// pixels (without).
type PointsMaterial struct {
	Size            float32
	SizeAttenuation bool

	Color   [3]float32
	Opacity float32

	Map      TextureID
	AlphaMap TextureID // alpha is read from the green channel

	Transparent  bool
	AlphaTest    float32
	DepthTest    bool
	DepthWrite   bool
	Blending     Blending
	VertexColors bool
}

// NewPointsMaterial returns an opaque white material with depth testing.
func NewPointsMaterial() PointsMaterial {
	return PointsMaterial{
		Size:            1,
		SizeAttenuation: true,
		Color:           [3]float32{1, 1, 1},
		Opacity:         1,
		DepthTest:       true,
		DepthWrite:      true,
		Blending:        NormalBlending,
	}
}

// SparkleMaterial is the particle field look: small tinted sprites whose
// overlaps add up and never occlude each other.
func SparkleMaterial(alphaMap TextureID) PointsMaterial {
	m := NewPointsMaterial()
	m.Size = 0.1
	m.SizeAttenuation = true
	m.Color = [3]float32{1, 0x88 / 255.0, 0xcc / 255.0}
	m.Transparent = true
	m.AlphaMap = alphaMap
	m.DepthWrite = false
	m.Blending = AdditiveBlending
	m.VertexColors = true
	return m
}

// BlendState returns the fixed-function blend for the material, or false when
// fragments should overwrite the target. Normal blending only applies to
// transparent materials; additive always applies.
func (m PointsMaterial) BlendState() (BlendState, bool) {
	switch m.Blending {
	case AdditiveBlending:
		c := BlendComponent{Src: BlendSrcAlpha, Dst: BlendOne}
		return BlendState{Color: c, Alpha: c}, true
	case NormalBlending:
		if !m.Transparent {
			return BlendState{}, false
		}
		return BlendState{
			Color: BlendComponent{Src: BlendSrcAlpha, Dst: BlendOneMinusSrcAlpha},
			Alpha: BlendComponent{Src: BlendOne, Dst: BlendOneMinusSrcAlpha},
		}, true
	default:
		return BlendState{}, false
	}
}

func (m PointsMaterial) DepthCompare() DepthCompare {
	if m.DepthTest {
		return CompareLessEqual
	}
	return CompareAlways
}

// Shader feature bits, mirrored in points.wgsl.
const (
	FlagSizeAttenuation uint32 = 1 << iota
	FlagVertexColors
	FlagAlphaMap
	FlagMap
)

func (m PointsMaterial) Flags() uint32 {
	var f uint32
	if m.SizeAttenuation {
		f |= FlagSizeAttenuation
	}
	if m.VertexColors {
		f |= FlagVertexColors
	}
	if m.AlphaMap != "" {
		f |= FlagAlphaMap
	}
	if m.Map != "" {
		f |= FlagMap
	}
	return f
}
