package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PointsUniformsSize is the byte size of the WGSL block:
//
//	struct Uniforms {
//	  view: mat4x4<f32>,    // 0
//	  proj: mat4x4<f32>,    // 64
//	  color: vec4<f32>,     // 128 rgb, opacity
//	  viewport: vec2<f32>,  // 144 drawing buffer, device pixels
//	  size: f32,            // 152 material size * pixel ratio
//	  scale: f32,           // 156 css height / 2
//	  alpha_test: f32,      // 160
//	  pixel_ratio: f32,     // 164
//	  flags: u32,           // 168
//	  _pad: u32,            // 172
//	}
const PointsUniformsSize = 176

const (
	offView       = 0
	offProj       = 64
	offColor      = 128
	offViewport   = 144
	offSize       = 152
	offScale      = 156
	offAlphaTest  = 160
	offPixelRatio = 164
	offFlags      = 168
)

// PackPointsUniforms serializes the per-frame uniforms. viewportW/H are the
// drawing buffer size in device pixels.
func PackPointsUniforms(view, proj mgl32.Mat4, m PointsMaterial, viewportW, viewportH int, pixelRatio float32) []byte {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	buf := make([]byte, PointsUniformsSize)

	putF := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}
	writeMat := func(offset int, mat mgl32.Mat4) {
		for i, v := range mat {
			putF(offset+i*4, v)
		}
	}

	writeMat(offView, view)
	writeMat(offProj, proj)

	putF(offColor, m.Color[0])
	putF(offColor+4, m.Color[1])
	putF(offColor+8, m.Color[2])
	putF(offColor+12, m.Opacity)

	putF(offViewport, float32(viewportW))
	putF(offViewport+4, float32(viewportH))

	putF(offSize, m.Size*pixelRatio)
	putF(offScale, float32(viewportH)/pixelRatio*0.5)
	putF(offAlphaTest, m.AlphaTest)
	putF(offPixelRatio, pixelRatio)
	binary.LittleEndian.PutUint32(buf[offFlags:], m.Flags())

	return buf
}
