package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Maps OpenGL clip depth (-w..w) onto the WebGPU range (0..w).
var glToWebGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// PerspectiveCamera is a Y-up look-at camera. The projection matrix is cached
// and only rebuilt by UpdateProjectionMatrix, so callers changing Fov, Aspect,
// Near or Far must call it afterwards.
type PerspectiveCamera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	Fov    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	projection mgl32.Mat4
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Up:     mgl32.Vec3{0, 1, 0},
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	c.UpdateProjectionMatrix()
	return c
}

// SetAspect stores width/height. Zero heights leave the aspect unchanged.
func (c *PerspectiveCamera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	proj := mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
	c.projection = glToWebGPU.Mul4(proj)
}

func (c *PerspectiveCamera) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}

func (c *PerspectiveCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *PerspectiveCamera) Forward() mgl32.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// LookAt points the camera at target without moving it.
func (c *PerspectiveCamera) LookAt(target mgl32.Vec3) {
	c.Target = target
}
