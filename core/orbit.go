package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	orbitEpsilon = 1e-6
	// Squared distance below which Update reports no movement.
	movedEpsilon = 1e-10
)

// spherical is Y-up: Theta is the azimuth from +Z towards +X, Phi the polar
// angle from +Y.
type spherical struct {
	Radius float32
	Theta  float32
	Phi    float32
}

func sphericalFromVec(v mgl32.Vec3) spherical {
	r := v.Len()
	if r == 0 {
		return spherical{}
	}
	y := math32.Max(-1, math32.Min(1, v.Y()/r))
	return spherical{
		Radius: r,
		Theta:  math32.Atan2(v.X(), v.Z()),
		Phi:    math32.Acos(y),
	}
}

func (s spherical) vec() mgl32.Vec3 {
	sinPhi := math32.Sin(s.Phi) * s.Radius
	return mgl32.Vec3{
		sinPhi * math32.Sin(s.Theta),
		math32.Cos(s.Phi) * s.Radius,
		sinPhi * math32.Cos(s.Theta),
	}
}

// OrbitControls orbits a camera around Target. Input handlers only
// accumulate deltas; Update applies them and must run once per frame. With
// damping enabled the deltas decay by (1 - DampingFactor) per Update, so
// motion eases out over several frames after input stops.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target mgl32.Vec3

	EnableDamping bool
	DampingFactor float32

	EnableRotate bool
	EnableZoom   bool
	EnablePan    bool
	RotateSpeed  float32
	ZoomSpeed    float32
	PanSpeed     float32

	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32
	MaxPolarAngle float32

	delta     spherical
	scale     float32
	panOffset mgl32.Vec3
}

func NewOrbitControls(camera *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:        camera,
		Target:        camera.Target,
		DampingFactor: 0.05,
		EnableRotate:  true,
		EnableZoom:    true,
		EnablePan:     true,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MinDistance:   0,
		MaxDistance:   math32.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math32.Pi,
		scale:         1,
	}
}

// RotateLeft spins the camera around the target's up axis.
func (o *OrbitControls) RotateLeft(angle float32) {
	o.delta.Theta -= angle
}

// RotateUp tilts the camera over the target.
func (o *OrbitControls) RotateUp(angle float32) {
	o.delta.Phi -= angle
}

// Dolly scales the orbit radius on the next Update. Values below 1 move the
// camera closer.
func (o *OrbitControls) Dolly(scale float32) {
	if scale <= 0 {
		return
	}
	o.scale *= scale
}

// Pan shifts camera and target in screen space by a pixel offset. Distances
// are scaled so that content under the cursor follows it.
func (o *OrbitControls) Pan(dx, dy float32, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	offset := o.Camera.Position.Sub(o.Target)
	dist := offset.Len() * math32.Tan(mgl32.DegToRad(o.Camera.Fov)/2)

	forward := o.Camera.Forward()
	right := forward.Cross(o.Camera.Up)
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(forward).Normalize()

	h := float32(viewportHeight)
	o.panOffset = o.panOffset.Add(right.Mul(-2 * dx * dist / h))
	o.panOffset = o.panOffset.Add(up.Mul(2 * dy * dist / h))
}

// HandleDrag converts a cursor movement into rotation (rotate=true) or pan.
func (o *OrbitControls) HandleDrag(dx, dy float64, viewportHeight int, rotate bool) {
	if viewportHeight <= 0 {
		return
	}
	if rotate {
		if !o.EnableRotate {
			return
		}
		h := float32(viewportHeight)
		o.RotateLeft(2 * math32.Pi * float32(dx) / h * o.RotateSpeed)
		o.RotateUp(2 * math32.Pi * float32(dy) / h * o.RotateSpeed)
		return
	}
	if o.EnablePan {
		o.Pan(float32(dx)*o.PanSpeed, float32(dy)*o.PanSpeed, viewportHeight)
	}
}

// HandleScroll zooms in for positive yoff (wheel up) and out for negative.
func (o *OrbitControls) HandleScroll(yoff float64) {
	if !o.EnableZoom || yoff == 0 {
		return
	}
	zoom := math32.Pow(0.95, o.ZoomSpeed)
	if yoff > 0 {
		o.Dolly(zoom)
	} else {
		o.Dolly(1 / zoom)
	}
}

// Update applies accumulated input to the camera and reports whether it moved.
func (o *OrbitControls) Update() bool {
	cam := o.Camera
	lastPos := cam.Position
	lastTarget := o.Target

	s := sphericalFromVec(cam.Position.Sub(o.Target))

	factor := float32(1)
	if o.EnableDamping {
		factor = o.DampingFactor
	}
	s.Theta += o.delta.Theta * factor
	s.Phi += o.delta.Phi * factor

	minPhi := math32.Max(o.MinPolarAngle, orbitEpsilon)
	maxPhi := math32.Min(o.MaxPolarAngle, math32.Pi-orbitEpsilon)
	s.Phi = math32.Max(minPhi, math32.Min(maxPhi, s.Phi))

	s.Radius *= o.scale
	s.Radius = math32.Max(o.MinDistance, math32.Min(o.MaxDistance, s.Radius))

	o.Target = o.Target.Add(o.panOffset.Mul(factor))

	cam.Position = o.Target.Add(s.vec())
	cam.LookAt(o.Target)

	if o.EnableDamping {
		decay := 1 - o.DampingFactor
		o.delta.Theta *= decay
		o.delta.Phi *= decay
		o.panOffset = o.panOffset.Mul(decay)
	} else {
		o.delta = spherical{}
		o.panOffset = mgl32.Vec3{}
	}
	o.scale = 1

	dp := cam.Position.Sub(lastPos)
	dt := o.Target.Sub(lastTarget)
	return dp.Dot(dp) > movedEpsilon || dt.Dot(dt) > movedEpsilon
}
