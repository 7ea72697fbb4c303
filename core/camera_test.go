package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPerspectiveCamera_DepthRange(t *testing.T) {
	cam := NewPerspectiveCamera(75, 16.0/9.0, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 3}

	viewProj := cam.ProjectionMatrix().Mul4(cam.ViewMatrix())

	tests := []struct {
		name  string
		point mgl32.Vec3
		depth float32
	}{
		{"near plane", mgl32.Vec3{0, 0, 3 - 0.1}, 0},
		{"far plane", mgl32.Vec3{0, 0, 3 - 100}, 1},
	}

	for _, tc := range tests {
		clip := viewProj.Mul4x1(tc.point.Vec4(1))
		ndcZ := clip.Z() / clip.W()
		if !mgl32.FloatEqualThreshold(ndcZ, tc.depth, 1e-4) {
			t.Errorf("%s: expected depth %v, got %v", tc.name, tc.depth, ndcZ)
		}
	}
}

func TestPerspectiveCamera_AspectNeedsUpdate(t *testing.T) {
	cam := NewPerspectiveCamera(75, 1, 0.1, 100)
	before := cam.ProjectionMatrix()

	cam.SetAspect(1920, 1080)
	if cam.ProjectionMatrix() != before {
		t.Fatalf("projection changed before UpdateProjectionMatrix")
	}

	cam.UpdateProjectionMatrix()
	after := cam.ProjectionMatrix()
	if after == before {
		t.Fatalf("projection not rebuilt after aspect change")
	}
	// x scale is f/aspect
	if !mgl32.FloatEqualThreshold(after.At(0, 0)*cam.Aspect, after.At(1, 1), 1e-5) {
		t.Errorf("x/y scale mismatch: %v vs %v", after.At(0, 0)*cam.Aspect, after.At(1, 1))
	}
}

func TestPerspectiveCamera_SetAspectIgnoresEmpty(t *testing.T) {
	cam := NewPerspectiveCamera(75, 2, 0.1, 100)
	cam.SetAspect(0, 600)
	cam.SetAspect(800, 0)
	if cam.Aspect != 2 {
		t.Errorf("aspect should be unchanged, got %v", cam.Aspect)
	}
}

func TestPerspectiveCamera_Forward(t *testing.T) {
	cam := NewPerspectiveCamera(75, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 3}
	if f := cam.Forward(); !f.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("forward = %v", f)
	}

	cam.Position = mgl32.Vec3{}
	if f := cam.Forward(); !f.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("degenerate forward = %v", f)
	}
}
