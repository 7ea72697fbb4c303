package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsWGSL_EntryPoints(t *testing.T) {
	assert.Contains(t, PointsWGSL, "fn vs_main(")
	assert.Contains(t, PointsWGSL, "fn fs_main(")
}

func TestPointsWGSL_UniformOrder(t *testing.T) {
	// Field order must match core.PackPointsUniforms.
	fields := []string{"view:", "proj:", "color:", "viewport:", "size:", "scale:", "alpha_test:", "pixel_ratio:", "flags:", "_pad:"}
	block := PointsWGSL[strings.Index(PointsWGSL, "struct Uniforms"):]
	block = block[:strings.Index(block, "};")]

	last := -1
	for _, f := range fields {
		idx := strings.Index(block, f)
		if assert.GreaterOrEqual(t, idx, 0, "missing %s", f) {
			assert.Greater(t, idx, last, "%s out of order", f)
			last = idx
		}
	}
}

func TestPointsWGSL_Flags(t *testing.T) {
	for _, want := range []string{
		"FLAG_SIZE_ATTENUATION: u32 = 1u",
		"FLAG_VERTEX_COLORS: u32 = 2u",
		"FLAG_ALPHA_MAP: u32 = 4u",
		"FLAG_MAP: u32 = 8u",
	} {
		assert.Contains(t, PointsWGSL, want)
	}
}
