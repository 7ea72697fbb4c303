package gpu

import "github.com/cogentcore/webgpu/wgpu"

// IsSRGB reports whether writes to a surface of this format are encoded to
// sRGB by the hardware, so shader outputs and clear colors must be linear.
func IsSRGB(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}
