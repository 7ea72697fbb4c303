package core

const DefaultMaxPixelRatio = 2

// RenderSize returns the drawing buffer size for a window of winW x winH
// units backed by an fbW x fbH framebuffer, with the pixel ratio capped at
// maxRatio. A zero-sized window yields a zero size and ratio 1.
func RenderSize(winW, winH, fbW, fbH int, maxRatio float32) (w, h int, ratio float32) {
	if winW <= 0 || winH <= 0 || fbW <= 0 || fbH <= 0 {
		return 0, 0, 1
	}
	if maxRatio <= 0 {
		maxRatio = DefaultMaxPixelRatio
	}

	ratio = float32(fbW) / float32(winW)
	if ratio > maxRatio {
		ratio = maxRatio
	}

	w = int(float32(winW)*ratio + 0.5)
	h = int(float32(winH)*ratio + 0.5)
	if w > fbW {
		w = fbW
	}
	if h > fbH {
		h = fbH
	}
	return w, h, ratio
}
