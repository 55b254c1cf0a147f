package lossy

// contrastGate derives the per-pixel acceptance thresholds from local
// contrast. Contrast is the smaller of the weighted deltas to the previous
// and next pixel, normalised to the maximum representable delta; the
// thresholds interpolate between LoThresh (flat, keep gradients intact) and
// HiThresh (busy, texture masks the error).
//
// The backward delta is carried from the previous iteration rather than
// recomputed, so the gate costs one delta per pixel.
type contrastGate struct {
	cfg *Config

	// maxColour is (w0+w1+w2)*255, the largest weighted colour delta.
	maxColour float32

	prevColour float32
	prevAlpha  float32
}

func newContrastGate(cfg *Config) *contrastGate {
	m := (cfg.Weights[0] + cfg.Weights[1] + cfg.Weights[2]) * 255
	if m <= 0 {
		m = 1
	}
	return &contrastGate{cfg: cfg, maxColour: m}
}

// delta returns the weighted colour and alpha deltas between two neighbours.
// Unlike Config.distance it never applies the MulAlpha colour scaling: the
// gate measures raw local contrast, and MulAlpha is applied to the contrast
// ratio instead.
func (g *contrastGate) delta(a, b Pixel) (colour, alpha float32) {
	colour = absDiff(a.R, b.R)*g.cfg.Weights[0] +
		absDiff(a.G, b.G)*g.cfg.Weights[1] +
		absDiff(a.B, b.B)*g.cfg.Weights[2]
	alpha = absDiff(a.A, b.A) * g.cfg.Weights[3]
	return colour, alpha
}

// seed primes the carried backward delta before the first pixel, using the
// delta between the decoder's implicit (0,0,0,255) seed and the first pixel.
func (g *contrastGate) seed(seedPx, first Pixel) {
	g.prevColour, g.prevAlpha = g.delta(seedPx, first)
}

// thresholds computes the threshold pair for px given its successor, then
// shifts the forward delta into the carried slot for the next iteration.
func (g *contrastGate) thresholds(px, next Pixel) (threshC, threshA float32) {
	nextColour, nextAlpha := g.delta(px, next)

	contrast := min32(g.prevColour, nextColour) / g.maxColour
	if g.cfg.MulAlpha {
		contrast *= float32(px.A) / 255
	}
	threshC = g.cfg.LoThresh*(1-contrast) + g.cfg.HiThresh*contrast
	g.prevColour = nextColour

	contrast = min32(g.prevAlpha, nextAlpha) / 255
	threshA = g.cfg.LoThresh*(1-contrast) + g.cfg.HiThresh*contrast
	g.prevAlpha = nextAlpha

	return threshC, threshA
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
