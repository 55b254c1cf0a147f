package lossy

import "testing"

func TestThresholdsFlatRegion(t *testing.T) {
	// Identical neighbours mean zero contrast: the budget is LoThresh.
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 0.5, HiThresh: 24}
	g := newContrastGate(&cfg)

	px := Pixel{100, 100, 100, 255}
	g.seed(px, px)
	tc, ta := g.thresholds(px, px)
	if tc != 0.5 || ta != 0.5 {
		t.Errorf("thresholds = (%v, %v), want (0.5, 0.5)", tc, ta)
	}
}

func TestThresholdsMaxContrast(t *testing.T) {
	// Black surrounded by white on both sides is maximum colour
	// contrast: the budget is HiThresh.
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 0.5, HiThresh: 24}
	g := newContrastGate(&cfg)

	white := Pixel{255, 255, 255, 255}
	black := Pixel{0, 0, 0, 255}
	g.seed(white, black)
	tc, _ := g.thresholds(black, white)
	if tc != 24 {
		t.Errorf("colour threshold = %v, want 24", tc)
	}
}

func TestThresholdsUseSmallerNeighbourDelta(t *testing.T) {
	// A sharp edge on one side only does not raise the budget: contrast
	// is the minimum of the two neighbour deltas.
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 0.5, HiThresh: 24}
	g := newContrastGate(&cfg)

	px := Pixel{100, 100, 100, 255}
	g.seed(px, px) // backward delta zero
	tc, _ := g.thresholds(px, Pixel{255, 255, 255, 255})
	if tc != 0.5 {
		t.Errorf("colour threshold = %v, want 0.5", tc)
	}
}

func TestThresholdsCarryForwardDelta(t *testing.T) {
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 0, HiThresh: 765}
	g := newContrastGate(&cfg)

	a := Pixel{0, 0, 0, 255}
	b := Pixel{10, 10, 10, 255}
	c := Pixel{20, 20, 20, 255}
	g.seed(a, b)

	// First pixel: min(|b-a|, |b-c|) = 30 weighted units.
	tc, _ := g.thresholds(b, c)
	if want := float32(30) / 765 * 765; tc != want {
		t.Errorf("first threshold = %v, want %v", tc, want)
	}

	// The forward delta from the first call is the backward delta of the
	// second: min(30, 0) with c as its own successor mirror.
	tc, _ = g.thresholds(c, c)
	if tc != 0 {
		t.Errorf("second threshold = %v, want 0", tc)
	}
}

func TestThresholdsAlphaContrast(t *testing.T) {
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 1, HiThresh: 101}
	g := newContrastGate(&cfg)

	px := Pixel{0, 0, 0, 100}
	nb := Pixel{0, 0, 0, 202} // alpha delta 102/255 of full scale
	g.seed(nb, px)
	_, ta := g.thresholds(px, nb)
	c := float32(102) / 255
	want := cfg.LoThresh*(1-c) + cfg.HiThresh*c
	if ta != want {
		t.Errorf("alpha threshold = %v, want %v", ta, want)
	}
}

func TestThresholdsZeroWeightGuard(t *testing.T) {
	// All-zero colour weights must not divide by zero; zero deltas give
	// zero contrast and the low threshold.
	cfg := Config{Weights: [4]float32{0, 0, 0, 1}, LoThresh: 2, HiThresh: 9}
	g := newContrastGate(&cfg)

	px := Pixel{1, 2, 3, 255}
	g.seed(px, px)
	tc, _ := g.thresholds(px, Pixel{200, 200, 200, 255})
	if tc != 2 {
		t.Errorf("colour threshold = %v, want 2", tc)
	}
}

func TestThresholdsMulAlphaScalesContrast(t *testing.T) {
	// In MulAlpha mode a transparent pixel reads as zero contrast even
	// between loud neighbours.
	cfg := Config{Weights: [4]float32{1, 1, 1, 1}, LoThresh: 0.5, HiThresh: 24, MulAlpha: true}
	g := newContrastGate(&cfg)

	white := Pixel{255, 255, 255, 0}
	black := Pixel{0, 0, 0, 0}
	g.seed(white, black)
	tc, _ := g.thresholds(black, white)
	if tc != 0.5 {
		t.Errorf("colour threshold = %v, want 0.5", tc)
	}
}
