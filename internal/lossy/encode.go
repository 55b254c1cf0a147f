// Package lossy implements the per-pixel decision engine of the lossy QOI
// encoder. The bitstream it emits is plain QOI, with every opcode exactly what
// a stock decoder expects, but each opcode may carry an approximation of the
// true pixel, chosen under a locally adaptive, perceptually weighted error
// budget. The encoder therefore tracks the pixel a decoder will reconstruct
// (pxStored), never the input pixel, through the run/index/delta state.
package lossy

import (
	"github.com/pkg/errors"

	"github.com/deepteams/qoi/internal/container"
)

// QOI opcode tags. The four short ops carry their payload in the low bits of
// the tag byte; RGB and RGBA are full-byte tags.
const (
	OpIndex = 0x00 // 00xxxxxx
	OpDiff  = 0x40 // 01xxxxxx
	OpLuma  = 0x80 // 10xxxxxx
	OpRun   = 0xC0 // 11xxxxxx
	OpRGB   = 0xFE // 11111110
	OpRGBA  = 0xFF // 11111111

	MaxRun = 62 // 63 and 64 would collide with the RGB/RGBA tags
)

// ErrNoPixels is returned for a nil or empty input buffer.
var ErrNoPixels = errors.New("qoi: no pixel data")

// ErrShortBuffer is returned when the input buffer does not hold
// width*height*channels bytes.
var ErrShortBuffer = errors.New("qoi: pixel buffer does not match descriptor")

// encoder is the single-encode state. It owns the output buffer and the
// decoder-parity state until Encode returns.
type encoder struct {
	cfg  *Config
	gate *contrastGate

	buf []byte
	p   int // write cursor

	run      int
	pxStored Pixel // what the decoder currently holds
	index    hashIndex
}

// Encode compresses a packed RGB/RGBA pixel buffer into a complete QOI file
// (header, opcode stream, trailer). The returned slice is freshly allocated
// and owned by the caller.
func Encode(pixels []byte, desc container.Descriptor, cfg Config) ([]byte, error) {
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	channels := int(desc.Channels)
	npx := desc.PixelCount()
	if len(pixels) != npx*channels {
		return nil, errors.Wrapf(ErrShortBuffer, "have %d bytes, want %d", len(pixels), npx*channels)
	}

	e := &encoder{
		cfg:  &cfg,
		gate: newContrastGate(&cfg),
		buf:  make([]byte, desc.MaxEncodedSize()),
	}
	e.p += container.PutHeader(e.buf, desc)
	e.index.reset()
	e.pxStored = opaqueBlack

	// Lookahead window. px starts at the decoder seed so the very first
	// iteration shifts pixel 0 into place with the seed as its predecessor.
	px := opaqueBlack
	pxNext := e.load(pixels, 0, channels)
	e.gate.seed(px, pxNext)

	for i := 0; i < npx; i++ {
		pxPrev := px
		px = pxNext
		if i+1 < npx {
			pxNext = e.load(pixels, i+1, channels)
		} else {
			// Mirror the interior at the boundary so the last pixel
			// keeps a symmetric contrast estimate.
			pxNext = pxPrev
		}

		threshC, threshA := e.gate.thresholds(px, pxNext)
		e.encodePixel(px, i == npx-1, threshC, threshA)
	}

	e.p += container.PutTrailer(e.buf[e.p:])
	return e.buf[:e.p], nil
}

// load reads pixel i, folding fully transparent pixels onto the canonical
// (0,0,0,0) in MulAlpha mode so they all land in one index slot.
func (e *encoder) load(pixels []byte, i, channels int) Pixel {
	px := readPixel(pixels, i, channels)
	if e.cfg.MulAlpha && px.A == 0 {
		return Pixel{}
	}
	return px
}

// encodePixel runs the candidate cascade for one pixel: RUN extension, INDEX
// (exact, then best approximate), then the alpha-compatible small-delta ops
// (DIFF, LUMA, RGB), with RGBA as the unconditional fallback.
func (e *encoder) encodePixel(px Pixel, last bool, threshC, threshA float32) {
	cd, ad := e.cfg.distance(px, e.pxStored)
	if px == e.pxStored || within(cd, ad, threshC, threshA) {
		e.run++
		if e.run == MaxRun || last {
			e.buf[e.p] = OpRun | byte(e.run-1)
			e.p++
			e.run = 0
		}
		return
	}
	if e.run > 0 {
		e.buf[e.p] = OpRun | byte(e.run-1)
		e.p++
		e.run = 0
	}

	if !e.tryIndex(px, threshC, threshA) {
		if absDiff(px.A, e.pxStored.A)*e.cfg.Weights[3] <= threshA {
			e.encodeSmallDelta(px, threshC, threshA)
		} else {
			e.buf[e.p] = OpRGBA
			e.buf[e.p+1] = px.R
			e.buf[e.p+2] = px.G
			e.buf[e.p+3] = px.B
			e.buf[e.p+4] = px.A
			e.p += 5
			e.pxStored = px
		}
	}

	// Keep the table in lockstep with a decoder, which re-inserts the
	// reconstructed pixel after every non-RUN opcode.
	e.index.insert(e.pxStored)
}

// tryIndex emits an INDEX opcode if the table holds px exactly at its hash
// slot, or failing that, the closest populated entry inside the threshold
// budget (lowest slot wins ties). Reports whether an opcode was emitted.
func (e *encoder) tryIndex(px Pixel, threshC, threshA float32) bool {
	h := px.Hash()
	if slot, ok := e.index.at(h); ok && slot == px {
		e.buf[e.p] = OpIndex | byte(h)
		e.p++
		e.pxStored = slot
		return true
	}

	best := -1
	bestScore := float32(0)
	for i := 0; i < 64; i++ {
		slot, ok := e.index.at(i)
		if !ok {
			continue
		}
		cd, ad := e.cfg.distance(px, slot)
		if !within(cd, ad, threshC, threshA) {
			continue
		}
		if best < 0 || cd+ad < bestScore {
			best = i
			bestScore = cd + ad
		}
	}
	if best < 0 {
		return false
	}
	e.buf[e.p] = OpIndex | byte(best)
	e.p++
	e.pxStored, _ = e.index.at(best)
	return true
}

// encodeSmallDelta handles the alpha-preserving opcodes. The caller has
// already established that keeping pxStored's alpha is inside the alpha
// budget, so every reconstruction here is anchored to that alpha, including
// the RGB literal, which a decoder applies without touching alpha.
func (e *encoder) encodeSmallDelta(px Pixel, threshC, threshA float32) {
	storedA := e.pxStored.A

	// Wraparound deltas, the same int8 arithmetic the wire format is
	// defined over: 255 -> 0 is a delta of +1.
	vr := int8(px.R - e.pxStored.R)
	vg := int8(px.G - e.pxStored.G)
	vb := int8(px.B - e.pxStored.B)

	// Chroma offsets come from the unclamped green delta.
	vgr := vr - vg
	vgb := vb - vg

	cr := clamp8(vr, -2, 1)
	cg := clamp8(vg, -2, 1)
	cb := clamp8(vb, -2, 1)
	potential := Pixel{
		R: e.pxStored.R + uint8(cr),
		G: e.pxStored.G + uint8(cg),
		B: e.pxStored.B + uint8(cb),
		A: storedA,
	}
	if cd, ad := e.cfg.distance(px, potential); potential == px || within(cd, ad, threshC, threshA) {
		e.buf[e.p] = OpDiff | byte(cr+2)<<4 | byte(cg+2)<<2 | byte(cb+2)
		e.p++
		e.pxStored = potential
		return
	}

	lg := clamp8(vg, -32, 31)
	lgr := clamp8(vgr, -8, 7)
	lgb := clamp8(vgb, -8, 7)
	potential = Pixel{
		R: e.pxStored.R + uint8(lg+lgr),
		G: e.pxStored.G + uint8(lg),
		B: e.pxStored.B + uint8(lg+lgb),
		A: storedA,
	}
	if cd, ad := e.cfg.distance(px, potential); potential == px || within(cd, ad, threshC, threshA) {
		e.buf[e.p] = OpLuma | byte(lg+32)
		e.buf[e.p+1] = byte(lgr+8)<<4 | byte(lgb+8)
		e.p += 2
		e.pxStored = potential
		return
	}

	e.buf[e.p] = OpRGB
	e.buf[e.p+1] = px.R
	e.buf[e.p+2] = px.G
	e.buf[e.p+3] = px.B
	e.p += 4
	e.pxStored = Pixel{R: px.R, G: px.G, B: px.B, A: storedA}
}
