package qoi

import (
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/deepteams/qoi/internal/lossy"
)

// Options controls the encoder's perceptual error budget.
//
// Weights are unit-free multipliers on the absolute per-channel difference;
// larger means the channel matters more. LoThresh is the budget in locally
// flat regions, HiThresh in locally busy regions, and every pixel gets a
// threshold interpolated between the two from its neighbourhood contrast.
type Options struct {
	// Weights multiply the per-channel absolute differences, RGBA order.
	// All four must be non-negative. A zero alpha weight makes alpha
	// differences free: any pixel with matching RGB is then accepted
	// regardless of its alpha.
	Weights [4]float32

	// LoThresh is the acceptance threshold at zero local contrast.
	LoThresh float32

	// HiThresh is the acceptance threshold at maximum local contrast.
	HiThresh float32

	// MulAlpha scales colour differences by the pixel's alpha, so the
	// colour of transparent pixels is progressively ignored. Fully
	// transparent pixels are folded onto (0,0,0,0) before comparison.
	MulAlpha bool

	// Colorspace is recorded in the header: SRGB or Linear.
	Colorspace uint8
}

// DefaultOptions returns the tuned lossy defaults: green weighted heaviest,
// blue lightest, and a budget running from 0.5 in flat regions to 24 in busy
// ones.
func DefaultOptions() *Options {
	return &Options{
		Weights:  [4]float32{0.60, 1.00, 0.40, 0.75},
		LoThresh: 0.5,
		HiThresh: 24,
	}
}

// LosslessOptions returns options under which every opcode acceptance
// collapses to exact equality, making the encoder a plain lossless QOI
// encoder.
func LosslessOptions() *Options {
	return &Options{Weights: [4]float32{1, 1, 1, 1}}
}

func validateOptions(opts *Options) error {
	for i, w := range opts.Weights {
		if w < 0 {
			return errors.Errorf("qoi: negative weight %.2f for channel %d", w, i)
		}
	}
	if opts.LoThresh < 0 || opts.HiThresh < 0 {
		return errors.New("qoi: thresholds must be non-negative")
	}
	if opts.Colorspace > Linear {
		return errors.New("qoi: colorspace must be 0 or 1")
	}
	return nil
}

func (o *Options) config() lossy.Config {
	return lossy.Config{
		Weights:  o.Weights,
		LoThresh: o.LoThresh,
		HiThresh: o.HiThresh,
		MulAlpha: o.MulAlpha,
	}
}

// Encode writes img to w in QOI format. If opts is nil, DefaultOptions() is
// used. Note that the default is lossy; use LosslessOptions for an exact
// encode. Fully opaque images are packed as 3-channel RGB.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return err
	}

	bounds := img.Bounds()
	channels := uint8(3)
	if imageHasAlpha(img) {
		channels = 4
	}
	desc := Descriptor{
		Width:      uint32(bounds.Dx()),
		Height:     uint32(bounds.Dy()),
		Channels:   channels,
		Colorspace: opts.Colorspace,
	}

	data, err := lossy.Encode(packPixels(img, int(channels)), desc.internal(), opts.config())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "qoi: writing output")
}

// EncodeBytes compresses a packed RGB or RGBA pixel buffer described by desc
// into a complete in-memory QOI file. The buffer must hold exactly
// width*height*channels bytes. If opts is nil, DefaultOptions() is used;
// desc.Colorspace wins over opts.Colorspace.
func EncodeBytes(pixels []byte, desc Descriptor, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	return lossy.Encode(pixels, desc.internal(), opts.config())
}

// packPixels converts img to a packed 3- or 4-channel byte buffer in raster
// order, with fast paths for *image.NRGBA and *image.RGBA. QOI stores
// non-premultiplied values, so RGBA sources are un-premultiplied first.
func packPixels(img image.Image, channels int) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, w*h*channels)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			srcOff := (y+bounds.Min.Y-nrgba.Rect.Min.Y)*nrgba.Stride + (bounds.Min.X-nrgba.Rect.Min.X)*4
			dstOff := y * w * channels
			for x := 0; x < w; x++ {
				copy(out[dstOff:dstOff+channels], nrgba.Pix[srcOff:srcOff+4])
				srcOff += 4
				dstOff += channels
			}
		}
		return out
	}

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			srcOff := (y+bounds.Min.Y-rgba.Rect.Min.Y)*rgba.Stride + (bounds.Min.X-rgba.Rect.Min.X)*4
			dstOff := y * w * channels
			for x := 0; x < w; x++ {
				r, g, b, a := rgba.Pix[srcOff], rgba.Pix[srcOff+1], rgba.Pix[srcOff+2], rgba.Pix[srcOff+3]
				if a > 0 && a < 255 {
					a16 := uint16(a)
					r = uint8(uint16(r) * 255 / a16)
					g = uint8(uint16(g) * 255 / a16)
					b = uint8(uint16(b) * 255 / a16)
				}
				out[dstOff] = r
				out[dstOff+1] = g
				out[dstOff+2] = b
				if channels == 4 {
					out[dstOff+3] = a
				}
				srcOff += 4
				dstOff += channels
			}
		}
		return out
	}

	dstOff := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			out[dstOff] = c.R
			out[dstOff+1] = c.G
			out[dstOff+2] = c.B
			if channels == 4 {
				out[dstOff+3] = c.A
			}
			dstOff += channels
		}
	}
	return out
}

// imageHasAlpha reports whether the image has any pixel with alpha < 255.
func imageHasAlpha(img image.Image) bool {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := (y-b.Min.Y)*nrgba.Stride + 3
			for x := 0; x < b.Dx(); x++ {
				if nrgba.Pix[off] != 255 {
					return true
				}
				off += 4
			}
		}
		return false
	}
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := (y-b.Min.Y)*rgba.Stride + 3
			for x := 0; x < b.Dx(); x++ {
				if rgba.Pix[off] != 255 {
					return true
				}
				off += 4
			}
		}
		return false
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a != 0xFFFF {
				return true
			}
		}
	}
	return false
}
