package qoi

import (
	"image"
	"io"

	"github.com/deepteams/qoi/internal/container"
)

func init() {
	image.RegisterFormat("qoi", "qoif", Decode, DecodeConfig)
}

// Colorspace values for Descriptor.Colorspace and Options.Colorspace.
// They are carried in the header for the reader's benefit; the codec treats
// all channels the same either way.
const (
	SRGB   = container.SRGB
	Linear = container.Linear
)

// Descriptor describes a raw pixel buffer handed to EncodeBytes or WriteFile:
// dimensions, channel count (3 = RGB, 4 = RGBA) and colorspace.
type Descriptor struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

func (d Descriptor) internal() container.Descriptor {
	return container.Descriptor{
		Width:      d.Width,
		Height:     d.Height,
		Channels:   d.Channels,
		Colorspace: d.Colorspace,
	}
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}
