package qoi

import (
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/deepteams/qoi/internal/container"
	"github.com/deepteams/qoi/internal/lossy"
)

// Errors returned by the decoder.
var (
	ErrInvalidFormat = errors.New("qoi: not a QOI file")
	ErrCorrupt       = errors.New("qoi: corrupt opcode stream")
)

// Decode reads a QOI image from r and returns it as an *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "qoi: reading data")
	}
	return decodeBytes(data)
}

// DecodeConfig returns the color model and dimensions of a QOI image without
// decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	hdr := make([]byte, container.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return image.Config{}, errors.Wrap(ErrInvalidFormat, "short header")
	}
	desc, err := container.ParseHeader(hdr)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(desc.Width),
		Height:     int(desc.Height),
	}, nil
}

// decodeBytes decodes a complete QOI file from a byte slice. It maintains the
// standard decoder state (previous pixel seeded (0,0,0,255), 64-entry index
// refreshed after every opcode), which is exactly the state the encoder
// mirrors as its last-stored trajectory.
func decodeBytes(data []byte) (*image.NRGBA, error) {
	desc, err := container.ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := container.CheckTrailer(data); err != nil {
		return nil, err
	}
	body := data[container.HeaderSize : len(data)-container.TrailerSize]

	w, h := int(desc.Width), int(desc.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	px := lossy.Pixel{A: 255}
	var index [64]lossy.Pixel
	run := 0
	p := 0

	for off := 0; off < len(img.Pix); off += 4 {
		if run > 0 {
			run--
		} else {
			if p >= len(body) {
				return nil, errors.Wrap(ErrCorrupt, "stream ends early")
			}
			tag := body[p]
			p++
			switch {
			case tag == lossy.OpRGB:
				if p+3 > len(body) {
					return nil, errors.Wrap(ErrCorrupt, "truncated RGB literal")
				}
				px.R, px.G, px.B = body[p], body[p+1], body[p+2]
				p += 3
			case tag == lossy.OpRGBA:
				if p+4 > len(body) {
					return nil, errors.Wrap(ErrCorrupt, "truncated RGBA literal")
				}
				px.R, px.G, px.B, px.A = body[p], body[p+1], body[p+2], body[p+3]
				p += 4
			case tag&0xC0 == lossy.OpIndex:
				px = index[tag&0x3F]
			case tag&0xC0 == lossy.OpDiff:
				px.R += uint8(tag>>4&0x03) - 2
				px.G += uint8(tag>>2&0x03) - 2
				px.B += uint8(tag&0x03) - 2
			case tag&0xC0 == lossy.OpLuma:
				if p >= len(body) {
					return nil, errors.Wrap(ErrCorrupt, "truncated LUMA opcode")
				}
				b2 := body[p]
				p++
				vg := uint8(tag&0x3F) - 32
				px.R += vg - 8 + (b2 >> 4 & 0x0F)
				px.G += vg
				px.B += vg - 8 + (b2 & 0x0F)
			default: // OpRun
				run = int(tag & 0x3F)
			}
			index[px.Hash()] = px
		}

		img.Pix[off] = px.R
		img.Pix[off+1] = px.G
		img.Pix[off+2] = px.B
		img.Pix[off+3] = px.A
	}

	return img, nil
}
