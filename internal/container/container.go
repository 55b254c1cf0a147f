// Package container implements the QOI file container: the 14-byte header,
// the 8-byte stream trailer, and the descriptor validation rules shared by
// the encoder and decoder.
package container

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the fixed size of the QOI file header in bytes:
	// 4-byte magic, 4-byte width, 4-byte height, channels, colorspace.
	HeaderSize = 14

	// TrailerSize is the size of the end-of-stream padding.
	TrailerSize = 8

	// Magic is the file signature, "qoif" packed big-endian.
	Magic = uint32('q')<<24 | uint32('o')<<16 | uint32('i')<<8 | uint32('f')

	// PixelsMax caps width*height. 400 million pixels (1.6 GB of raw RGBA)
	// is the guard used by the reference qoi.h.
	PixelsMax = 400_000_000
)

// Colorspace values carried in the header. They are purely informative;
// the opcodes are colorspace-agnostic.
const (
	SRGB   = 0 // sRGB with linear alpha
	Linear = 1 // all channels linear
)

// Trailer holds the 8 padding bytes that terminate every QOI stream:
// seven zero bytes followed by a single 0x01.
var Trailer = [TrailerSize]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Errors reported by descriptor validation and header parsing.
var (
	ErrBadMagic      = errors.New("qoi: invalid magic")
	ErrBadDimensions = errors.New("qoi: width and height must be positive")
	ErrBadChannels   = errors.New("qoi: channels must be 3 or 4")
	ErrBadColorspace = errors.New("qoi: colorspace must be 0 or 1")
	ErrTooLarge      = errors.New("qoi: image exceeds pixel limit")
	ErrTruncated     = errors.New("qoi: truncated data")
)

// Descriptor describes the raw pixel buffer handed to the encoder and the
// image announced by a decoded header.
type Descriptor struct {
	Width      uint32
	Height     uint32
	Channels   uint8 // 3 = RGB, 4 = RGBA
	Colorspace uint8 // SRGB or Linear
}

// Validate checks every field constraint. The dimension guard rejects
// height >= PixelsMax / width so that width*height*(channels+1) cannot
// overflow the worst-case size computation.
func (d Descriptor) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return ErrBadDimensions
	}
	if d.Channels != 3 && d.Channels != 4 {
		return ErrBadChannels
	}
	if d.Colorspace > Linear {
		return ErrBadColorspace
	}
	if d.Height >= PixelsMax/d.Width {
		return ErrTooLarge
	}
	return nil
}

// PixelCount returns width*height.
func (d Descriptor) PixelCount() int {
	return int(d.Width) * int(d.Height)
}

// MaxEncodedSize returns the worst-case encoded size for the descriptor:
// one tag byte plus one literal per pixel, header and trailer included.
// Valid descriptors cannot make this overflow int.
func (d Descriptor) MaxEncodedSize() int {
	return d.PixelCount()*(int(d.Channels)+1) + HeaderSize + TrailerSize
}

// PutHeader writes the 14-byte big-endian header into buf and returns
// HeaderSize. buf must have room for at least HeaderSize bytes.
func PutHeader(buf []byte, d Descriptor) int {
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], d.Width)
	binary.BigEndian.PutUint32(buf[8:12], d.Height)
	buf[12] = d.Channels
	buf[13] = d.Colorspace
	return HeaderSize
}

// PutTrailer writes the 8 padding bytes into buf and returns TrailerSize.
func PutTrailer(buf []byte) int {
	copy(buf, Trailer[:])
	return TrailerSize
}

// ParseHeader validates and parses the header from data. The returned
// descriptor has passed Validate.
func ParseHeader(data []byte) (Descriptor, error) {
	if len(data) < HeaderSize {
		return Descriptor{}, ErrTruncated
	}
	if binary.BigEndian.Uint32(data[0:4]) != Magic {
		return Descriptor{}, ErrBadMagic
	}
	d := Descriptor{
		Width:      binary.BigEndian.Uint32(data[4:8]),
		Height:     binary.BigEndian.Uint32(data[8:12]),
		Channels:   data[12],
		Colorspace: data[13],
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// CheckTrailer verifies that data ends with the stream padding.
func CheckTrailer(data []byte) error {
	if len(data) < TrailerSize {
		return ErrTruncated
	}
	tail := data[len(data)-TrailerSize:]
	for i, b := range Trailer {
		if tail[i] != b {
			return errors.Wrap(ErrTruncated, "missing stream trailer")
		}
	}
	return nil
}
