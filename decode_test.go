package qoi

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// qoiFile assembles header + body + trailer for hand-built streams.
func qoiFile(w, h uint32, channels uint8, body ...byte) []byte {
	data := []byte{
		'q', 'o', 'i', 'f',
		byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
		channels, 0,
	}
	data = append(data, body...)
	return append(data, 0, 0, 0, 0, 0, 0, 0, 1)
}

func TestDecodeRGBLiteral(t *testing.T) {
	data := qoiFile(1, 1, 3, 0xFE, 1, 2, 3)
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	got := img.(*image.NRGBA).NRGBAAt(0, 0)
	if got != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel = %v, want {1 2 3 255}", got)
	}
}

func TestDecodeOpcodeMix(t *testing.T) {
	// RGBA literal, DIFF (+1,+1,+1), LUMA (vg=-2, offsets +1,-1),
	// RUN of 2, then INDEX back to the first value.
	data := qoiFile(6, 1, 4,
		0xFF, 100, 100, 100, 200,
		0x40|(3<<4)|(3<<2)|3,
		0x80|(30)|0, byte((1+8)<<4|(-1+8)&0x0F),
		0xC1,
		0x00|byte(hashRGBA(100, 100, 100, 200)),
	)
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	nrgba := img.(*image.NRGBA)

	want := []color.NRGBA{
		{100, 100, 100, 200},
		{101, 101, 101, 200},
		{100, 99, 98, 200}, // +(vg+1, vg, vg-1) with vg=-2
		{100, 99, 98, 200},
		{100, 99, 98, 200},
		{100, 100, 100, 200},
	}
	for i, w := range want {
		if got := nrgba.NRGBAAt(i, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", i, got, w)
		}
	}
}

func hashRGBA(r, g, b, a int) int {
	return (r*3 + g*5 + b*7 + a*11) % 64
}

func TestDecodeWraparound(t *testing.T) {
	// DIFF with +1 on a 255 channel wraps to 0.
	data := qoiFile(2, 1, 3,
		0xFE, 255, 0, 128,
		0x40|(3<<4)|(2<<2)|2,
	)
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.(*image.NRGBA).NRGBAAt(1, 0); got != (color.NRGBA{0, 0, 128, 255}) {
		t.Errorf("pixel = %v, want {0 0 128 255}", got)
	}
}

func TestDecodeConfig(t *testing.T) {
	data := qoiFile(300, 200, 4, 0xC0) // body irrelevant for config
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("config = %dx%d, want 300x200", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.NRGBAModel {
		t.Error("color model is not NRGBA")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("nope"), make([]byte, 30)...)},
		{"missing trailer", qoiFile(1, 1, 4, 0xC0)[:16]},
		{"stream too short", qoiFile(4, 1, 4, 0xC0)}, // run of 1, three pixels missing
		{"truncated literal", qoiFile(1, 1, 4, 0xFE, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeCorruptStreamSentinel(t *testing.T) {
	_, err := Decode(bytes.NewReader(qoiFile(4, 1, 4, 0xC0)))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestImageDecodeRegistered(t *testing.T) {
	data := qoiFile(1, 1, 3, 0xFE, 9, 8, 7)
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "qoi" {
		t.Errorf("format = %q, want %q", format, "qoi")
	}
	if got := img.(*image.NRGBA).NRGBAAt(0, 0); got != (color.NRGBA{9, 8, 7, 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestDecodeMatchesEncoderTrajectory(t *testing.T) {
	// The decoder state after each opcode is the encoder's pxStored
	// trajectory; for a lossless encode the trajectory is the input.
	src := gradientNRGBA(9, 9)
	data := encodeToBytes(t, src, LosslessOptions())
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src.Pix, img.(*image.NRGBA).Pix); diff != "" {
		t.Errorf("trajectory mismatch (-want +got):\n%s", diff)
	}
}
