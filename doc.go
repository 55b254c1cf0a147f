// Package qoi provides a pure Go encoder and decoder for the QOI
// (Quite OK Image) format.
//
// The encoder is deliberately lossy: for every pixel it picks, among the five
// QOI opcodes, the cheapest reconstruction that stays inside a perceptually
// weighted, locally adaptive error budget. The output is nevertheless a fully
// conforming QOI bitstream that any stock QOI decoder reads, and with
// LosslessOptions the encoder degenerates to an exact, lossless QOI encoder.
// The package registers itself with the standard library's image package so
// that image.Decode can transparently read QOI files.
//
// Basic usage for decoding:
//
//	img, err := qoi.Decode(reader)
//
// Basic usage for encoding:
//
//	err := qoi.Encode(writer, img, qoi.DefaultOptions())
package qoi
