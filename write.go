package qoi

import (
	"os"

	"github.com/pkg/errors"
)

// WriteFile encodes pixels and writes the result to path as a single write.
// The file is never partially written: the full buffer is produced in memory
// first, and the destination is removed again on any write failure.
// It returns the number of bytes written, or 0 together with the error.
func WriteFile(path string, pixels []byte, desc Descriptor, opts *Options) (int, error) {
	data, err := EncodeBytes(pixels, desc, opts)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "qoi: creating %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return 0, errors.Wrapf(err, "qoi: writing %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, errors.Wrapf(err, "qoi: closing %s", path)
	}
	return len(data), nil
}
