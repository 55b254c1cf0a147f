// Command qoiconv converts images between PNG/JPEG and the QOI format.
//
// Usage:
//
//	qoiconv <infile> <outfile> [options]          one-shot conversion
//	qoiconv <indir> <outdir> -watch [options]     convert files as they appear
//
// Formats are sniffed from the file extension (.png, .jpg, .jpeg, .qoi).
// Encoding to QOI is lossy by default; pass -lothresh 0 -hithresh 0 for an
// exact encode.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/deepteams/qoi"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2], os.Args[3:]); err != nil {
		fmt.Fprintf(os.Stderr, "qoiconv: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: qoiconv <infile> <outfile> [options]

Options:
  -weights R,G,B,A   RGBA channel weights in percent (default 60,100,40,75)
  -lothresh F        low contrast threshold (default 0.5)
  -hithresh F        high contrast threshold (default 24)
  -mulalpha          multiply colour differences by alpha before comparison
  -quality N         JPEG output quality (default 95)
  -watch             treat <infile>/<outfile> as directories and convert
                     every PNG/JPEG dropped into the input directory
  -log FILE          watch mode: also log to FILE with rotation

Examples:
  qoiconv input.png output.qoi -weights 60,100,40,75 -lothresh 0.5 -hithresh 24
  qoiconv input.qoi output.png
`)
}

func run(in, out string, args []string) error {
	fs := flag.NewFlagSet("qoiconv", flag.ContinueOnError)
	weights := fs.String("weights", "", "RGBA channel weights in percent, comma separated")
	loThresh := fs.Float64("lothresh", 0.5, "low contrast threshold")
	hiThresh := fs.Float64("hithresh", 24, "high contrast threshold")
	mulAlpha := fs.Bool("mulalpha", false, "multiply colour differences by alpha")
	quality := fs.Int("quality", 95, "JPEG output quality")
	watch := fs.Bool("watch", false, "watch input directory and convert continuously")
	logFile := fs.String("log", "", "watch mode log file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := qoi.DefaultOptions()
	opts.LoThresh = float32(*loThresh)
	opts.HiThresh = float32(*hiThresh)
	opts.MulAlpha = *mulAlpha
	if *weights != "" {
		w, err := parseWeights(*weights)
		if err != nil {
			return err
		}
		opts.Weights = w
	}

	if *watch {
		return watchDir(in, out, opts, *quality, *logFile)
	}
	return convert(in, out, opts, *quality)
}

// parseWeights parses four comma- or space-separated percentages into
// weight multipliers.
func parseWeights(s string) ([4]float32, error) {
	var w [4]float32
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 4 {
		return w, errors.Errorf("need 4 weights, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return w, errors.Wrapf(err, "weight %q", p)
		}
		w[i] = float32(v) / 100
	}
	return w, nil
}

func sniffExt(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".jpg", ".jpeg", ".qoi":
		return ext, nil
	default:
		return "", errors.Errorf("unsupported extension %q (want .png, .jpg, .jpeg or .qoi)", ext)
	}
}

func convert(in, out string, opts *qoi.Options, quality int) error {
	if _, err := sniffExt(in); err != nil {
		return err
	}
	outExt, err := sniffExt(out)
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return errors.Wrapf(err, "decoding %s", in)
	}

	o, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writeImage(o, img, outExt, opts, quality); err != nil {
		o.Close()
		os.Remove(out)
		return errors.Wrapf(err, "encoding %s", out)
	}
	if err := o.Close(); err != nil {
		os.Remove(out)
		return err
	}

	fi, _ := os.Stat(out)
	fmt.Fprintf(os.Stderr, "Converted %s → %s (%d bytes)\n", in, out, fi.Size())
	return nil
}

func writeImage(w io.Writer, img image.Image, ext string, opts *qoi.Options, quality int) error {
	switch ext {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	default:
		return qoi.Encode(w, img, opts)
	}
}

// watchDir converts every PNG/JPEG that appears under in to a QOI file
// under out, until interrupted.
func watchDir(in, out string, opts *qoi.Options, quality int, logFile string) error {
	if logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}))
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(in); err != nil {
		return errors.Wrapf(err, "watching %s", in)
	}
	log.Printf("watching %s, writing QOI to %s", in, out)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			switch strings.ToLower(filepath.Ext(ev.Name)) {
			case ".png", ".jpg", ".jpeg":
			default:
				continue
			}
			base := strings.TrimSuffix(filepath.Base(ev.Name), filepath.Ext(ev.Name))
			dst := filepath.Join(out, base+".qoi")
			if err := convert(ev.Name, dst, opts, quality); err != nil {
				log.Printf("convert %s: %v", ev.Name, err)
				continue
			}
			log.Printf("converted %s → %s", ev.Name, dst)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}
