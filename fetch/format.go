// Package fetch implements the artifact pipeline: stream package content to a
// temp file, detect the output format, and publish the result atomically.
package fetch

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/componentry/wkg/errors"
	"github.com/componentry/wkg/logger"
	"github.com/componentry/wkg/wit"
)

// Format selects the output artifact form. Auto is a detection request and
// never reaches the publisher as-is.
type Format int

const (
	FormatAuto Format = iota
	FormatWasm
	FormatWit
)

// ParseFormat parses the --format flag value.
func ParseFormat(text string) (Format, error) {
	switch strings.ToLower(text) {
	case "auto":
		return FormatAuto, nil
	case "wasm":
		return FormatWasm, nil
	case "wit":
		return FormatWit, nil
	}
	return FormatAuto, errors.Newf("invalid format %q (expected auto, wasm, or wit)", text)
}

// String returns the flag spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatWasm:
		return "wasm"
	case FormatWit:
		return "wit"
	}
	return "auto"
}

// Decoder is the component-decoding capability consumed by format detection.
type Decoder interface {
	Decode(r io.Reader) (*wit.Decoded, error)
}

// DecideFormat applies the format selection precedence: an explicit request
// wins outright; Auto adopts a recognized output file extension; otherwise
// Auto survives and content sniffing decides later. An unrecognized extension
// is reported but not an error.
func DecideFormat(requested Format, outputPath string) Format {
	if requested != FormatAuto {
		return requested
	}

	ext := strings.TrimPrefix(filepath.Ext(outputPath), ".")
	switch ext {
	case "wasm":
		return FormatWasm
	case "wit":
		return FormatWit
	case "":
		return FormatAuto
	}

	logger.Warnw("Couldn't infer output format from file name",
		"path", filepath.Base(outputPath), "extension", ext)
	return FormatAuto
}

// MaybeDecode decides whether the artifact should be emitted as decoded WIT
// text. The temp file is rewound and decoded unless the format is Wasm.
// Returns the text to persist, or "" to keep the raw binary.
//
// A decode failure is fatal only when the format was forced to Wit; in Auto
// mode it degrades to raw binary output with a warning.
func MaybeDecode(tmp *os.File, format Format, dec Decoder) (string, error) {
	if format == FormatWasm {
		return "", nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewinding temp file")
	}

	decoded, err := dec.Decode(tmp)
	if err != nil {
		if format == FormatWit {
			return "", errors.Wrap(err, "decoding artifact as WIT")
		}
		logger.Warnw("Failed to detect package content type", "error", err.Error())
		return "", nil
	}

	logger.Debugw("Decoded artifact", "kind", decoded.Kind.String())
	if decoded.Kind != wit.KindWitPackage {
		// A successfully decoded non-WIT artifact stays raw binary even
		// under --format wit; only a decode failure is fatal there
		return "", nil
	}

	text, err := decoded.Print()
	if err != nil {
		return "", errors.Wrap(err, "printing WIT package")
	}
	return text, nil
}
