// Package wit decodes fetched wasm artifacts far enough to classify them and
// to recover interface text from WIT package binaries.
//
// A wasm binary is one of three kinds here: a core module (validated through
// wazero), a component carrying a WIT package, or some other component. WIT
// package binaries embed their rendered interface text in a custom section
// named "wit"; recovering that text is what turns a binary artifact into a
// .wit file on disk.
package wit

import (
	"context"
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/tetratelabs/wazero"

	"github.com/componentry/wkg/errors"
)

// Kind classifies a decoded wasm artifact.
type Kind int

const (
	// KindModule is a plain core wasm module
	KindModule Kind = iota
	// KindComponent is a component without an embedded WIT package
	KindComponent
	// KindWitPackage is a component carrying a named WIT interface package
	KindWitPackage
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindComponent:
		return "component"
	case KindWitPackage:
		return "wit-package"
	}
	return "unknown"
}

// Decoded is the result of decoding a wasm artifact.
type Decoded struct {
	Kind Kind

	witText string
}

// Print renders the decoded WIT package to UTF-8 text. Only valid for
// KindWitPackage results.
func (d *Decoded) Print() (string, error) {
	if d.Kind != KindWitPackage {
		return "", errors.Wrapf(errors.ErrDecode, "cannot print %s as WIT", d.Kind)
	}
	text := d.witText
	if len(text) > 0 && text[len(text)-1] != '\n' {
		text += "\n"
	}
	return text, nil
}

// BinaryDecoder decodes wasm binaries read from a stream.
type BinaryDecoder struct{}

// NewBinaryDecoder returns the default artifact decoder.
func NewBinaryDecoder() *BinaryDecoder {
	return &BinaryDecoder{}
}

const (
	// Core module preamble: magic + version 1, layer 0
	coreVersion = 0x0001
	coreLayer   = 0x0000
	// Component preamble layer field
	componentLayer = 0x0001
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"

// Decode reads a complete wasm binary and classifies it. Core modules are
// validated by compiling them with wazero; components are walked section by
// section looking for an embedded WIT package.
func (d *BinaryDecoder) Decode(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrDecode, err.Error()), "reading artifact")
	}
	if len(data) < 8 {
		return nil, errors.Wrapf(errors.ErrDecode, "artifact too short (%d bytes) to be wasm", len(data))
	}
	for i, b := range wasmMagic {
		if data[i] != b {
			return nil, errors.Wrap(errors.ErrDecode, "missing wasm magic bytes")
		}
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	layer := binary.LittleEndian.Uint16(data[6:8])

	switch {
	case version == coreVersion && layer == coreLayer:
		return decodeModule(data)
	case layer == componentLayer:
		return decodeComponent(data[8:])
	default:
		return nil, errors.Wrapf(errors.ErrDecode, "unsupported wasm version/layer %#x/%#x", version, layer)
	}
}

// decodeModule validates a core module by compiling it.
func decodeModule(data []byte) (*Decoded, error) {
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrDecode, err.Error()), "wasm compile")
	}
	compiled.Close(ctx)

	return &Decoded{Kind: KindModule}, nil
}

// decodeComponent walks the component's top-level sections. A custom section
// named "wit" holds the package's rendered interface text.
func decodeComponent(body []byte) (*Decoded, error) {
	for len(body) > 0 {
		id := body[0]
		body = body[1:]

		size, n := decodeULEB128(body)
		if n == 0 {
			return nil, errors.Wrap(errors.ErrDecode, "truncated section size")
		}
		body = body[n:]
		if size > uint64(len(body)) {
			return nil, errors.Wrapf(errors.ErrDecode, "section %#x overruns binary (%d > %d bytes)", id, size, len(body))
		}
		payload := body[:size]
		body = body[size:]

		if id != 0 {
			continue
		}

		name, rest, ok := readName(payload)
		if !ok {
			return nil, errors.Wrap(errors.ErrDecode, "malformed custom section name")
		}
		if name != "wit" {
			continue
		}
		if !utf8.Valid(rest) {
			return nil, errors.Wrap(errors.ErrDecode, "wit section is not valid UTF-8")
		}
		return &Decoded{Kind: KindWitPackage, witText: string(rest)}, nil
	}

	return &Decoded{Kind: KindComponent}, nil
}

// readName reads a uleb128-length-prefixed UTF-8 name from a custom section
// payload, returning the remaining bytes.
func readName(payload []byte) (string, []byte, bool) {
	length, n := decodeULEB128(payload)
	if n == 0 || length > uint64(len(payload)-n) {
		return "", nil, false
	}
	name := payload[n : n+int(length)]
	if !utf8.Valid(name) {
		return "", nil, false
	}
	return string(name), payload[n+int(length):], true
}

// decodeULEB128 decodes an unsigned LEB128 value, returning the value and the
// number of bytes consumed (0 on malformed input).
func decodeULEB128(b []byte) (uint64, int) {
	var result uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		c := b[i]
		if shift >= 64 || (shift == 63 && c > 1) {
			return 0, 0
		}
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
	}
	return 0, 0
}
