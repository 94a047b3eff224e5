package filters

import (
	"bytes"
	"compress/zlib"
	stdascii85 "encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wudi/pdfwrite/ir/raw"
)

// Filter encodes stream data before it is stored. Filters are stateless and
// may be shared between objects and writers.
type Filter interface {
	// Name is the value written to the /Filter entry.
	Name() raw.Name
	Encode(data []byte) ([]byte, error)
	// EncodeString applies the default text encoding before Encode.
	EncodeString(text string) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ErrUnsupported is returned by filters that only work in one direction.
var ErrUnsupported = errors.New("filters: operation not supported")

const (
	FlateName    raw.Name = "FlateDecode"
	ASCIIHexName raw.Name = "ASCIIHexDecode"
	ASCII85Name  raw.Name = "ASCII85Decode"
	DCTName      raw.Name = "DCTDecode"
)

type flateFilter struct{ level int }

// NewFlate returns the Deflate filter at best compression. Its output is a
// zlib stream starting with the bytes 0x78 0xDA.
func NewFlate() Filter { return flateFilter{level: zlib.BestCompression} }

// NewFlateLevel returns a Deflate filter using the given zlib level.
func NewFlateLevel(level int) (Filter, error) {
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return nil, fmt.Errorf("filters: invalid flate level %d", level)
	}
	return flateFilter{level: level}, nil
}

func (flateFilter) Name() raw.Name { return FlateName }

func (f flateFilter) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flate encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (f flateFilter) EncodeString(text string) ([]byte, error) {
	return encodeString(f, text)
}

// Decode is not needed by a write-only pipeline.
func (flateFilter) Decode([]byte) ([]byte, error) { return nil, ErrUnsupported }

type asciiHexFilter struct{}

// NewASCIIHex returns the ASCIIHexDecode filter.
func NewASCIIHex() Filter { return asciiHexFilter{} }

func (asciiHexFilter) Name() raw.Name { return ASCIIHexName }

func (asciiHexFilter) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, hex.EncodedLen(len(data))+1)
	out = append(out, strings.ToUpper(hex.EncodeToString(data))...)
	return append(out, '>'), nil
}

func (f asciiHexFilter) EncodeString(text string) ([]byte, error) {
	return encodeString(f, text)
}

func (asciiHexFilter) Decode(in []byte) ([]byte, error) {
	var trimmed []byte
	for _, c := range in {
		if c == '>' {
			break
		}
		if isWhite(c) {
			continue
		}
		trimmed = append(trimmed, c)
	}
	// odd length is padded with 0
	if len(trimmed)%2 == 1 {
		trimmed = append(trimmed, '0')
	}
	result := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(result, trimmed)
	if err != nil {
		return nil, err
	}
	return result[:n], nil
}

type ascii85Filter struct{}

// NewASCII85 returns the ASCII85Decode filter.
func NewASCII85() Filter { return ascii85Filter{} }

func (ascii85Filter) Name() raw.Name { return ASCII85Name }

func (ascii85Filter) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := stdascii85.NewEncoder(&buf)
	if _, err := enc.Write(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("~>")
	return buf.Bytes(), nil
}

func (f ascii85Filter) EncodeString(text string) ([]byte, error) {
	return encodeString(f, text)
}

func (ascii85Filter) Decode(in []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	trimmed = bytes.TrimPrefix(trimmed, []byte("<~"))
	trimmed = bytes.TrimSuffix(trimmed, []byte("~>"))
	out, err := io.ReadAll(stdascii85.NewDecoder(bytes.NewReader(trimmed)))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encodeString(f Filter, text string) ([]byte, error) {
	data, err := EncodeText(text)
	if err != nil {
		return nil, err
	}
	return f.Encode(data)
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// Registry maps filter names to filters.
type Registry struct{ filters map[raw.Name]Filter }

// DefaultRegistry knows the filters of this package.
func DefaultRegistry() *Registry {
	r := &Registry{}
	r.Register(NewFlate())
	r.Register(NewASCIIHex())
	r.Register(NewASCII85())
	return r
}

func (r *Registry) Register(f Filter) {
	if r.filters == nil {
		r.filters = make(map[raw.Name]Filter)
	}
	r.filters[f.Name()] = f
}

// Lookup accepts names with or without the leading slash.
func (r *Registry) Lookup(name string) (Filter, bool) {
	f, ok := r.filters[raw.Name(strings.TrimPrefix(name, "/"))]
	return f, ok
}
