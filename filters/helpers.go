package filters

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultTextEncoding is the byte encoding of text streams. It matches the
// WinAnsiEncoding declared by the fonts of this module.
var DefaultTextEncoding encoding.Encoding = charmap.Windows1252

// EncodeText converts text with DefaultTextEncoding.
func EncodeText(text string) ([]byte, error) {
	return EncodeTextWith(nil, text)
}

// EncodeTextWith converts text with enc, or DefaultTextEncoding when enc is
// nil. Runes the encoding cannot represent are replaced.
func EncodeTextWith(enc encoding.Encoding, text string) ([]byte, error) {
	if enc == nil {
		enc = DefaultTextEncoding
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return out, nil
}

// ParseContentFilter maps a user supplied filter name to a filter. "none"
// and the empty string select no filter.
func ParseContentFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimPrefix(name, "/")) {
	case "", "none":
		return nil, nil
	case "flate", "deflate", "flatedecode":
		return NewFlate(), nil
	case "hex", "asciihex", "asciihexdecode":
		return NewASCIIHex(), nil
	case "a85", "ascii85", "ascii85decode":
		return NewASCII85(), nil
	}
	return nil, fmt.Errorf("filters: unknown content filter %q", name)
}
