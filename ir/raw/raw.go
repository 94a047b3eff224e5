// Package raw is the in-memory object model of the writer: indirect object
// identities, dictionary values and the two stream kinds.
package raw

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return strconv.Itoa(r.Num) + " " + strconv.Itoa(r.Gen) + " R" }

// DefaultName derives the resource name used for XObjects, e.g. XO7.
func (r ObjectRef) DefaultName() Name { return Name("XO" + strconv.Itoa(r.Num)) }

// IsZero reports whether r was never issued.
func (r ObjectRef) IsZero() bool { return r.Num == 0 }

func (ObjectRef) isValue() {}

// Value is a dictionary or array value that is already formatted at the point
// of insertion. The set of implementations is closed.
type Value interface {
	String() string
	isValue()
}

// Name object, stored without the leading slash.
type Name string

func (n Name) String() string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			b.WriteByte('#')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (Name) isValue() {}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// Integer object
type Integer int64

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (Integer) isValue()         {}

// Real object, written with at most three decimals.
type Real float64

func (r Real) String() string { return FormatNumber(float64(r)) }
func (Real) isValue()         {}

// FormatNumber renders f the way content streams and dictionaries expect it:
// fixed point, at most three decimals, no trailing zeros.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	s := strconv.FormatFloat(f, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// Bool object
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) isValue() {}

// String is a text string. ASCII text is written as an escaped literal,
// anything else as UTF-16BE hex with a byte order mark.
type String string

func (s String) String() string {
	for _, r := range s {
		if r >= 0x80 {
			u := utf16.Encode([]rune(string(s)))
			buf := make([]byte, 2, 2+2*len(u))
			buf[0], buf[1] = 0xfe, 0xff
			for _, c := range u {
				buf = append(buf, byte(c>>8), byte(c))
			}
			return HexString(buf).String()
		}
	}
	return "(" + EscapeString(string(s)) + ")"
}
func (String) isValue() {}

// EscapeString escapes the characters that are special inside a literal
// string.
func EscapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HexString object
type HexString []byte

func (h HexString) String() string { return "<" + strings.ToUpper(hex.EncodeToString(h)) + ">" }
func (HexString) isValue()         {}

// Array object
type Array []Value

func (a Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
func (Array) isValue() {}

// Refs builds an array of references.
func Refs(refs []ObjectRef) Array {
	arr := make(Array, len(refs))
	for i, r := range refs {
		arr[i] = r
	}
	return arr
}

// Numbers builds an array of reals.
func Numbers(vals ...float64) Array {
	arr := make(Array, len(vals))
	for i, v := range vals {
		arr[i] = Real(v)
	}
	return arr
}

// Raw is a value that is already in its final textual form.
type Raw string

func (r Raw) String() string { return string(r) }
func (Raw) isValue()         {}
