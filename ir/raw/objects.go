package raw

import (
	"strings"
	"unicode/utf8"
)

// Dict is a dictionary that keeps its keys in insertion order. Setting an
// existing key replaces the value in place.
type Dict struct {
	keys []Name
	kv   map[Name]Value
}

// NewDict returns an empty dictionary.
func NewDict() *Dict { return &Dict{kv: make(map[Name]Value)} }

func (d *Dict) Set(key Name, value Value) *Dict {
	if d.kv == nil {
		d.kv = make(map[Name]Value)
	}
	if _, ok := d.kv[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.kv[key] = value
	return d
}

func (d *Dict) Get(key Name) (Value, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.kv[key]
	return v, ok
}

func (d *Dict) Has(key Name) bool {
	_, ok := d.Get(key)
	return ok
}

func (d *Dict) Delete(key Name) {
	if d == nil {
		return
	}
	if _, ok := d.kv[key]; !ok {
		return
	}
	delete(d.kv, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Name {
	if d == nil {
		return nil
	}
	return append([]Name(nil), d.keys...)
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// String renders the dictionary inline, as used for nested dictionaries.
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteString("<<")
	for _, k := range d.Keys() {
		b.WriteByte(' ')
		b.WriteString(k.String())
		b.WriteByte(' ')
		b.WriteString(d.kv[k].String())
	}
	b.WriteString(" >>")
	return b.String()
}

func (*Dict) isValue() {}

// Object is the body of one indirect object: a dictionary and an optional
// stream. Both may be empty.
type Object struct {
	Dict   *Dict
	Stream Stream
}

// NewObject returns an object with an empty dictionary and no stream.
func NewObject() *Object { return &Object{Dict: NewDict()} }

// Set stores a dictionary entry, creating the dictionary when needed.
func (o *Object) Set(key Name, value Value) *Object {
	if o.Dict == nil {
		o.Dict = NewDict()
	}
	o.Dict.Set(key, value)
	return o
}

// HasBody reports whether the object is written with a dictionary.
func (o *Object) HasBody() bool {
	return o != nil && (o.Dict.Len() > 0 || o.Stream != nil)
}

// Stream is the content attached to an object. Exactly two kinds exist:
// *TextStream and *BinaryStream.
type Stream interface {
	// Len is the unencoded size: characters for text, bytes for binary.
	Len() int
	isStream()
}

// TextStream holds operator text. Its bytes are produced by the writer,
// which applies the configured text encoding and filter.
type TextStream struct {
	b strings.Builder
}

// NewTextStream returns a text stream holding s.
func NewTextStream(s string) *TextStream {
	ts := &TextStream{}
	ts.b.WriteString(s)
	return ts
}

func (s *TextStream) WriteString(str string) (int, error) { return s.b.WriteString(str) }
func (s *TextStream) Write(p []byte) (int, error)         { return s.b.Write(p) }
func (s *TextStream) String() string                      { return s.b.String() }
func (s *TextStream) Len() int                            { return utf8.RuneCountInString(s.b.String()) }
func (*TextStream) isStream()                             {}

// BinaryStream holds bytes that were already encoded by Filter.
type BinaryStream struct {
	Filter Name
	Data   []byte
}

// NewBinaryStream wraps data that is encoded with the named filter.
func NewBinaryStream(filter Name, data []byte) *BinaryStream {
	return &BinaryStream{Filter: filter, Data: data}
}

func (s *BinaryStream) Len() int { return len(s.Data) }
func (*BinaryStream) isStream()  {}
