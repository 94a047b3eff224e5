package xref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

var objHeaderRe = regexp.MustCompile(`(?m)^(\d+) (\d+) obj\b`)

// Scan finds every "<num> <gen> obj" header that starts a line, without
// looking at the xref table. Later definitions of a number win, as in
// incremental updates.
func Scan(ctx context.Context, r io.ReaderAt) (map[int]Entry, error) {
	data := readAll(r)
	entries := make(map[int]Entry)
	for _, m := range objHeaderRe.FindAllSubmatchIndex(data, -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		entries[num] = Entry{Offset: int64(m[0]), Gen: gen, InUse: true}
	}
	if len(entries) == 0 {
		return nil, errors.New("scan: no objects found")
	}
	return entries, nil
}

var lengthRe = regexp.MustCompile(`/Length (\d+)\s`)

// Verify resolves the xref table and checks that every entry in use points
// at the header of its object and that every stream of those objects is
// exactly /Length bytes long.
func Verify(ctx context.Context, r io.ReaderAt) (*Table, error) {
	t, err := Resolve(ctx, r)
	if err != nil {
		return nil, err
	}
	data := readAll(r)
	if t.trailer.Size != t.Len() {
		return t, fmt.Errorf("trailer /Size %d, xref has %d entries", t.trailer.Size, t.Len())
	}
	if _, _, ok := t.Lookup(t.trailer.Root.Num); !ok {
		return t, fmt.Errorf("root %s is not in use", t.trailer.Root)
	}

	var errs []error
	for _, num := range t.Objects() {
		if err := ctx.Err(); err != nil {
			return t, err
		}
		off, gen, _ := t.Lookup(num)
		if err := verifyObject(data, num, gen, off); err != nil {
			errs = append(errs, err)
		}
	}
	return t, errors.Join(errs...)
}

func verifyObject(data []byte, num, gen int, off int64) error {
	header := []byte(fmt.Sprintf("%d %d obj", num, gen))
	if off < 0 || off+int64(len(header)) > int64(len(data)) || !bytes.Equal(data[off:off+int64(len(header))], header) {
		return fmt.Errorf("object %d: offset %d does not point at %q", num, off, header)
	}
	body := data[off:]
	end := bytes.Index(body, []byte("endobj"))
	stream := bytes.Index(body, []byte(">>\nstream\n"))
	if stream < 0 || (end >= 0 && end < stream) {
		if end < 0 {
			return fmt.Errorf("object %d: endobj not found", num)
		}
		return nil
	}
	m := lengthRe.FindAllSubmatch(body[:stream+3], -1)
	if m == nil {
		return fmt.Errorf("object %d: stream without /Length", num)
	}
	length, _ := strconv.Atoi(string(m[len(m)-1][1]))
	start := stream + len(">>\nstream\n")
	tail := []byte("\nendstream\nendobj")
	if start+length+len(tail) > len(body) || !bytes.Equal(body[start+length:start+length+len(tail)], tail) {
		return fmt.Errorf("object %d: /Length %d does not end at endstream", num, length)
	}
	return nil
}
