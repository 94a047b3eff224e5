package xref

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/pdfwrite/ir/raw"
)

// Entry is one line of a classic cross-reference table.
type Entry struct {
	Offset int64
	Gen    int
	InUse  bool
}

// Trailer holds the trailer entries this package understands.
type Trailer struct {
	Size int
	Root raw.ObjectRef
	Info raw.ObjectRef
	ID   [2]string
}

// Table holds object offsets for a classic xref table.
type Table struct {
	entries   map[int]Entry
	trailer   Trailer
	xrefStart int64
}

// Lookup returns the offset and generation of an object in use.
func (t *Table) Lookup(objNum int) (offset int64, gen int, found bool) {
	e, ok := t.entries[objNum]
	if !ok || !e.InUse {
		return 0, 0, false
	}
	return e.Offset, e.Gen, true
}

// Entry returns the raw entry for objNum, free or not.
func (t *Table) Entry(objNum int) (Entry, bool) {
	e, ok := t.entries[objNum]
	return e, ok
}

// Objects returns the numbers of objects in use, ascending.
func (t *Table) Objects() []int { return t.numbers(true) }

// Free returns the numbers of free entries other than the list head.
func (t *Table) Free() []int { return t.numbers(false) }

func (t *Table) numbers(inUse bool) []int {
	out := make([]int, 0, len(t.entries))
	for k, e := range t.entries {
		if e.InUse == inUse && k != 0 {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

// Len is the number of entries including the free list head.
func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Trailer() Trailer { return t.trailer }

// Start is the offset of the xref keyword.
func (t *Table) Start() int64 { return t.xrefStart }

var (
	sizeRe = regexp.MustCompile(`/Size\s+(\d+)`)
	rootRe = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
	infoRe = regexp.MustCompile(`/Info\s+(\d+)\s+(\d+)\s+R`)
	idRe   = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]*)>\s*<([0-9A-Fa-f]*)>\s*\]`)
)

// Resolve reads the classic xref table and trailer that startxref points
// at.
func Resolve(ctx context.Context, r io.ReaderAt) (*Table, error) {
	data := readAll(r)

	startxref := bytes.LastIndex(data, []byte("startxref"))
	if startxref < 0 {
		return nil, errors.New("startxref not found")
	}
	rest := data[startxref+len("startxref"):]
	lines := bufio.NewScanner(bytes.NewReader(rest))
	var offset int64
	for lines.Scan() {
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}
		val, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse startxref: %w", err)
		}
		offset = val
		break
	}

	if offset <= 0 || offset >= int64(len(data)) {
		return nil, fmt.Errorf("xref offset out of range: %d", offset)
	}

	tableData := data[offset:]
	sc := bufio.NewScanner(bytes.NewReader(tableData))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "xref" {
		return nil, errors.New("xref keyword not found at offset")
	}

	entries := make(map[int]Entry)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "trailer") {
			break
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid xref subsection header: %q", line)
		}
		startObj, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse xref start: %w", err)
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse xref count: %w", err)
		}

		for i := 0; i < count; i++ {
			if !sc.Scan() {
				return nil, errors.New("unexpected end of xref section")
			}
			entryLine := strings.TrimSpace(sc.Text())
			fields := strings.Fields(entryLine)
			if len(fields) < 3 {
				return nil, fmt.Errorf("invalid xref entry: %q", entryLine)
			}
			off, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse xref offset: %w", err)
			}
			gen, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("parse xref gen: %w", err)
			}
			entries[startObj+i] = Entry{Offset: off, Gen: gen, InUse: fields[2] == "n"}
		}
	}

	trailerAt := bytes.Index(tableData, []byte("trailer"))
	if trailerAt < 0 {
		return nil, errors.New("trailer not found")
	}
	trailer, err := parseTrailer(tableData[trailerAt:])
	if err != nil {
		return nil, err
	}
	return &Table{entries: entries, trailer: trailer, xrefStart: offset}, nil
}

func parseTrailer(data []byte) (Trailer, error) {
	if end := bytes.Index(data, []byte("startxref")); end >= 0 {
		data = data[:end]
	}
	var t Trailer
	m := sizeRe.FindSubmatch(data)
	if m == nil {
		return t, errors.New("trailer has no /Size")
	}
	t.Size, _ = strconv.Atoi(string(m[1]))
	if m := rootRe.FindSubmatch(data); m != nil {
		t.Root = parseRef(m)
	} else {
		return t, errors.New("trailer has no /Root")
	}
	if m := infoRe.FindSubmatch(data); m != nil {
		t.Info = parseRef(m)
	}
	if m := idRe.FindSubmatch(data); m != nil {
		t.ID = [2]string{string(m[1]), string(m[2])}
	}
	return t, nil
}

func parseRef(m [][]byte) raw.ObjectRef {
	num, _ := strconv.Atoi(string(m[1]))
	gen, _ := strconv.Atoi(string(m[2]))
	return raw.ObjectRef{Num: num, Gen: gen}
}

func readAll(r io.ReaderAt) []byte {
	var buf bytes.Buffer
	const chunk = int64(32 * 1024)
	for off := int64(0); ; off += chunk {
		tmp := make([]byte, chunk)
		n, err := r.ReadAt(tmp, off)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			break
		}
		if int64(n) < chunk {
			break
		}
	}
	return buf.Bytes()
}
