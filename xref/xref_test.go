package xref_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfwrite/ir/raw"
	"github.com/wudi/pdfwrite/xref"
)

func buildSimplePDF(streamLength int) ([]byte, map[int]int64) {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.4\n")

	offsets := make(map[int]int64)

	offsets[1] = int64(buf.Len())
	buf.WriteString("1 0 obj\n<<\n/Type /Catalog\n/Pages 2 0 R\n>>\nendobj\n")

	offsets[2] = int64(buf.Len())
	buf.WriteString("2 0 obj\n<<\n/Type /Pages\n/Count 0\n/Kids []\n>>\nendobj\n")

	offsets[4] = int64(buf.Len())
	fmt.Fprintf(buf, "4 0 obj\n<<\n/Length %d\n>>\nstream\nBT ET\nendstream\nendobj\n", streamLength)

	xrefOffset := buf.Len()
	buf.WriteString("xref\r\n0 5\r\n")
	buf.WriteString("0000000000 65535 f\r\n")
	for i := 1; i <= 4; i++ {
		if off, ok := offsets[i]; ok {
			fmt.Fprintf(buf, "%010d 00000 n\r\n", off)
		} else {
			buf.WriteString("0000000000 00000 f\r\n")
		}
	}
	buf.WriteString("trailer\n<<\n/Size 5\n/Root 1 0 R\n/ID [<00ff><00ff>]\n>>\n")
	buf.WriteString("startxref\n")
	fmt.Fprintf(buf, "%d\n", xrefOffset)
	buf.WriteString("%%EOF\n")

	return buf.Bytes(), offsets
}

func TestResolveParsesXRefTable(t *testing.T) {
	pdf, offsets := buildSimplePDF(5)
	table, err := xref.Resolve(context.Background(), bytes.NewReader(pdf))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 4}, table.Objects()); diff != "" {
		t.Fatalf("objects (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3}, table.Free()); diff != "" {
		t.Fatalf("free (-want +got):\n%s", diff)
	}
	for num, want := range offsets {
		off, gen, ok := table.Lookup(num)
		if !ok || off != want || gen != 0 {
			t.Fatalf("object %d: got %d %d %v, want %d", num, off, gen, ok, want)
		}
	}
	if _, _, ok := table.Lookup(3); ok {
		t.Fatalf("free entry reported in use")
	}
	head, ok := table.Entry(0)
	if !ok || head.Gen != 65535 || head.InUse {
		t.Fatalf("unexpected list head %+v", head)
	}
	want := xref.Trailer{Size: 5, Root: raw.ObjectRef{Num: 1}, ID: [2]string{"00ff", "00ff"}}
	if diff := cmp.Diff(want, table.Trailer()); diff != "" {
		t.Fatalf("trailer (-want +got):\n%s", diff)
	}
	if table.Start() != int64(bytes.Index(pdf, []byte("xref"))) {
		t.Fatalf("xref start %d", table.Start())
	}
}

func TestResolveErrors(t *testing.T) {
	tests := map[string]string{
		"no startxref": "%PDF-1.4\n",
		"bad offset":   "%PDF-1.4\nstartxref\n999\n%%EOF\n",
		"not xref":     "%PDF-1.4\nabc\nstartxref\n9\n%%EOF\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := xref.Resolve(context.Background(), strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestVerify(t *testing.T) {
	pdf, _ := buildSimplePDF(5)
	if _, err := xref.Verify(context.Background(), bytes.NewReader(pdf)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	bad, _ := buildSimplePDF(4)
	_, err := xref.Verify(context.Background(), bytes.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "object 4") {
		t.Fatalf("expected length error for object 4, got %v", err)
	}
}

func TestVerifyDetectsShiftedOffsets(t *testing.T) {
	pdf, _ := buildSimplePDF(5)
	// one extra byte before the first object moves every object
	shifted := append([]byte("%PDF-1.4\n\n"), pdf[len("%PDF-1.4\n"):]...)
	if _, err := xref.Verify(context.Background(), bytes.NewReader(shifted)); err == nil {
		t.Fatalf("expected offset mismatch")
	}
}

func TestScan(t *testing.T) {
	pdf, offsets := buildSimplePDF(5)
	entries, err := xref.Scan(context.Background(), bytes.NewReader(pdf))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != len(offsets) {
		t.Fatalf("found %d objects, want %d", len(entries), len(offsets))
	}
	for num, off := range offsets {
		if entries[num].Offset != off {
			t.Fatalf("object %d at %d, want %d", num, entries[num].Offset, off)
		}
	}
	if _, err := xref.Scan(context.Background(), strings.NewReader("nothing here")); err == nil {
		t.Fatalf("expected error for input without objects")
	}
}
