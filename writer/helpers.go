package writer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/wudi/pdfwrite/ir/raw"
)

func formatDate(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h := offset / 3600
	m := (offset % 3600) / 60
	return fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d%c%02d'%02d'",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), sign, h, m)
}

// fileID returns the identifier written twice in the trailer: 16 bytes as
// lowercase hex.
func (w *Writer) fileID() string {
	if !w.cfg.Deterministic {
		id := make([]byte, 16)
		if _, err := rand.Read(id); err == nil {
			return hex.EncodeToString(id)
		}
	}
	return hex.EncodeToString(w.deterministicIDSeed())
}

func (w *Writer) deterministicIDSeed() []byte {
	h := sha256.New()
	cfg := w.cfg
	for _, s := range []string{string(cfg.Version), cfg.Title, cfg.Author, cfg.Subject, cfg.Keywords, cfg.Creator, cfg.Producer, w.created} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%d-%d-%d", len(w.pages), len(w.offsets), w.sink.Position())
	return h.Sum(nil)[:16]
}

// currentUser names the account running the process, for the Author entry.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		name := u.Username
		// DOMAIN\user on Windows
		if i := strings.LastIndexByte(name, '\\'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	for _, env := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

func nonBlank(s string) bool { return strings.TrimSpace(s) != "" }

// filterArray renders a filter name the way stream dictionaries carry it.
func filterArray(name raw.Name) string {
	return "[" + name.String() + "]"
}
