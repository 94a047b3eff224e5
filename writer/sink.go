package writer

import (
	"bufio"
	"io"
)

// Sink is the output of a Writer. Position is the number of bytes accepted
// so far, buffered or not, so it is the file offset of the next byte.
type Sink interface {
	WriteText(s string) error
	WriteBytes(p []byte) error
	Flush() error
	Position() int64
}

type posSink struct {
	out io.Writer
	bw  *bufio.Writer
	pos int64
}

func newSink(w io.Writer) *posSink {
	return &posSink{out: w, bw: bufio.NewWriter(w)}
}

func (s *posSink) WriteText(str string) error {
	n, err := s.bw.WriteString(str)
	s.pos += int64(n)
	return err
}

// WriteBytes flushes pending text and hands p to the destination as is.
func (s *posSink) WriteBytes(p []byte) error {
	if err := s.bw.Flush(); err != nil {
		return err
	}
	n, err := s.out.Write(p)
	s.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

func (s *posSink) Flush() error { return s.bw.Flush() }

func (s *posSink) Position() int64 { return s.pos }
