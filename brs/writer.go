package brs

import (
	"bytes"
	"fmt"
)

const indentWidth = 2

// writer accumulates indented lines. Function bodies and loop bodies are
// staged in child writers and appended once complete.
type writer struct {
	buf    bytes.Buffer
	indent int
}

func (w *writer) line(format string, args ...any) {
	for i := 0; i < w.indent*indentWidth; i++ {
		w.buf.WriteByte(' ')
	}
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *writer) blank() {
	w.buf.WriteByte('\n')
}

func (w *writer) in() { w.indent++ }

func (w *writer) out() {
	if w.indent == 0 {
		panic(internal("writer", "dedent below zero"))
	}
	w.indent--
}

// child returns an empty writer at the same indentation.
func (w *writer) child() *writer {
	return &writer{indent: w.indent}
}

func (w *writer) append(c *writer) {
	w.buf.Write(c.buf.Bytes())
}

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

func (w *writer) String() string { return w.buf.String() }
