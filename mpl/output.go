package mpl

import (
	"fmt"
	"io"
	"sync"
)

// WriterOutput prints echoes and diagnostics as plain lines.
type WriterOutput struct {
	mu   sync.Mutex
	out  io.Writer
	diag io.Writer
}

func NewWriterOutput(out, diag io.Writer) *WriterOutput {
	if diag == nil {
		diag = out
	}
	return &WriterOutput{out: out, diag: diag}
}

func (w *WriterOutput) Echo(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, text)
}

func (w *WriterOutput) Diagnostic(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.diag, err)
}

// BufferOutput collects output in memory.
type BufferOutput struct {
	mu          sync.Mutex
	Lines       []string
	Diagnostics []error
}

func (b *BufferOutput) Echo(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Lines = append(b.Lines, text)
}

func (b *BufferOutput) Diagnostic(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Diagnostics = append(b.Diagnostics, err)
}

// Drain returns everything collected so far and empties the buffer.
func (b *BufferOutput) Drain() ([]string, []error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines, diags := b.Lines, b.Diagnostics
	b.Lines, b.Diagnostics = nil, nil
	return lines, diags
}
