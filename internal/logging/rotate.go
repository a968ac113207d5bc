// Package logging provides the size-rotated log file writer.
package logging

import (
	"os"
	"sync"
)

// Writer appends to a log file and rotates it aside to <path>.1 whenever the
// next write would push it past maxBytes. One rotated generation is kept.
// The process never exits on its own, so the size check has to happen on the
// write path rather than at startup.
type Writer struct {
	path string
	max  int64

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewWriter opens (or creates) the log file at path.
func NewWriter(path string, maxBytes int64) (*Writer, error) {
	w := &Writer{path: path, max: maxBytes}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.size = info.Size()
	return nil
}

// Write implements io.Writer. A failed rotation degrades to appending to the
// current file; only a failed reopen surfaces an error.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f != nil && w.size > 0 && w.size+int64(len(p)) > w.max {
		w.rotate()
	}
	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *Writer) rotate() {
	_ = w.f.Close()
	w.f = nil
	rotated := w.path + ".1"
	_ = os.Remove(rotated)
	_ = os.Rename(w.path, rotated)
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
