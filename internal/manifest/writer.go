package manifest

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// Writer writes records as JSON Lines.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a buffered Writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64*1024)}
}

// Write appends rec followed by a newline.
func (w *Writer) Write(rec *Record) error {
	b, err := rec.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// AtomicFile is written under a temporary name in the destination directory
// and only appears at its final path on Commit.
type AtomicFile struct {
	f    *os.File
	path string
	done bool
}

// CreateAtomic opens a temporary file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(f.Name(), 0o644)
	return &AtomicFile{f: f, path: path}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) { return a.f.Write(p) }

// Path returns the final destination path.
func (a *AtomicFile) Path() string { return a.path }

// Commit syncs the temporary file and renames it onto the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return os.ErrClosed
	}
	a.done = true
	tmp := a.f.Name()
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, a.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	_ = syncDir(filepath.Dir(a.path))
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.f.Close()
	return os.Remove(a.f.Name())
}

// syncDir fsyncs the parent directory, best effort.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
