package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterWritesLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, line := range []string{`{"a":"é"}`, `{"b":[1,2]}`} {
		if err := w.Write(mustParse(t, line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := buf.String(); got != "{\"a\":\"é\"}\n{\"b\":[1,2]}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAtomicFileCommit(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.json")
	if err := os.WriteFile(dest, []byte("previous\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	af, err := CreateAtomic(dest)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := af.Write([]byte("new\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// destination untouched until commit
	if b, _ := os.ReadFile(dest); string(b) != "previous\n" {
		t.Fatalf("destination changed before commit: %q", b)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if b, _ := os.ReadFile(dest); string(b) != "new\n" {
		t.Fatalf("unexpected content: %q", b)
	}
	if err := af.Abort(); err != nil {
		t.Fatalf("abort after commit should be a no-op: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestAtomicFileAbort(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.json")
	af, err := CreateAtomic(dest)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = af.Write([]byte("partial"))
	if err := af.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %v", entries)
	}
}

func TestCreateAtomicMissingDir(t *testing.T) {
	_, err := CreateAtomic(filepath.Join(t.TempDir(), "nope", "out.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestAtomicFileCommitThroughWriter(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.json")
	af, err := CreateAtomic(dst)
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	rec := NewRecord()
	if err := rec.Set("pred_text", "ˈhɛloʊ <b>"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w := NewWriter(af)
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination visible before commit: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := "{\"pred_text\":\"ˈhɛloʊ <b>\"}\n"; string(b) != want {
		t.Fatalf("got %q, want %q", b, want)
	}
	if err := af.Commit(); err == nil {
		t.Fatalf("second commit should fail")
	}
	if err := af.Abort(); err != nil {
		t.Fatalf("abort after commit: %v", err)
	}
}
