package lexicon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

const sample = `;;; sample lexicon
HELLO  HH AH0 L OW1
HELLO(2)  HH EH0 L OW1
WORLD  W ER1 L D
well	W EH1 L
KNOWN  N OW1 N
DON'T  D OW1 N T
`

func writeLexicon(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.dict")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestParse(t *testing.T) {
	lex, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lex["HELLO"] != "HH AH0 L OW1" {
		t.Fatalf("alternate pronunciation should not override: %q", lex["HELLO"])
	}
	if lex["WELL"] != "W EH1 L" {
		t.Fatalf("tab separated entry: %q", lex["WELL"])
	}
	if len(lex) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(lex))
	}
}

func TestTranscribe(t *testing.T) {
	lex, _ := Parse(strings.NewReader(sample))
	cases := []struct{ in, want string }{
		{"hello", "HH AH0 L OW1"},
		{"Hello, World!", "HH AH0 L OW1 , W ER1 L D !"},
		{"well-known", "W EH1 L N OW1 N"},
		{"don't  panic", "D OW1 N T panic"},
		{"", ""},
	}
	for _, c := range cases {
		if got := lex.Transcribe(c.in); got != c.want {
			t.Fatalf("Transcribe(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPredictorBatch(t *testing.T) {
	p := writeLexicon(t, sample)
	pred, err := New(types.Variant{Name: "cmu", Location: p}, backend.Options{Lexicon: backend.LexiconOptions{CacheTTL: time.Minute}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := pred.PredictBatch(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(out) != 2 || out[0] != "HH AH0 L OW1" || out[1] != "W ER1 L D" {
		t.Fatalf("unexpected: %v", out)
	}
}

func TestLoadPicksUpChanges(t *testing.T) {
	p := writeLexicon(t, "HI  HH AY1\n")
	lex, err := Load(p, time.Minute)
	if err != nil || lex["HI"] != "HH AY1" {
		t.Fatalf("load: %v %v", lex, err)
	}
	if err := os.WriteFile(p, []byte("HI  HH IY1 X\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	lex, err = Load(p, time.Minute)
	if err != nil || lex["HI"] != "HH IY1 X" {
		t.Fatalf("changed lexicon not reloaded: %v %v", lex, err)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(types.Variant{Name: "x"}, backend.Options{}); err == nil {
		t.Fatalf("expected error for empty location")
	}
	if _, err := Factory(types.Variant{Name: "x", Location: filepath.Join(t.TempDir(), "missing.dict")}, backend.Options{}); err == nil {
		t.Fatalf("expected error for missing lexicon")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pred, err := New(types.Variant{Name: "cmu", Location: writeLexicon(t, sample)}, backend.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := pred.PredictBatch(ctx, []string{"hello"}); err == nil {
		t.Fatalf("expected context error")
	}
}
