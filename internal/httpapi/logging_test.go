package httpapi

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	// query param ?log=debug
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	// legacy query param ?log=1
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("legacy query override failed: %v", got)
	}
	// header X-Log-Level
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	// no override falls back to the process default
	SetDefaultLogLevel("info")
	defer SetDefaultLogLevel("")
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r); got != LevelInfo {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestLogEnd_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	r := httptest.NewRequest("POST", "/convert", nil)
	logStart(r, LevelInfo, "convert", "cmudict")
	logEnd(r, LevelInfo, "convert", 404, time.Now(), errors.New("model not found: x"))

	out := buf.String()
	if !strings.Contains(out, `"message":"convert start"`) || !strings.Contains(out, `"model":"cmudict"`) {
		t.Fatalf("missing start line: %q", out)
	}
	if !strings.Contains(out, `"status":404`) || !strings.Contains(out, "model not found") {
		t.Fatalf("missing end line: %q", out)
	}
}

func TestLogEnd_ErrorLevelSkipsSuccess(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	r := httptest.NewRequest("POST", "/convert", nil)
	logStart(r, LevelError, "convert", "")
	logEnd(r, LevelError, "convert", 200, time.Now(), nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output at error level for success, got %q", buf.String())
	}
	logEnd(r, LevelError, "convert", 500, time.Now(), errors.New("boom"))
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}
