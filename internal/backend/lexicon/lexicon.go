// Package lexicon implements a pronouncing-dictionary G2P backend. Words
// found in a CMUdict-style lexicon are replaced by their phonemes; unknown
// words and punctuation pass through unchanged.
package lexicon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	gocache "github.com/patrickmn/go-cache"

	"g2pd/internal/backend"
	"g2pd/internal/common/fsutil"
	"g2pd/pkg/types"
)

const defaultCacheTTL = 10 * time.Minute

// lexicons caches parsed dictionaries keyed by path, size and mtime.
var lexicons = gocache.New(defaultCacheTTL, 2*defaultCacheTTL)

// Lexicon maps an upper-cased word to its space-separated phonemes.
type Lexicon map[string]string

// Parse reads a lexicon. Accepted lines are `WORD  PH1 PH2 ...` or
// `word<TAB>PH1 PH2 ...`; lines starting with ";;;" are comments. For
// alternate pronunciations (`WORD(2)`) the first entry wins.
func Parse(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;;") || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := fields[0]
		if i := strings.IndexByte(word, '('); i > 0 && strings.HasSuffix(word, ")") {
			word = word[:i]
		}
		word = strings.ToUpper(word)
		if _, seen := lex[word]; seen {
			continue
		}
		lex[word] = strings.Join(fields[1:], " ")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return lex, nil
}

// Load parses the lexicon at path, reusing a cached copy while the file is
// unchanged.
func Load(path string, ttl time.Duration) (Lexicon, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())
	if v, ok := lexicons.Get(key); ok {
		return v.(Lexicon), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lex, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	lexicons.Set(key, lex, ttl)
	return lex, nil
}

// Transcribe converts text word by word.
func (l Lexicon) Transcribe(text string) string {
	var out []string
	for _, tok := range tokenize(text) {
		out = append(out, l.word(tok))
	}
	return strings.Join(out, " ")
}

func (l Lexicon) word(tok string) string {
	if ph, ok := l[strings.ToUpper(tok)]; ok {
		return ph
	}
	if strings.Contains(tok, "-") {
		var parts []string
		for _, p := range strings.Split(tok, "-") {
			if p != "" {
				parts = append(parts, l.word(p))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return tok
}

// tokenize splits text into words (letters, digits, apostrophes, inner
// hyphens) and single punctuation marks; whitespace is dropped.
func tokenize(text string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, strings.Trim(cur.String(), "-"))
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '\'':
			cur.WriteRune(r)
		case r == '-' && cur.Len() > 0:
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			toks = append(toks, string(r))
		}
	}
	flush()
	out := toks[:0]
	for _, t := range toks {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Predictor serves a lexicon file.
type Predictor struct {
	path string
	ttl  time.Duration
}

// New returns a Predictor for the lexicon at the variant location.
func New(v types.Variant, opts backend.Options) (*Predictor, error) {
	path, err := fsutil.ExpandHome(v.Location)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("lexicon variant %q has no location", v.Name)
	}
	p := &Predictor{path: path, ttl: opts.Lexicon.CacheTTL}
	if _, err := Load(p.path, p.ttl); err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", p.path, err)
	}
	return p, nil
}

// Factory adapts New to backend.Factory.
func Factory(v types.Variant, opts backend.Options) (backend.Predictor, error) {
	p, err := New(v, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PredictBatch transcribes every grapheme string.
func (p *Predictor) PredictBatch(ctx context.Context, graphemes []string) ([]string, error) {
	lex, err := Load(p.path, p.ttl)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(graphemes))
	for i, g := range graphemes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = lex.Transcribe(g)
	}
	return out, nil
}
