package ingestion

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/hybridrag/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// Metadata keys set on loaded documents.
const (
	DocSource   = "source"
	DocEncoding = "encoding"
)

// DefaultEncodings is the fallback order used when none is configured.
var DefaultEncodings = []string{"utf-8-sig", "utf-8", "gb18030", "gbk", "latin1"}

var knownEncodings = map[string]encoding.Encoding{
	"utf-8":     unicode.UTF8,
	"utf8":      unicode.UTF8,
	"utf-8-sig": unicode.UTF8BOM,
	"gb18030":   simplifiedchinese.GB18030,
	"gbk":       simplifiedchinese.GBK,
	"latin1":    charmap.ISO8859_1,
	"latin-1":   charmap.ISO8859_1,
}

var replacementChar = []byte(string(utf8.RuneError))

// Document is the decoded text of one source file.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Loader reads text files, trying each configured encoding in order.
type Loader struct {
	encodings []string
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEncodings sets the encoding fallback order.
func WithEncodings(names ...string) LoaderOption {
	return func(l *Loader) {
		l.encodings = append([]string(nil), names...)
	}
}

// WithLoaderLogger sets a custom logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader. Every encoding name is resolved up front so a
// typo surfaces at construction rather than on the first load.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		encodings: append([]string(nil), DefaultEncodings...),
		logger:    slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.encodings) == 0 {
		return nil, ErrNoEncodings
	}
	for _, name := range l.encodings {
		if _, err := lookupEncoding(name); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Encodings returns the configured fallback order.
func (l *Loader) Encodings() []string {
	return append([]string(nil), l.encodings...)
}

// Load reads path and decodes it with the first encoding that yields clean text.
func (l *Loader) Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, path, err)
	}

	for _, name := range l.encodings {
		text, ok := l.decode(raw, name)
		if !ok {
			l.logger.Debug("encoding rejected", "path", path, "encoding", name)
			continue
		}
		l.logger.Info("document loaded", "path", path, "encoding", name, "bytes", len(raw))
		return &Document{
			Text: text,
			Metadata: map[string]string{
				DocSource:   path,
				DocEncoding: name,
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s: no encoding succeeded (tried %s)",
		core.ErrLoad, path, strings.Join(l.encodings, ", "))
}

// decode reports whether raw decodes cleanly under the named encoding.
// Any U+FFFD beyond those already present in raw means the decoder
// substituted bad input, which counts as a failure.
func (l *Loader) decode(raw []byte, name string) (string, bool) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(out) {
		return "", false
	}
	if bytes.Count(out, replacementChar) > bytes.Count(raw, replacementChar) {
		return "", false
	}
	return string(out), true
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := knownEncodings[key]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}
