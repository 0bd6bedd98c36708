package listing

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Recognizer detects, parses and post-processes one listing dialect.
//
// Implementations must be stateless and safe for concurrent use. Recognizes
// and ParseEntry must accept arbitrary input, including the empty string,
// without panicking. PostProcess may filter, reorder or merge entries but
// must not introduce entries that were not derived from its input.
type Recognizer interface {
	// Name identifies the dialect in diagnostics (e.g. "unix").
	Name() string

	// Recognizes reports whether line looks like this dialect.
	Recognizes(line string) bool

	// ParseEntry converts one line. It returns false if the line cannot be parsed.
	ParseEntry(line string) (*Entry, bool)

	// PostProcess is applied once to all entries parsed from a listing.
	PostProcess(entries []*Entry) []*Entry
}

// DefaultRecognizers returns the built-in recognizers in priority order:
// DOS, Unix, EPLF and MLSD. MLSD must stay last because it accepts a line
// consisting of a bare file name.
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		&DOSRecognizer{},
		&UnixRecognizer{},
		&EPLFRecognizer{},
		&MLSDRecognizer{},
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithRecognizer prepends a custom recognizer so it is probed before the
// ones already configured.
func WithRecognizer(r Recognizer) Option {
	return func(p *Parser) {
		p.recognizers = append([]Recognizer{r}, p.recognizers...)
	}
}

// WithRecognizers replaces the configured recognizers. Order is the probing order.
func WithRecognizers(rs ...Recognizer) Option {
	return func(p *Parser) {
		p.recognizers = append([]Recognizer(nil), rs...)
	}
}

// WithLogger sets the logger used for format detection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser turns a raw directory listing into entries. A Parser is immutable
// once built and may be shared between goroutines.
type Parser struct {
	recognizers []Recognizer
	logger      *slog.Logger
}

// New returns a Parser using DefaultRecognizers, modified by opts.
func New(opts ...Option) *Parser {
	p := &Parser{
		recognizers: DefaultRecognizers(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recognizers returns a copy of the recognizers in probing order.
func (p *Parser) Recognizers() []Recognizer {
	return append([]Recognizer(nil), p.recognizers...)
}

var newlineRegex = regexp.MustCompile(`\r?\n`)

// Parse parses a complete listing.
//
// Blank lines and lines starting with "total" are ignored. The last
// remaining line selects the format: the first recognizer accepting it is
// used for every line, lines it cannot parse are dropped, and its
// PostProcess produces the result. An empty listing yields no entries and
// no error. If no recognizer accepts the probe line, Parse returns an
// *UnrecognizedFormatError.
func (p *Parser) Parse(raw string) ([]*Entry, error) {
	lines := dataLines(raw)
	if len(lines) == 0 {
		return []*Entry{}, nil
	}

	probe := lines[len(lines)-1]
	r := p.selectRecognizer(probe)
	if r == nil {
		err := &UnrecognizedFormatError{
			ProbeLine: probe,
			Tried:     p.names(),
		}
		p.logger.Debug("no listing format matched", "error", err)
		return nil, err
	}

	entries := make([]*Entry, 0, len(lines))
	for _, line := range lines {
		if entry, ok := r.ParseEntry(line); ok && entry != nil {
			entries = append(entries, entry)
		}
	}
	return r.PostProcess(entries), nil
}

// Detect returns the recognizer that Parse would use for raw, or nil if the
// listing is empty or no recognizer matches.
func (p *Parser) Detect(raw string) Recognizer {
	lines := dataLines(raw)
	if len(lines) == 0 {
		return nil
	}
	return p.selectRecognizer(lines[len(lines)-1])
}

func (p *Parser) selectRecognizer(line string) Recognizer {
	for _, r := range p.recognizers {
		if r.Recognizes(line) {
			return r
		}
	}
	return nil
}

func (p *Parser) names() []string {
	names := make([]string, 0, len(p.recognizers))
	for _, r := range p.recognizers {
		names = append(names, r.Name())
	}
	return names
}

// dataLines splits raw into lines and drops blank and "total" lines.
func dataLines(raw string) []string {
	var lines []string
	for _, line := range newlineRegex.Split(raw, -1) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "total") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var defaultParser = New()

// Parse parses raw with the built-in recognizers.
func Parse(raw string) ([]*Entry, error) {
	return defaultParser.Parse(raw)
}
