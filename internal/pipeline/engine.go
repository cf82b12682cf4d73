package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-md2html/internal/embed"
	"github.com/alnah/go-md2html/internal/i18n"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultPlatformOrigin is the origin whose links are not marked nofollow.
const DefaultPlatformOrigin = "https://zenn.dev"

// DefaultHighlightStyle is the chroma style used by the css command.
const DefaultHighlightStyle = "github"

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// Compile-time interface implementation check.
var _ HTMLConverter = (*Engine)(nil)

// Config selects the behavior of an Engine. It is read once by NewEngine.
type Config struct {
	// Preview tags top-level blocks with data-line for scroll sync.
	Preview bool

	// PlatformOrigin is the scheme and host of the platform, without trailing slash.
	PlatformOrigin string

	// Registry resolves @[name](arg) directives.
	Registry *embed.Registry

	// Printer localizes generated headings.
	Printer *i18n.Printer

	// Typesetter renders math. Defaults to a KaTeX placeholder writer.
	Typesetter Typesetter

	// MathMacros expands TeX control words before typesetting.
	MathMacros map[string]string
}

// DefaultMathMacros returns the macro table applied when none is configured.
func DefaultMathMacros() map[string]string {
	return map[string]string{`\RR`: `\mathbb{R}`}
}

func (c Config) withDefaults() Config {
	if c.PlatformOrigin == "" {
		c.PlatformOrigin = DefaultPlatformOrigin
	}
	if c.Printer == nil {
		c.Printer = i18n.NewPrinter(i18n.Default)
	}
	if c.Registry == nil {
		c.Registry = embed.NewRegistry(embed.WithPrinter(c.Printer))
	}
	if c.MathMacros == nil {
		c.MathMacros = DefaultMathMacros()
	}
	if c.Typesetter == nil {
		c.Typesetter = NewKaTeXTypesetter(c.MathMacros)
	}
	return c
}

// Engine converts Markdown to an HTML fragment with the platform's extension chain.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	md      goldmark.Markdown
	preview bool
}

// NewEngine builds the extension chain once. The order of the extensions
// below, together with their priorities, defines which syntax wins.
func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()

	extensions := []goldmark.Extender{
		&fenceExtension{},
		&imageSizeExtension{},
		&headingIDExtension{},
		headingAnchors(),
		&containerExtension{},
		extension.Footnote,
		&footnoteTitleExtension{printer: cfg.Printer},
		extension.TaskList,
		&taskListExtension{},
		&inlineCommentExtension{},
		&directiveExtension{registry: cfg.Registry},
		&mathExtension{typesetter: cfg.Typesetter},
		&linkAttributesExtension{origin: cfg.PlatformOrigin},
		extension.Table,
		extension.Strikethrough,
	}
	if cfg.Preview {
		extensions = append(extensions, &lineNumberExtension{})
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			// WithUnsafe is never set: raw HTML is escaped by inlineCommentExtension.
		),
	)
	return &Engine{md: md, preview: cfg.Preview}
}

// Preview reports whether the engine tags blocks with source line numbers.
func (e *Engine) Preview() bool {
	return e.preview
}

// Render converts source to an HTML fragment.
func (e *Engine) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := e.md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.Bytes(), nil
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (e *Engine) ToHTML(ctx context.Context, content string) (string, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		out, err := e.Render([]byte(content))
		done <- result{html: string(out), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
