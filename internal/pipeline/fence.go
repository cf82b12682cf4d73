package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrUnknownStyle indicates a chroma style name that is not registered.
var ErrUnknownStyle = errors.New("unknown highlight style")

// filenameAttr carries the filename parsed from a "lang:filename" info string.
var filenameAttr = []byte("data-filename")

// fenceExtension highlights fenced code with chroma CSS classes and wraps
// every block in a container that can show a filename header.
type fenceExtension struct{}

func (e *fenceExtension) Extend(m goldmark.Markdown) {
	highlighting.NewHighlighting(
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true), // CSS classes; the stylesheet comes from HighlightCSS
		),
		highlighting.WithWrapperRenderer(renderCodeWrapper),
	).Extend(m)
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&fenceInfoTransformer{}, 100),
	))
}

// fenceInfoTransformer splits "lang:filename" info strings. The language
// keeps the Info segment; the filename moves to an attribute.
type fenceInfoTransformer struct{}

func (t *fenceInfoTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok || block.Info == nil {
			return ast.WalkContinue, nil
		}
		seg := block.Info.Segment
		info := seg.Value(source)
		word := info
		if i := bytes.IndexAny(info, " \t"); i >= 0 {
			word = info[:i]
		}
		colon := bytes.IndexByte(word, ':')
		if colon < 0 {
			return ast.WalkSkipChildren, nil
		}
		if filename := bytes.TrimSpace(word[colon+1:]); len(filename) > 0 {
			block.SetAttribute(filenameAttr, filename)
		}
		block.Info = ast.NewTextSegment(text.NewSegment(seg.Start, seg.Start+colon))
		return ast.WalkSkipChildren, nil
	})
}

// renderCodeWrapper writes the container around a code block. When chroma did
// not highlight the block, it also writes the <pre><code> pair itself.
func renderCodeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	if !entering {
		if !ctx.Highlighted() {
			_, _ = w.WriteString("</code></pre>")
		}
		_, _ = w.WriteString("</div>\n")
		return
	}

	_, _ = w.WriteString(`<div class="code-block-container"`)
	if attrs := ctx.Attributes(); attrs != nil {
		if v, ok := attrs.GetString("data-line"); ok {
			if line, ok := v.([]byte); ok {
				_, _ = fmt.Fprintf(w, ` data-line="%s"`, util.EscapeHTML(line))
			}
		}
	}
	_ = w.WriteByte('>')

	if attrs := ctx.Attributes(); attrs != nil {
		if v, ok := attrs.Get(filenameAttr); ok {
			if name, ok := v.([]byte); ok && len(name) > 0 {
				_, _ = w.WriteString(`<div class="code-block-filename-container"><span class="code-block-filename">`)
				_, _ = w.Write(util.EscapeHTML(name))
				_, _ = w.WriteString(`</span></div>`)
			}
		}
	}

	if ctx.Highlighted() {
		return
	}
	_, _ = w.WriteString("<pre><code")
	if lang, ok := ctx.Language(); ok && len(lang) > 0 {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
}

// HighlightCSS writes the stylesheet for the chroma classes emitted in code blocks.
func HighlightCSS(w io.Writer, style string) error {
	if style == "" {
		style = DefaultHighlightStyle
	}
	s, ok := styles.Registry[style]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, s)
}

// IsHighlightStyle reports whether style names a registered chroma style.
func IsHighlightStyle(style string) bool {
	_, ok := styles.Registry[style]
	return ok
}

// HighlightStyles returns the registered chroma style names, sorted.
func HighlightStyles() []string {
	return styles.Names()
}
