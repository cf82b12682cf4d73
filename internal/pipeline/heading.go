package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/anchor"

	"github.com/alnah/go-md2html/internal/embed"
)

// maxAnchorLevel is the deepest heading level that receives an ID and a
// permalink.
const maxAnchorLevel = 3

// headingIDExtension gives h1 to h3 an id from the render's parser.IDs.
// Deeper headings get none, so they neither link nor use up a slug.
type headingIDExtension struct{}

func (e *headingIDExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&headingIDTransformer{}, 50), // before anchor at 100
	))
}

type headingIDTransformer struct{}

func (t *headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		if h.Level <= maxAnchorLevel {
			var value []byte
			if lines := h.Lines(); lines.Len() > 0 {
				value = lines.At(lines.Len() - 1).Value(reader.Source())
			}
			h.SetAttributeString("id", pc.IDs().Generate(value, ast.KindHeading))
		}
		return ast.WalkSkipChildren, nil
	})
}

// headingAnchors adds a permalink before h1 to h3.
func headingAnchors() goldmark.Extender {
	return &anchor.Extender{
		Texter: anchor.TexterFunc(func(h *anchor.HeaderInfo) []byte {
			if h.Level > maxAnchorLevel {
				return nil
			}
			return []byte("#")
		}),
		Position: anchor.Before,
		Attributer: anchor.Attributes{
			"class":       "header-anchor-link",
			"aria-hidden": "true",
		},
	}
}

// headingIDs generates heading IDs: trimmed, lowercased, whitespace runs
// collapsed to "-", then percent-encoded. Repeats get -2, -3, ...
// One instance serves one render.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]bool)}
}

// Generate implements parser.IDs.
func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	slug := Slugify(string(value))
	if slug == "" {
		slug = strings.ToLower(kind.String())
	}
	id := slug
	for i := 2; s.used[id]; i++ {
		id = slug + "-" + strconv.Itoa(i)
	}
	s.used[id] = true
	return []byte(id)
}

// Put implements parser.IDs.
func (s *headingIDs) Put(value []byte) {
	s.used[string(value)] = true
}

// Slugify converts heading text to its ID form.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return embed.EncodeURIComponent(b.String())
}
