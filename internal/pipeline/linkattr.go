package pipeline

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	relAttr       = []byte("rel")
	nofollow      = []byte("nofollow")
	linkifyClass  = []byte("md-linkify")
	classAttr     = []byte("class")
	neverMatching = regexp.MustCompile(`\b\B`)
)

// linkAttributesExtension linkifies bare URLs with the md-linkify class and
// marks every link outside the platform origin as nofollow.
type linkAttributesExtension struct {
	origin string
}

func (e *linkAttributesExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&linkifyClassParser{
				// Only URLs with a scheme; "www." alone is not a link.
				InlineParser: extension.NewLinkifyParser(extension.WithLinkifyWWWRegexp(neverMatching)),
			}, 999),
		),
		parser.WithASTTransformers(
			// After footnotes (999), the last transformer that builds links.
			util.Prioritized(&nofollowTransformer{prefix: []byte(e.origin + "/")}, 1000),
		),
	)
}

// linkifyClassParser tags the links found by the wrapped linkify parser.
type linkifyClassParser struct {
	parser.InlineParser
}

func (p *linkifyClassParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	n := p.InlineParser.Parse(parent, block, pc)
	if link, ok := n.(*ast.AutoLink); ok {
		link.SetAttribute(classAttr, linkifyClass)
	}
	return n
}

type nofollowTransformer struct {
	prefix []byte
}

func (t *nofollowTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch link := n.(type) {
		case *ast.Link:
			if !bytes.HasPrefix(link.Destination, t.prefix) {
				link.SetAttribute(relAttr, nofollow)
			}
		case *ast.AutoLink:
			if !bytes.HasPrefix(link.URL(source), t.prefix) {
				link.SetAttribute(relAttr, nofollow)
			}
		}
		return ast.WalkContinue, nil
	})
}
