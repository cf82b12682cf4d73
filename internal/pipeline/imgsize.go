package pipeline

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// sizedImagePattern matches ![alt](url "title" =WxH) where either dimension may be empty.
var sizedImagePattern = regexp.MustCompile(`^!\[([^\]\n]*)\]\([ \t]*([^\s()]+)(?:[ \t]+"([^"\n]*)")?[ \t]+=([0-9]*)x([0-9]*)[ \t]*\)`)

// imageSizeExtension adds the =WxH suffix to image syntax.
type imageSizeExtension struct{}

func (e *imageSizeExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// Before the link parser (200), which would otherwise claim "![".
		util.Prioritized(&imageSizeParser{}, 199),
	))
}

type imageSizeParser struct{}

func (p *imageSizeParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *imageSizeParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	m := sizedImagePattern.FindSubmatchIndex(line)
	if m == nil {
		return nil
	}
	width, height := line[m[8]:m[9]], line[m[10]:m[11]]
	if len(width) == 0 && len(height) == 0 {
		return nil
	}

	link := ast.NewLink()
	link.Destination = append([]byte(nil), line[m[4]:m[5]]...)
	if m[6] >= 0 {
		link.Title = append([]byte(nil), line[m[6]:m[7]]...)
	}
	img := ast.NewImage(link)
	if m[3] > m[2] {
		img.AppendChild(img, ast.NewTextSegment(text.NewSegment(segment.Start+m[2], segment.Start+m[3])))
	}
	if len(width) > 0 {
		img.SetAttributeString("width", append([]byte(nil), width...))
	}
	if len(height) > 0 {
		img.SetAttributeString("height", append([]byte(nil), height...))
	}

	block.Advance(m[1])
	return img
}
