package pipeline

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var lineAttr = []byte("data-line")

// lineNumberExtension tags top-level blocks with the 0-based source line they
// start on, for scroll synchronization in live previews.
type lineNumberExtension struct{}

func (e *lineNumberExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&lineNumberTransformer{}, 1100),
	))
}

// startOffsetter is implemented by blocks that remember where their opening
// line began, when their content lines do not tell.
type startOffsetter interface {
	startOffset() int
}

type lineNumberTransformer struct{}

func (t *lineNumberTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	lines := lineStarts(reader.Source())
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		offset, ok := firstOffset(c)
		if !ok {
			continue
		}
		line := lineOf(lines, offset)
		if code, ok := c.(*ast.FencedCodeBlock); ok && code.Info == nil {
			// The offset is the first content line; the fence is above it.
			line--
		}
		if line < 0 {
			continue
		}
		c.SetAttribute(lineAttr, []byte(strconv.Itoa(line)))
	}
}

// firstOffset finds the source offset of the first line of n.
func firstOffset(n ast.Node) (int, bool) {
	switch n := n.(type) {
	case startOffsetter:
		return n.startOffset(), true
	case *ast.FencedCodeBlock:
		if n.Info != nil {
			return n.Info.Segment.Start, true
		}
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if offset, ok := firstOffset(c); ok {
			return offset, true
		}
	}
	return 0, false
}

// lineStarts returns the offset of the first byte of every line.
func lineStarts(source []byte) []int {
	starts := []int{0}
	for i := 0; ; {
		j := bytes.IndexByte(source[i:], '\n')
		if j < 0 {
			return starts
		}
		i += j + 1
		starts = append(starts, i)
	}
}

func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}
