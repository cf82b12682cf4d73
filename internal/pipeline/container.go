package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Container kinds.
const (
	ContainerDetails = "details"
	ContainerMessage = "message"
)

// KindContainer is the NodeKind of Container.
var KindContainer = ast.NewNodeKind("Container")

// Container is a ":::" fenced block holding other blocks.
type Container struct {
	ast.BaseBlock

	// Name is ContainerDetails or ContainerMessage.
	Name string

	// Param is the rest of the opening line: the summary for details,
	// the variant ("alert") for message.
	Param []byte

	fenceLength int
	start       int
}

// Kind implements ast.Node.
func (n *Container) Kind() ast.NodeKind {
	return KindContainer
}

// Dump implements ast.Node.
func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name":  n.Name,
		"Param": string(n.Param),
	}, nil)
}

func (n *Container) startOffset() int {
	return n.start
}

type containerExtension struct{}

func (e *containerExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&containerParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&containerRenderer{}, 500),
	))
}

type containerParser struct{}

func (p *containerParser) Trigger() []byte {
	return []byte{':'}
}

// fence counts the leading colons of line after up to three spaces of indent.
// It returns the count and the remainder of the line.
func containerFence(line []byte, offset int) (int, []byte) {
	w, pos := util.IndentWidth(line, offset)
	if w > 3 {
		return 0, nil
	}
	n := 0
	for pos+n < len(line) && line[pos+n] == ':' {
		n++
	}
	if n < 3 {
		return 0, nil
	}
	return n, line[pos+n:]
}

func (p *containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	n, rest := containerFence(line, reader.LineOffset())
	if n == 0 {
		return nil, parser.NoChildren
	}
	rest = util.TrimRightSpace(util.TrimLeftSpace(rest))
	name, param := rest, []byte(nil)
	if i := bytes.IndexAny(rest, " \t"); i >= 0 {
		name, param = rest[:i], util.TrimLeftSpace(rest[i:])
	}
	switch string(name) {
	case ContainerDetails, ContainerMessage:
	default:
		return nil, parser.NoChildren
	}

	node := &Container{
		Name:        string(name),
		Param:       append([]byte(nil), param...),
		fenceLength: n,
		start:       segment.Start,
	}
	skipLine(reader, line, segment)
	return node, parser.HasChildren
}

func (p *containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	c := node.(*Container)
	line, segment := reader.PeekLine()
	n, rest := containerFence(line, reader.LineOffset())
	if n >= c.fenceLength && util.IsBlank(rest) {
		skipLine(reader, line, segment)
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *containerParser) CanInterruptParagraph() bool {
	return true
}

func (p *containerParser) CanAcceptIndentedLine() bool {
	return false
}

// skipLine consumes the current line up to its newline so that no other
// block parser sees the remainder.
func skipLine(reader text.Reader, line []byte, segment text.Segment) {
	newline := 0
	if len(line) > 0 && line[len(line)-1] == '\n' {
		newline = 1
	}
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
}

type containerRenderer struct{}

func (r *containerRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindContainer, r.renderContainer)
}

func (r *containerRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Container)
	if n.Name == ContainerDetails {
		if entering {
			_, _ = w.WriteString("<details")
			renderDataAttributes(w, n)
			_, _ = w.WriteString("><summary>")
			_, _ = w.Write(util.EscapeHTML(n.Param))
			_, _ = w.WriteString("</summary><div class=\"details-content\">")
		} else {
			_, _ = w.WriteString("</div></details>\n")
		}
		return ast.WalkContinue, nil
	}

	if entering {
		class := "msg message"
		if bytes.Equal(n.Param, []byte("alert")) {
			class = "msg alert"
		}
		_, _ = w.WriteString(`<aside class="` + class + `"`)
		renderDataAttributes(w, n)
		_, _ = w.WriteString(`><span class="msg-symbol">!</span><div class="msg-content">`)
	} else {
		_, _ = w.WriteString("</div></aside>\n")
	}
	return ast.WalkContinue, nil
}

// renderDataAttributes writes only data-* attributes of n.
func renderDataAttributes(w util.BufWriter, n ast.Node) {
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, dataAttributeFilter)
	}
}

// dataAttributeFilter admits nothing by name; data-* attributes always pass.
var dataAttributeFilter = util.NewBytesFilter()
