package pipeline

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2html/internal/embed"
)

// directivePattern matches a whole line of the form @[name](argument).
var directivePattern = regexp.MustCompile(`^[ ]{0,3}@\[([a-zA-Z0-9_-]+)\]\((.*)\)[ \t]*\r?\n?$`)

// KindDirective is the NodeKind of Directive.
var KindDirective = ast.NewNodeKind("Directive")

// Directive is an @[name](argument) line.
type Directive struct {
	ast.BaseBlock

	Name string
	Arg  string
}

// Kind implements ast.Node.
func (n *Directive) Kind() ast.NodeKind {
	return KindDirective
}

// IsRaw implements ast.Node. The line is never inline-parsed.
func (n *Directive) IsRaw() bool {
	return true
}

// Dump implements ast.Node.
func (n *Directive) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name": n.Name,
		"Arg":  n.Arg,
	}, nil)
}

// directiveExtension dispatches directives to the embed registry.
type directiveExtension struct {
	registry *embed.Registry
}

func (e *directiveExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&directiveParser{registry: e.registry}, 160),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&directiveRenderer{registry: e.registry}, 500),
	))
}

type directiveParser struct {
	registry *embed.Registry
}

func (p *directiveParser) Trigger() []byte {
	return []byte{'@'}
}

func (p *directiveParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	m := directivePattern.FindSubmatch(line)
	if m == nil {
		return nil, parser.NoChildren
	}
	name := string(m[1])
	// Unregistered names stay plain text.
	if !p.registry.Has(name) {
		return nil, parser.NoChildren
	}
	node := &Directive{Name: name, Arg: string(m[2])}
	node.Lines().Append(segment)
	skipLine(reader, line, segment)
	return node, parser.NoChildren
}

func (p *directiveParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *directiveParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *directiveParser) CanInterruptParagraph() bool {
	return true
}

func (p *directiveParser) CanAcceptIndentedLine() bool {
	return false
}

type directiveRenderer struct {
	registry *embed.Registry
}

func (r *directiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDirective, r.renderDirective)
}

// renderDirective writes the embed, or the escaped validation message in its place.
func (r *directiveRenderer) renderDirective(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Directive)
	res := r.registry.Resolve(n.Name, n.Arg)
	if res.Invalid() {
		_, _ = w.Write(util.EscapeHTML([]byte(res.Message)))
	} else {
		_, _ = w.WriteString(res.HTML)
	}
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}
