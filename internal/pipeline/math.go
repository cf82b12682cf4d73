package pipeline

import (
	"bytes"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Typesetter renders TeX source. display selects block rather than inline mode.
type Typesetter interface {
	Typeset(w io.Writer, tex string, display bool) error
}

// KaTeXTypesetter emits the placeholders that the platform's KaTeX loader
// renders in the browser, after expanding macros.
type KaTeXTypesetter struct {
	macros map[string]string
}

// NewKaTeXTypesetter returns a KaTeXTypesetter with its own copy of macros.
func NewKaTeXTypesetter(macros map[string]string) *KaTeXTypesetter {
	m := make(map[string]string, len(macros))
	for k, v := range macros {
		m[k] = v
	}
	return &KaTeXTypesetter{macros: m}
}

// Typeset implements Typesetter.
func (t *KaTeXTypesetter) Typeset(w io.Writer, tex string, display bool) error {
	body := html.EscapeString(ExpandMacros(tex, t.macros))
	var err error
	if display {
		_, err = io.WriteString(w, `<embed-katex display-mode="1"><eqn class="zenn-katex">`+body+`</eqn></embed-katex>`)
	} else {
		_, err = io.WriteString(w, `<embed-katex><eq class="zenn-katex">`+body+`</eq></embed-katex>`)
	}
	return err
}

// ExpandMacros replaces each TeX control word found in macros by its
// definition. Expansions are not rescanned.
func ExpandMacros(tex string, macros map[string]string) string {
	if len(macros) == 0 || !strings.Contains(tex, `\`) {
		return tex
	}
	var b strings.Builder
	for i := 0; i < len(tex); {
		if tex[i] != '\\' {
			b.WriteByte(tex[i])
			i++
			continue
		}
		j := i + 1
		for j < len(tex) && isASCIILetter(tex[j]) {
			j++
		}
		if j == i+1 {
			// "\\", "\{" and friends are single control symbols.
			end := min(i+2, len(tex))
			b.WriteString(tex[i:end])
			i = end
			continue
		}
		word := tex[i:j]
		if def, ok := macros[word]; ok {
			b.WriteString(def)
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// KindMathInline is the NodeKind of MathInline.
var KindMathInline = ast.NewNodeKind("MathInline")

// MathInline is $...$ math, or $$...$$ inside a paragraph when Display is
// set.
type MathInline struct {
	ast.BaseInline
	TeX     []byte
	Display bool
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind {
	return KindMathInline
}

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"TeX":     string(n.TeX),
		"Display": strconv.FormatBool(n.Display),
	}, nil)
}

// KindMathBlock is the NodeKind of MathBlock.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock is $$...$$ math, on one line or several.
type MathBlock struct {
	ast.BaseBlock
	closed bool
	start  int
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind {
	return KindMathBlock
}

func (n *MathBlock) startOffset() int {
	return n.start
}

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool {
	return true
}

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathExtension struct {
	typesetter Typesetter
}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 680)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{typesetter: e.typesetter}, 500),
	))
}

var mathFence = []byte("$$")

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w > 3 || !bytes.HasPrefix(line[pos:], mathFence) {
		return nil, parser.NoChildren
	}
	start := pos + len(mathFence)
	rest := util.TrimRightSpace(line[start:])
	node := &MathBlock{start: segment.Start}
	if i := bytes.Index(rest, mathFence); i >= 0 {
		// $$...$$ on a single line: nothing may follow the closing fence.
		if !util.IsBlank(rest[i+len(mathFence):]) {
			return nil, parser.NoChildren
		}
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Start+start+i))
		node.closed = true
	} else if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Stop))
	}
	skipLine(reader, line, segment)
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	trimmed := util.TrimRightSpace(line)
	if bytes.HasSuffix(trimmed, mathFence) {
		end := len(trimmed) - len(mathFence)
		if end > 0 {
			n.Lines().Append(text.NewSegment(segment.Start, segment.Start+end))
		}
		n.closed = true
		skipLine(reader, line, segment)
		return parser.Close
	}
	n.Lines().Append(segment)
	skipLine(reader, line, segment)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool {
	return true
}

func (p *mathBlockParser) CanAcceptIndentedLine() bool {
	return false
}

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse accepts $tex$ where tex neither starts nor ends with a space and the
// closing dollar is not followed by a digit, so "$5 and $10" stays text.
func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if block.PrecendingCharacter() == '$' {
		return nil
	}
	line, _ := block.PeekLine()
	if len(line) >= 2 && line[1] == '$' {
		return parseInlineDisplay(block, line)
	}
	if len(line) < 3 || util.IsSpace(line[1]) {
		return nil
	}
	end := -1
	for i := 2; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] != '$' {
			continue
		}
		if util.IsSpace(line[i-1]) {
			continue
		}
		if i+1 < len(line) && '0' <= line[i+1] && line[i+1] <= '9' {
			continue
		}
		end = i
		break
	}
	if end < 0 {
		return nil
	}
	node := &MathInline{TeX: append([]byte(nil), line[1:end]...)}
	block.Advance(end + 1)
	return node
}

// parseInlineDisplay accepts $$tex$$ within a line. tex must not start or end
// with a space.
func parseInlineDisplay(block text.Reader, line []byte) ast.Node {
	if len(line) < 5 || util.IsSpace(line[2]) {
		return nil
	}
	for i := 3; i+1 < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] != '$' || line[i+1] != '$' || util.IsSpace(line[i-1]) {
			continue
		}
		node := &MathInline{TeX: append([]byte(nil), line[2:i]...), Display: true}
		block.Advance(i + 2)
		return node
	}
	return nil
}

type mathRenderer struct {
	typesetter Typesetter
}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderMathInline)
	reg.Register(KindMathBlock, r.renderMathBlock)
}

func (r *mathRenderer) renderMathInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathInline)
	if err := r.typesetter.Typeset(w, string(n.TeX), n.Display); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) renderMathBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var tex bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		tex.Write(line.Value(source))
	}
	_, _ = w.WriteString("<section")
	renderDataAttributes(w, node)
	_ = w.WriteByte('>')
	if err := r.typesetter.Typeset(w, strings.TrimSpace(tex.String()), true); err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString("</section>\n")
	return ast.WalkContinue, nil
}
