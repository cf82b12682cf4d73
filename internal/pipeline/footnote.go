package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2html/internal/i18n"
)

// footnotesIcon is the icon shown before the footnotes heading.
const footnotesIcon = `<img src="https://twemoji.maxcdn.com/2/svg/1f58b.svg" class="emoji footnotes-twemoji" loading="lazy" width="20" height="20">`

// footnoteTitleExtension replaces the footnote list wrapper with a titled section.
// It must be registered after extension.Footnote.
type footnoteTitleExtension struct {
	printer *i18n.Printer
}

func (e *footnoteTitleExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		// Lower than the footnote renderer (500), so this one wins for the list.
		util.Prioritized(&footnoteListRenderer{title: e.printer.Text(i18n.FootnotesTitle)}, 100),
	))
}

type footnoteListRenderer struct {
	title string
}

func (r *footnoteListRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(east.KindFootnoteList, r.renderFootnoteList)
}

func (r *footnoteListRenderer) renderFootnoteList(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</ol>\n</section>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<section class="footnotes"`)
	renderDataAttributes(w, node)
	_, _ = w.WriteString(">\n")
	_, _ = w.WriteString(`<div class="footnotes-title">` + footnotesIcon)
	_, _ = w.Write(util.EscapeHTML([]byte(r.title)))
	_, _ = w.WriteString("</div>\n")
	_, _ = w.WriteString(`<ol class="footnotes-list">` + "\n")
	return ast.WalkContinue, nil
}
