package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// taskListExtension renders task checkboxes enabled and tags their items and
// lists with classes. It must be registered after extension.TaskList.
type taskListExtension struct{}

func (e *taskListExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&taskListTransformer{}, 200),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&taskCheckBoxRenderer{}, 100),
	))
}

var (
	taskItemClass = []byte("task-list-item")
	taskListClass = []byte("contains-task-list")
)

type taskListTransformer struct{}

func (t *taskListTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != east.KindTaskCheckBox {
			return ast.WalkContinue, nil
		}
		// checkbox -> paragraph or text block -> list item -> list
		item := n.Parent()
		if item != nil {
			item = item.Parent()
		}
		if item == nil || item.Kind() != ast.KindListItem {
			return ast.WalkContinue, nil
		}
		item.SetAttribute([]byte("class"), taskItemClass)
		if list := item.Parent(); list != nil && list.Kind() == ast.KindList {
			list.SetAttribute([]byte("class"), taskListClass)
		}
		return ast.WalkContinue, nil
	})
}

type taskCheckBoxRenderer struct{}

func (r *taskCheckBoxRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(east.KindTaskCheckBox, r.renderTaskCheckBox)
}

func (r *taskCheckBoxRenderer) renderTaskCheckBox(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<input class="task-list-item-checkbox" type="checkbox"`)
	if node.(*east.TaskCheckBox).IsChecked {
		_, _ = w.WriteString(" checked")
	}
	_, _ = w.WriteString("> ")
	return ast.WalkContinue, nil
}
