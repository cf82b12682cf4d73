package md2html

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	defaultRenderer atomic.Pointer[Renderer]
	defaultOnce     sync.Once
	previewOnce     sync.Once
)

// mustRenderer builds a renderer from options that are known to be valid.
func mustRenderer(opts ...Option) *Renderer {
	r, err := NewRenderer(opts...)
	if err != nil {
		panic(fmt.Sprintf("md2html: default renderer: %v", err))
	}
	return r
}

func loadDefault() *Renderer {
	defaultOnce.Do(func() {
		defaultRenderer.CompareAndSwap(nil, mustRenderer())
	})
	return defaultRenderer.Load()
}

// MarkdownToHTML converts Markdown with the process-wide default renderer.
// See (*Renderer).MarkdownToHTML.
func MarkdownToHTML(text string) string {
	return loadDefault().MarkdownToHTML(text)
}

// EnablePreview switches the process-wide default renderer to the preview
// variant, which tags top-level blocks with data-line. It takes effect once;
// later calls do nothing. Renders already running finish with the renderer
// they started with.
func EnablePreview() {
	previewOnce.Do(func() {
		defaultRenderer.Store(mustRenderer(WithPreview(true)))
	})
}
