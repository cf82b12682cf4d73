package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrPageRender indicates the page template failed to execute.
var ErrPageRender = errors.New("page template rendering failed")

// ScriptInjector defines the contract for script injection into HTML.
type ScriptInjector interface {
	InjectScript(ctx context.Context, htmlContent, script string) string
}

var _ ScriptInjector = (*Injection)(nil)

// Injection inserts <script> blocks into HTML documents.
type Injection struct{}

// InjectScript inserts a <script> block before </body>, else at the end.
func (s *Injection) InjectScript(ctx context.Context, htmlContent, script string) string {
	if script == "" || ctx.Err() != nil {
		return htmlContent
	}
	block := "<script>" + escapeClosingTags(script) + "</script>"
	if out, ok := insertBefore(htmlContent, "</body>", block); ok {
		return out
	}
	return htmlContent + block
}

// escapeClosingTags escapes "</" so that embedded CSS or JS cannot end its
// enclosing raw text element.
func escapeClosingTags(s string) string {
	return strings.ReplaceAll(s, "</", `<\/`)
}

// insertBefore inserts snippet before the first case-insensitive match of tag.
func insertBefore(doc, tag, snippet string) (string, bool) {
	idx := strings.Index(strings.ToLower(doc), tag)
	if idx == -1 {
		return doc, false
	}
	return doc[:idx] + snippet + doc[idx:], true
}

// PageData is the input of the page template.
type PageData struct {
	Title string
	Lang  string
	Emoji string
	Body  template.HTML
	CSS   template.CSS
	TOC   []TOCEntry
	Nav   []NavLink
}

// NavLink is a link shown next to the document, such as the chapters of a book.
type NavLink struct {
	Title   string
	URL     string
	Current bool
}

// PageTemplate renders standalone HTML pages around converted fragments.
type PageTemplate struct {
	tmpl *template.Template
}

// NewPageTemplate parses a page template.
func NewPageTemplate(name, content string) (*PageTemplate, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", name, err)
	}
	return &PageTemplate{tmpl: tmpl}, nil
}

// Render executes the template with data.
func (p *PageTemplate) Render(ctx context.Context, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// TOCEntry is one heading of a table of contents.
type TOCEntry struct {
	Level int    // 1-6
	Depth int    // 1-based nesting after normalization
	ID    string // anchor ID
	Text  string
}

var (
	headingSelector = cascadia.MustCompile("h1[id], h2[id], h3[id], h4[id], h5[id], h6[id]")
	permalinkClass  = "header-anchor-link"
)

// ExtractTOC returns the headings of an HTML fragment between minDepth and
// maxDepth, skipping permalink text. The shallowest heading found gets depth 1
// and a skipped level nests only one step deeper.
func ExtractTOC(fragment string, minDepth, maxDepth int) []TOCEntry {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return nil
	}
	var entries []TOCEntry
	minLevel, last := 0, 0
	for _, root := range nodes {
		for _, h := range headingSelector.MatchAll(root) {
			level := int(h.Data[1] - '0')
			if level < minDepth || level > maxDepth {
				continue
			}
			if minLevel == 0 {
				minLevel = level
			}
			depth := max(level-minLevel+1, 1)
			if last > 0 && depth > last+1 {
				depth = last + 1
			}
			last = depth
			entries = append(entries, TOCEntry{
				Level: level,
				Depth: depth,
				ID:    attr(h, "id"),
				Text:  strings.TrimSpace(headingText(h)),
			})
		}
	}
	return entries
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body"}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// headingText concatenates the text of n, leaving out permalink anchors.
func headingText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && strings.Contains(attr(n, "class"), permalinkClass) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
