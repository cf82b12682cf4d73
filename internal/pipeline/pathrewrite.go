package pipeline

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	imageSelector = cascadia.MustCompile("img[src]")
	linkSelector  = cascadia.MustCompile("a[href]")
)

// RewriteRelativePaths resolves relative image and link paths against base,
// the URL the page is served from. If base is nil, returns the HTML unchanged.
//
// Rewrites:
//   - img[src]: relative paths to images
//   - a[href]: relative paths (not anchors, not URLs)
//
// Leaves alone:
//   - absolute paths and URLs (already resolved)
//   - srcset attributes and CSS url() references
func RewriteRelativePaths(htmlContent string, base *url.URL) (string, error) {
	if base == nil {
		return htmlContent, nil
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	for _, n := range imageSelector.MatchAll(doc) {
		rewriteAttr(n, "src", base)
	}
	for _, n := range linkSelector.MatchAll(doc) {
		rewriteAttr(n, "href", base)
	}

	return renderHTML(doc, isFragment)
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	// Wrap nodes in a container for uniform traversal
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteAttr resolves a single attribute if it holds a relative path that
// stays on the same host once resolved.
func rewriteAttr(n *html.Node, attrName string, base *url.URL) {
	for i, a := range n.Attr {
		if a.Key != attrName || !isRelativePath(a.Val) {
			continue
		}
		ref, err := url.Parse(a.Val)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			continue
		}
		n.Attr[i].Val = resolved.String()
	}
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}
	// Anchors, root-relative and protocol-relative paths
	if strings.HasPrefix(path, "#") || strings.HasPrefix(path, "/") {
		return false
	}
	if u, err := url.Parse(path); err != nil || u.Scheme != "" {
		return false
	}
	return true
}
