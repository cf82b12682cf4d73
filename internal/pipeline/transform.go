package pipeline

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-md2html/internal/embed"
)

// Transform rewrites rendered HTML.
type Transform func(string) string

// Chain applies transforms left to right.
func Chain(transforms ...Transform) Transform {
	return func(s string) string {
		for _, t := range transforms {
			s = t(s)
		}
		return s
	}
}

// blockingAncestors are elements inside which a lone link stays a link.
var blockingAncestors = map[atom.Atom]bool{
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Table:      true,
	atom.Details:    true,
	atom.Aside:      true,
	atom.Section:    true,
}

// LinkToCard replaces paragraphs holding nothing but a bare URL link with a
// link card placeholder. Tweet URLs are left for TweetEmbed.
func LinkToCard(src string) string {
	return rewriteLoneLinks(src, func(href, label string) (string, bool) {
		if !isBareURL(href, label) || embed.IsTweetURL(href) {
			return "", false
		}
		return `<div class="embed-link-card"><embed-link-card page-url="` +
			html.EscapeString(href) + `"></embed-link-card></div>`, true
	})
}

// TweetEmbed replaces paragraphs holding nothing but a link to a tweet with
// the markup produced by gen.
func TweetEmbed(src string, gen embed.TweetGenerator) string {
	if gen == nil {
		gen = embed.DefaultTweetHTML
	}
	return rewriteLoneLinks(src, func(href, _ string) (string, bool) {
		if !embed.IsTweetURL(href) {
			return "", false
		}
		return gen(href), true
	})
}

// isBareURL reports whether label is the link target itself, as produced by
// pasting a URL, rather than a custom label.
func isBareURL(href, label string) bool {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if label == href {
		return true
	}
	decoded, err := url.PathUnescape(href)
	return err == nil && label == decoded
}

type token struct {
	typ   html.TokenType
	atom  atom.Atom
	raw   string
	attrs []html.Attribute
	text  string
}

func tokenize(src string) []token {
	z := html.NewTokenizer(strings.NewReader(src))
	var tokens []token
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF: a strings.Reader fails no other way.
			return tokens
		}
		raw := string(z.Raw())
		t := z.Token()
		tokens = append(tokens, token{
			typ:   tt,
			atom:  t.DataAtom,
			raw:   raw,
			attrs: t.Attr,
			text:  t.Data,
		})
	}
}

// rewriteLoneLinks calls match for every top-level <p><a href>label</a></p>
// and substitutes the paragraph when match accepts it. Everything else is
// copied byte for byte.
func rewriteLoneLinks(src string, match func(href, label string) (string, bool)) string {
	if !strings.Contains(src, "<a") {
		return src
	}
	tokens := tokenize(src)
	var b strings.Builder
	b.Grow(len(src))
	var open []atom.Atom
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.typ {
		case html.StartTagToken:
			if t.atom == atom.P && !insideBlocking(open) {
				if end, href, label, ok := loneLink(tokens, i); ok {
					if out, ok := match(href, label); ok {
						b.WriteString(out)
						i = end
						continue
					}
				}
			}
			if !isVoid(t.atom) {
				open = append(open, t.atom)
			}
		case html.EndTagToken:
			for j := len(open) - 1; j >= 0; j-- {
				if open[j] == t.atom {
					open = open[:j]
					break
				}
			}
		}
		b.WriteString(t.raw)
	}
	return b.String()
}

// loneLink matches <p><a href="...">text</a></p> starting at tokens[i] and
// returns the index of the closing </p>.
func loneLink(tokens []token, i int) (end int, href, label string, ok bool) {
	j := skipSpace(tokens, i+1)
	if j >= len(tokens) || tokens[j].typ != html.StartTagToken || tokens[j].atom != atom.A {
		return 0, "", "", false
	}
	for _, a := range tokens[j].attrs {
		if a.Namespace == "" && a.Key == "href" {
			href, ok = a.Val, true
		}
	}
	if !ok || href == "" {
		return 0, "", "", false
	}
	j++
	if j < len(tokens) && tokens[j].typ == html.TextToken {
		label = tokens[j].text
		j++
	}
	if j >= len(tokens) || tokens[j].typ != html.EndTagToken || tokens[j].atom != atom.A {
		return 0, "", "", false
	}
	j = skipSpace(tokens, j+1)
	if j >= len(tokens) || tokens[j].typ != html.EndTagToken || tokens[j].atom != atom.P {
		return 0, "", "", false
	}
	return j, href, label, true
}

func skipSpace(tokens []token, i int) int {
	for i < len(tokens) && tokens[i].typ == html.TextToken && strings.TrimSpace(tokens[i].text) == "" {
		i++
	}
	return i
}

func insideBlocking(open []atom.Atom) bool {
	for _, a := range open {
		if blockingAncestors[a] {
			return true
		}
	}
	return false
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
