package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/alnah/go-md2html/internal/i18n"
)

func render(t *testing.T, cfg Config, src string) string {
	t.Helper()

	out, err := NewEngine(cfg).Render([]byte(src))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return string(out)
}

// query returns the elements of fragment matching selector.
func query(t *testing.T, fragment, selector string) []*html.Node {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	return cascadia.MustCompile(selector).MatchAll(doc)
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func TestEngine_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "empty input",
			input:        "",
			wantContains: nil,
		},
		{
			name:         "newlines become breaks",
			input:        "a\nb",
			wantContains: []string{"<p>a<br>\nb</p>"},
		},
		{
			name:         "fence with filename",
			input:        "```js:app.js\nconsole.log(1)\n```",
			wantContains: []string{`<div class="code-block-container">`, `<span class="code-block-filename">app.js</span>`, `class="chroma"`},
			wantNot:      []string{"js:app.js"},
		},
		{
			name:         "fence without language",
			input:        "```\ncode <x>\n```",
			wantContains: []string{`<div class="code-block-container"><pre><code>code &lt;x&gt;`, "</code></pre></div>"},
			wantNot:      []string{"code-block-filename"},
		},
		{
			name:         "fence with unknown language",
			input:        "```nosuchlang\nx\n```",
			wantContains: []string{`<pre><code class="language-nosuchlang">x`},
		},
		{
			name:         "fence filename is escaped",
			input:        "```js:<b>.js\nx\n```",
			wantContains: []string{`<span class="code-block-filename">&lt;b&gt;.js</span>`},
		},
		{
			name:         "image with width",
			input:        "![alt](https://example.com/a.png =250x)",
			wantContains: []string{`src="https://example.com/a.png"`, `alt="alt"`, `width="250"`},
			wantNot:      []string{"height=", "=250x"},
		},
		{
			name:         "image with both dimensions and title",
			input:        `![](https://example.com/a.png "t" =250x100)`,
			wantContains: []string{`title="t"`, `width="250"`, `height="100"`},
		},
		{
			name:         "plain image untouched",
			input:        "![alt](https://example.com/a.png)",
			wantContains: []string{`<img src="https://example.com/a.png" alt="alt">`},
		},
		{
			name:         "details container",
			input:        ":::details Title\nbody\n:::",
			wantContains: []string{"<details><summary>Title</summary>", `<div class="details-content">`, "<p>body</p>", "</div></details>"},
			wantNot:      []string{":::"},
		},
		{
			name:         "message container",
			input:        ":::message\nnote\n:::",
			wantContains: []string{`<aside class="msg message">`, `<span class="msg-symbol">!</span>`, `<div class="msg-content"><p>note</p>`},
		},
		{
			name:         "message alert container",
			input:        ":::message alert\nwarn\n:::",
			wantContains: []string{`<aside class="msg alert">`},
		},
		{
			name:         "nested containers",
			input:        "::::details Outer\n:::message\ninner\n:::\n::::",
			wantContains: []string{`<details><summary>Outer</summary><div class="details-content"><aside class="msg message">`, "</aside>\n</div></details>"},
		},
		{
			name:         "unknown container is text",
			input:        ":::foo\nx\n:::",
			wantContains: []string{":::foo"},
			wantNot:      []string{"<aside", "<details"},
		},
		{
			name:         "footnotes section",
			input:        "text[^1]\n\n[^1]: note",
			wantContains: []string{`<section class="footnotes">`, `<div class="footnotes-title"><img src="https://twemoji.maxcdn.com/2/svg/1f58b.svg"`, "脚注</div>", `<ol class="footnotes-list">`, "</ol>\n</section>"},
			wantNot:      []string{`role="doc-endnotes"`},
		},
		{
			name:  "task list",
			input: "- [x] done\n- [ ] todo",
			wantContains: []string{
				`<ul class="contains-task-list">`,
				`<li class="task-list-item"><input class="task-list-item-checkbox" type="checkbox" checked> done`,
				`<input class="task-list-item-checkbox" type="checkbox"> todo`,
			},
			wantNot: []string{"disabled"},
		},
		{
			name:         "block comment dropped",
			input:        "before\n\n<!-- secret -->\n\nafter",
			wantContains: []string{"<p>before</p>", "<p>after</p>"},
			wantNot:      []string{"secret", "&lt;!--"},
		},
		{
			name:         "inline comment dropped",
			input:        "a <!-- secret --> b",
			wantContains: []string{"<p>a ", " b</p>"},
			wantNot:      []string{"secret"},
		},
		{
			name:         "raw HTML block escaped",
			input:        "<div>hi</div>",
			wantContains: []string{"<p>&lt;div&gt;hi&lt;/div&gt;</p>"},
			wantNot:      []string{"<div>hi"},
		},
		{
			name:         "script escaped",
			input:        "<script>alert(1)</script>",
			wantContains: []string{"&lt;script&gt;alert(1)&lt;/script&gt;"},
			wantNot:      []string{"<script>"},
		},
		{
			name:         "raw inline HTML escaped",
			input:        "a <span>b</span>",
			wantContains: []string{"a &lt;span&gt;b&lt;/span&gt;"},
			wantNot:      []string{"<span>"},
		},
		{
			name:         "youtube directive",
			input:        "@[youtube](abc_DEF-1)",
			wantContains: []string{`<div class="embed-youtube"><iframe src="https://www.youtube.com/embed/abc_DEF-1?loop=1&playlist=abc_DEF-1" allowfullscreen loading="lazy"></iframe></div>`},
			wantNot:      []string{"<p>"},
		},
		{
			name:         "invalid directive renders message",
			input:        "@[youtube](bad id!)",
			wantContains: []string{"YouTubeのvideoIDが不正です"},
			wantNot:      []string{"<iframe"},
		},
		{
			name:         "directive argument cannot inject markup",
			input:        `@[youtube]("><script>alert(1)</script>)`,
			wantContains: []string{"YouTubeのvideoIDが不正です"},
			wantNot:      []string{"<script", "<iframe"},
		},
		{
			name:         "directive interrupts paragraph",
			input:        "text\n@[youtube](abc)\nmore",
			wantContains: []string{"<p>text</p>", `<div class="embed-youtube">`, "<p>more</p>"},
		},
		{
			name:         "gist directive",
			input:        "@[gist](https://gist.github.com/u/id.json?file=example.js)",
			wantContains: []string{`<embed-gist page-url="https://gist.github.com/u/id.json" encoded-filename="example.js"></embed-gist>`},
		},
		{
			name:         "unregistered directive is not an embed",
			input:        "@[unknown](x)",
			wantContains: []string{"unknown"},
			wantNot:      []string{"embed-"},
		},
		{
			name:         "indented directive is code",
			input:        "    @[youtube](abc)",
			wantContains: []string{"<pre><code>@[youtube](abc)"},
			wantNot:      []string{"<iframe"},
		},
		{
			name:         "inline math",
			input:        "Euler $e^{i\\pi}+1=0$ holds",
			wantContains: []string{`Euler <embed-katex><eq class="zenn-katex">e^{i\pi}+1=0</eq></embed-katex> holds`},
		},
		{
			name:         "inline math escaped",
			input:        "$a<b$",
			wantContains: []string{`<eq class="zenn-katex">a&lt;b</eq>`},
		},
		{
			name:         "dollar amounts are not math",
			input:        "costs $5 and $10",
			wantContains: []string{"costs $5 and $10"},
			wantNot:      []string{"embed-katex"},
		},
		{
			name:         "math macro expanded",
			input:        `$x \in \RR$`,
			wantContains: []string{`x \in \mathbb{R}`},
			wantNot:      []string{`\RR`},
		},
		{
			name:         "double dollars inside a paragraph are display math",
			input:        `and $$\RR$$ too`,
			wantContains: []string{`and <embed-katex display-mode="1"><eqn class="zenn-katex">\mathbb{R}</eqn></embed-katex> too`},
			wantNot:      []string{"$$"},
		},
		{
			name:         "double dollars with inner space edge stay text",
			input:        "a $$ x$$ b",
			wantContains: []string{"a $$ x$$ b"},
			wantNot:      []string{"embed-katex"},
		},
		{
			name:         "display math block",
			input:        "$$\nx+y\n$$",
			wantContains: []string{`<section><embed-katex display-mode="1"><eqn class="zenn-katex">x+y</eqn></embed-katex></section>`},
		},
		{
			name:         "single line display math",
			input:        "$$x^2$$",
			wantContains: []string{`<eqn class="zenn-katex">x^2</eqn>`},
		},
		{
			name:         "linkify adds class and nofollow",
			input:        "see https://example.com/x ok",
			wantContains: []string{`<a href="https://example.com/x" class="md-linkify" rel="nofollow">https://example.com/x</a>`},
		},
		{
			name:         "www without scheme not linked",
			input:        "see www.example.com ok",
			wantContains: []string{"<p>see www.example.com ok</p>"},
		},
		{
			name:         "angle autolink has no linkify class",
			input:        "<https://example.com>",
			wantContains: []string{`<a href="https://example.com" rel="nofollow">https://example.com</a>`},
			wantNot:      []string{"md-linkify"},
		},
		{
			name:         "platform link is followed",
			input:        "[zenn](https://zenn.dev/topics)",
			wantContains: []string{`<a href="https://zenn.dev/topics">zenn</a>`},
		},
		{
			name:         "strikethrough",
			input:        "~~gone~~",
			wantContains: []string{"<del>gone</del>"},
		},
		{
			name:         "table",
			input:        "|a|b|\n|-|-|\n|1|2|",
			wantContains: []string{"<table>", "<th>a</th>", "<td>2</td>"},
		},
		{
			name:    "no line numbers outside preview",
			input:   "# H\n\npara",
			wantNot: []string{"data-line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, Config{}, tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot: %s", want, got)
				}
			}
			for _, notWant := range tt.wantNot {
				if strings.Contains(got, notWant) {
					t.Errorf("output should not contain %q\ngot: %s", notWant, got)
				}
			}
		})
	}
}

func TestEngine_HeadingAnchors(t *testing.T) {
	t.Parallel()

	got := render(t, Config{}, "# One\n\n## Two\n\n### Three\n\n#### Four")

	for _, level := range []string{"h1", "h2", "h3"} {
		if n := len(query(t, got, level+" a.header-anchor-link")); n != 1 {
			t.Errorf("%s has %d permalinks, want 1\ngot: %s", level, n, got)
		}
	}
	if n := len(query(t, got, "h4 a")); n != 0 {
		t.Errorf("h4 has %d links, want none\ngot: %s", n, got)
	}
	if n := len(query(t, got, "h4[id]")); n != 0 {
		t.Errorf("h4 has an id, want none\ngot: %s", got)
	}

	links := query(t, got, "h1 a.header-anchor-link")
	if len(links) == 1 {
		if href, _ := getAttr(links[0], "href"); href != "#one" {
			t.Errorf("permalink href = %q, want %q", href, "#one")
		}
		if hidden, _ := getAttr(links[0], "aria-hidden"); hidden != "true" {
			t.Errorf("permalink aria-hidden = %q, want %q", hidden, "true")
		}
	}
}

func TestEngine_HeadingIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercased and dashed",
			input: "## Hello  World",
			want:  []string{"hello-world"},
		},
		{
			name:  "duplicates numbered",
			input: "## A\n\n## A\n\n## A",
			want:  []string{"a", "a-2", "a-3"},
		},
		{
			name:  "non ASCII percent-encoded",
			input: "## 日本語 見出し",
			want:  []string{"%E6%97%A5%E6%9C%AC%E8%AA%9E-%E8%A6%8B%E5%87%BA%E3%81%97"},
		},
		{
			name:  "registry is per render",
			input: "## Same",
			want:  []string{"same"},
		},
	}

	engine := NewEngine(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for range 2 {
				out, err := engine.Render([]byte(tt.input))
				if err != nil {
					t.Fatalf("Render() error = %v", err)
				}
				headings := query(t, string(out), "h2")
				if len(headings) != len(tt.want) {
					t.Fatalf("got %d headings, want %d\ngot: %s", len(headings), len(tt.want), out)
				}
				for i, h := range headings {
					if id, _ := getAttr(h, "id"); id != tt.want[i] {
						t.Errorf("heading %d id = %q, want %q", i, id, tt.want[i])
					}
				}
			}
		})
	}
}

func TestEngine_DeepHeadingsReserveNoID(t *testing.T) {
	t.Parallel()

	got := render(t, Config{}, "#### A\n\n##### A\n\n###### A\n\n## A")

	for _, level := range []string{"h4", "h5", "h6"} {
		for _, h := range query(t, got, level) {
			if id, ok := getAttr(h, "id"); ok {
				t.Errorf("%s id = %q, want none", level, id)
			}
		}
	}
	headings := query(t, got, "h2")
	if len(headings) != 1 {
		t.Fatalf("got %d h2, want 1\ngot: %s", len(headings), got)
	}
	if id, _ := getAttr(headings[0], "id"); id != "a" {
		t.Errorf("h2 id = %q, want %q", id, "a")
	}
}

func TestEngine_DirectiveExactOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid directive is the embed only",
			input: "@[youtube](abc_DEF-1)",
			want:  `<div class="embed-youtube"><iframe src="https://www.youtube.com/embed/abc_DEF-1?loop=1&playlist=abc_DEF-1" allowfullscreen loading="lazy"></iframe></div>` + "\n",
		},
		{
			name:  "invalid directive is the message only",
			input: "@[youtube](bad id!)",
			want:  "YouTubeのvideoIDが不正です\n",
		},
		{
			name:  "argument is not parsed as a link",
			input: "@[codepen](bad)",
			want:  "CodePenのURLが不正です\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, Config{}, tt.input); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_Nofollow(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"[ext](https://example.com)",
		"[platform](https://zenn.dev/articles/x)",
		"[lookalike](https://zenn.dev.evil.example/x)",
		"[relative](/path)",
		"<https://auto.example.com>",
		"bare https://bare.example.com",
		"- nested [link](http://example.org)",
	}, "\n\n")
	got := render(t, Config{}, input)

	for _, a := range query(t, got, "a[href]") {
		href, _ := getAttr(a, "href")
		rel, hasRel := getAttr(a, "rel")
		platform := strings.HasPrefix(href, "https://zenn.dev/")
		if platform && hasRel {
			t.Errorf("platform link %q has rel=%q", href, rel)
		}
		if !platform && rel != "nofollow" {
			t.Errorf("link %q rel = %q, want nofollow", href, rel)
		}
	}
}

func TestEngine_CustomPlatformOrigin(t *testing.T) {
	t.Parallel()

	got := render(t, Config{PlatformOrigin: "https://docs.example.com"}, "[a](https://docs.example.com/x) [b](https://zenn.dev/x)")
	if !strings.Contains(got, `<a href="https://docs.example.com/x">a</a>`) {
		t.Errorf("own-origin link should be followed\ngot: %s", got)
	}
	if !strings.Contains(got, `<a href="https://zenn.dev/x" rel="nofollow">b</a>`) {
		t.Errorf("other origin should be nofollow\ngot: %s", got)
	}
}

func TestEngine_PreviewLineNumbers(t *testing.T) {
	t.Parallel()

	input := "# H\n\npara\n\n```go\nx := 1\n```\n\n- a\n- b\n\n:::message\nm\n:::\n\n$$\nx\n$$\n\n> quote"
	got := render(t, Config{Preview: true}, input)

	tests := []struct {
		selector string
		line     string
	}{
		{"h1", "0"},
		{"body > p", "2"},
		{"div.code-block-container", "4"},
		{"ul", "8"},
		{"aside", "11"},
		{"section", "15"},
		{"blockquote", "19"},
	}
	for _, tt := range tests {
		nodes := query(t, got, tt.selector)
		if len(nodes) == 0 {
			t.Errorf("%s not found\ngot: %s", tt.selector, got)
			continue
		}
		if line, _ := getAttr(nodes[0], "data-line"); line != tt.line {
			t.Errorf("%s data-line = %q, want %q", tt.selector, line, tt.line)
		}
	}

	if n := len(query(t, got, "li[data-line]")); n != 0 {
		t.Errorf("nested blocks tagged %d times, want only top-level blocks", n)
	}
}

func TestEngine_Preview(t *testing.T) {
	t.Parallel()

	if NewEngine(Config{}).Preview() {
		t.Error("Preview() = true for default config")
	}
	if !NewEngine(Config{Preview: true}).Preview() {
		t.Error("Preview() = false for preview config")
	}
}

func TestEngine_Localized(t *testing.T) {
	t.Parallel()

	printer := i18n.NewPrinter(language.English)
	got := render(t, Config{Printer: printer}, "x[^1]\n\n[^1]: n\n\n@[youtube](bad!)")

	for _, want := range []string{"Footnotes</div>", "Invalid YouTube video ID"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot: %s", want, got)
		}
	}
}

type failingTypesetter struct{}

var errTypeset = errors.New("typeset failed")

func (failingTypesetter) Typeset(_ io.Writer, _ string, _ bool) error { return errTypeset }

func TestEngine_TypesetterError(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(Config{Typesetter: failingTypesetter{}}).Render([]byte("$x$"))
	if !errors.Is(err, ErrHTMLConversion) {
		t.Errorf("Render() error = %v, want ErrHTMLConversion", err)
	}
}

func TestEngine_ToHTML(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{})

	t.Run("converts", func(t *testing.T) {
		t.Parallel()

		got, err := engine.ToHTML(context.Background(), "**bold**")
		if err != nil {
			t.Fatalf("ToHTML() error = %v", err)
		}
		if !strings.Contains(got, "<strong>bold</strong>") {
			t.Errorf("ToHTML() = %q", got)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := engine.ToHTML(ctx, "x"); !errors.Is(err, context.Canceled) {
			t.Errorf("ToHTML() error = %v, want context.Canceled", err)
		}
	})
}

func TestEngine_ConcurrentRenders(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{})
	done := make(chan string, 8)
	for range 8 {
		go func() {
			out, err := engine.Render([]byte("## Same\n\n## Same"))
			if err != nil {
				done <- err.Error()
				return
			}
			done <- string(out)
		}()
	}
	for range 8 {
		got := <-done
		if !strings.Contains(got, `id="same"`) || !strings.Contains(got, `id="same-2"`) {
			t.Errorf("concurrent render lost per-call IDs: %s", got)
		}
	}
}
