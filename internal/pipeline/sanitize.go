package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classPattern     = regexp.MustCompile(`^[a-zA-Z0-9 _:-]+$`)
	relPattern       = regexp.MustCompile(`^nofollow$`)
	embedHostPattern = regexp.MustCompile(`^https://(www\.youtube\.com|www\.slideshare\.net|speakerdeck\.com|codepen\.io|codesandbox\.io|stackblitz\.com)/|^https?://jsfiddle\.net/`)
	sandboxPattern   = regexp.MustCompile(`^(allow-[a-z-]+ ?)+$`)
	numberPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// Sanitizer removes markup that user content could smuggle past the engine,
// keeping everything the extensions and embed handlers emit.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the user generated content policy extended with the
// platform's embed elements.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()

	// Links carry the rel computed by the engine, not one of bluemonday's.
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("rel").Matching(relPattern).OnElements("a")

	p.AllowAttrs("class").Matching(classPattern).Globally()
	p.AllowAttrs("aria-hidden").Matching(regexp.MustCompile(`^true$`)).Globally()
	p.AllowAttrs("role").Matching(regexp.MustCompile(`^doc-[a-z]+$`)).OnElements("a", "sup", "div")
	p.AllowDataAttributes()

	p.AllowElements("section", "aside", "details", "summary", "iframe", "input", "embed-katex", "eq", "eqn",
		"embed-gist", "embed-link-card")

	p.AllowAttrs("src").Matching(embedHostPattern).OnElements("iframe")
	p.AllowAttrs("allowfullscreen", "loading", "scrolling", "frameborder", "allowtransparency", "allow").OnElements("iframe")
	p.AllowAttrs("sandbox").Matching(sandboxPattern).OnElements("iframe")
	p.AllowStyles("width", "height", "border", "overflow").OnElements("iframe")

	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked").OnElements("input")
	p.AllowAttrs("width", "height").Matching(numberPattern).OnElements("img")
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^lazy$`)).OnElements("img")

	p.AllowAttrs("page-url").OnElements("embed-gist", "embed-link-card")
	p.AllowAttrs("encoded-filename").OnElements("embed-gist")
	p.AllowAttrs("display-mode").Matching(numberPattern).OnElements("embed-katex")

	return &Sanitizer{policy: p}
}

// Sanitize returns the policy-conformant version of fragment.
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}
