package embed

import (
	"html"
	"net/url"
	"strings"

	"github.com/alnah/go-md2html/internal/i18n"
)

// Handler validates and renders one directive kind.
//
// Embed is only called with arguments for which Validate returned true.
// Both methods are pure.
type Handler interface {
	Name() string
	Validate(arg string) bool
	Embed(arg string) string
	Invalid() i18n.Key
}

// Compile-time interface implementation checks.
var (
	_ Handler = YouTube{}
	_ Handler = SlideShare{}
	_ Handler = SpeakerDeck{}
	_ Handler = Jsfiddle{}
	_ Handler = CodePen{}
	_ Handler = CodeSandbox{}
	_ Handler = StackBlitz{}
	_ Handler = Tweet{}
	_ Handler = Gist{}
)

// escape escapes a value for an HTML attribute or text context.
var escape = html.EscapeString

// YouTube embeds a video that loops on itself.
type YouTube struct{}

func (YouTube) Name() string            { return "youtube" }
func (YouTube) Validate(id string) bool { return IsValidID(id) }
func (YouTube) Invalid() i18n.Key       { return i18n.InvalidYouTubeID }
func (YouTube) Embed(id string) string {
	id = escape(id)
	return `<div class="embed-youtube"><iframe src="https://www.youtube.com/embed/` + id +
		`?loop=1&playlist=` + id + `" allowfullscreen loading="lazy"></iframe></div>`
}

// SlideShare embeds a slide deck by key.
type SlideShare struct{}

func (SlideShare) Name() string             { return "slideshare" }
func (SlideShare) Validate(key string) bool { return IsValidID(key) }
func (SlideShare) Invalid() i18n.Key        { return i18n.InvalidSlideShareKey }
func (SlideShare) Embed(key string) string {
	return `<div class="embed-slideshare"><iframe src="https://www.slideshare.net/slideshow/embed_code/key/` +
		escape(key) + `" scrolling="no" allowfullscreen loading="lazy"></iframe></div>`
}

// SpeakerDeck embeds a Speaker Deck player by key.
type SpeakerDeck struct{}

func (SpeakerDeck) Name() string             { return "speakerdeck" }
func (SpeakerDeck) Validate(key string) bool { return IsValidID(key) }
func (SpeakerDeck) Invalid() i18n.Key        { return i18n.InvalidSpeakerDeckKey }
func (SpeakerDeck) Embed(key string) string {
	return `<div class="embed-speakerdeck"><iframe src="https://speakerdeck.com/player/` +
		escape(key) + `" scrolling="no" allowfullscreen allow="encrypted-media" loading="lazy"></iframe></div>`
}

// Jsfiddle embeds a fiddle, pointing plain demo URLs at their embedded view.
type Jsfiddle struct{}

func (Jsfiddle) Name() string           { return "jsfiddle" }
func (Jsfiddle) Validate(u string) bool { return IsJsfiddleURL(u) }
func (Jsfiddle) Invalid() i18n.Key      { return i18n.InvalidJsfiddleURL }
func (Jsfiddle) Embed(u string) string {
	return `<div class="embed-jsfiddle"><iframe src="` + escape(jsfiddleEmbedURL(u)) +
		`" scrolling="no" frameborder="no" allowfullscreen allowtransparency="true" loading="lazy"></iframe></div>`
}

// jsfiddleEmbedURL leaves URLs already mentioning "embed" untouched.
func jsfiddleEmbedURL(u string) string {
	if strings.Contains(u, "embed") {
		return u
	}
	if strings.HasSuffix(u, "/") {
		return u + "embedded/"
	}
	return u + "/embedded/"
}

// CodePen embeds a pen through its /embed/ view.
type CodePen struct{}

func (CodePen) Name() string           { return "codepen" }
func (CodePen) Validate(u string) bool { return IsCodepenURL(u) }
func (CodePen) Invalid() i18n.Key      { return i18n.InvalidCodePenURL }
func (CodePen) Embed(u string) string {
	return `<div class="embed-codepen"><iframe src="` + escape(codepenEmbedURL(u)) +
		`" scrolling="no" frameborder="no" allowtransparency="true" loading="lazy"></iframe></div>`
}

// codepenEmbedURL swaps /pen/ for /embed/ and forces embed-version=2.
func codepenEmbedURL(u string) string {
	rewritten := strings.Replace(u, "/pen/", "/embed/", 1)
	parsed, err := url.Parse(rewritten)
	if err != nil {
		// Invalid escapes such as %zz are accepted by the pattern.
		return setRawQueryParam(rewritten, "embed-version", "2")
	}
	q := parsed.Query()
	q.Set("embed-version", "2")
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// setRawQueryParam sets key=value in the query of u without decoding it.
// Other parameters keep their order and the fragment is preserved.
func setRawQueryParam(u, key, value string) string {
	rest, fragment, hasFragment := strings.Cut(u, "#")
	base, query, _ := strings.Cut(rest, "?")
	var params []string
	for _, p := range strings.Split(query, "&") {
		if p == "" || p == key || strings.HasPrefix(p, key+"=") {
			continue
		}
		params = append(params, p)
	}
	params = append(params, key+"="+value)
	out := base + "?" + strings.Join(params, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// CodeSandbox embeds a sandbox in a least-privilege iframe.
type CodeSandbox struct{}

func (CodeSandbox) Name() string           { return "codesandbox" }
func (CodeSandbox) Validate(u string) bool { return IsCodesandboxURL(u) }
func (CodeSandbox) Invalid() i18n.Key      { return i18n.InvalidCodeSandboxURL }
func (CodeSandbox) Embed(u string) string {
	return `<div class="embed-codesandbox"><iframe src="` + escape(u) +
		`" style="width:100%;height:500px;border:none;overflow:hidden;"` +
		` allow="accelerometer; ambient-light-sensor; camera; encrypted-media; geolocation; gyroscope; hid; microphone; midi; payment; usb; vr; xr-spatial-tracking"` +
		` loading="lazy" sandbox="allow-modals allow-forms allow-popups allow-scripts allow-same-origin"></iframe></div>`
}

// StackBlitz embeds a StackBlitz project.
type StackBlitz struct{}

func (StackBlitz) Name() string           { return "stackblitz" }
func (StackBlitz) Validate(u string) bool { return IsStackblitzURL(u) }
func (StackBlitz) Invalid() i18n.Key      { return i18n.InvalidStackBlitzURL }
func (StackBlitz) Embed(u string) string {
	return `<div class="embed-stackblitz"><iframe src="` + escape(u) +
		`" scrolling="no" frameborder="no" allowtransparency="true" loading="lazy" allowfullscreen></iframe></div>`
}

// Tweet delegates markup to a TweetGenerator.
type Tweet struct {
	Generate TweetGenerator
}

func (Tweet) Name() string           { return "tweet" }
func (Tweet) Validate(u string) bool { return IsTweetURL(u) }
func (Tweet) Invalid() i18n.Key      { return i18n.InvalidTweetURL }
func (t Tweet) Embed(u string) string {
	if t.Generate == nil {
		return DefaultTweetHTML(u)
	}
	return t.Generate(u)
}

// Gist embeds a gist as a custom element resolved on the client.
type Gist struct{}

func (Gist) Name() string           { return "gist" }
func (Gist) Validate(u string) bool { return IsGistURL(u) }
func (Gist) Invalid() i18n.Key      { return i18n.InvalidGistURL }
func (Gist) Embed(u string) string {
	pageURL, file, _ := strings.Cut(u, "?file=")
	encoded := ""
	if file != "" {
		encoded = EncodeURIComponent(file)
	}
	return `<div class="embed-gist"><embed-gist page-url="` + escape(pageURL) +
		`" encoded-filename="` + escape(encoded) + `"></embed-gist></div>`
}

// EncodeURIComponent percent-encodes s, leaving the characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) as they are.
func EncodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(strings.ReplaceAll(url.QueryEscape(s), "+", "%20"))
}

var uriComponentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
