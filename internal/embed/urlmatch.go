package embed

import "regexp"

// Provider URL shapes. Every pattern is anchored at both ends and excludes
// quotes, angle brackets, backquotes and whitespace.
var (
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	gistPattern = regexp.MustCompile(
		`^https://gist\.github\.com/[a-zA-Z0-9](?:-?[a-zA-Z0-9]){0,38}/[a-zA-Z0-9]{1,32}(?:/[a-zA-Z0-9]+)?(?:\.json)?(?:\?file=[^\s"'<>` + "`" + `]+)?$`)

	tweetPattern = regexp.MustCompile(
		`^https://(?:twitter|x)\.com/[a-zA-Z0-9_-]+/status/[a-zA-Z0-9?=&\-_]+$`)

	codesandboxPattern = regexp.MustCompile(
		`^https://codesandbox\.io/embed/[a-zA-Z0-9\-_/.@?&=%,+]+$`)

	codepenPattern = regexp.MustCompile(
		`^https://codepen\.io/[a-zA-Z0-9\-_/@]+/pen/[a-zA-Z0-9\-_/.@?&=%,]+$`)

	jsfiddlePattern = regexp.MustCompile(
		`^https?://jsfiddle\.net/[a-zA-Z0-9_,/-]+$`)

	stackblitzPattern = regexp.MustCompile(
		`^https://stackblitz\.com/[a-zA-Z0-9\-_/.@?&=%,]+$`)
)

// IsValidID reports whether s is a bare provider identifier such as a YouTube
// video ID or a SlideShare/Speaker Deck key.
func IsValidID(s string) bool {
	return validIDPattern.MatchString(s)
}

// IsGistURL reports whether s is a GitHub Gist page URL, optionally with a
// ?file= selector.
func IsGistURL(s string) bool {
	return gistPattern.MatchString(s)
}

// IsTweetURL reports whether s is a tweet status page on twitter.com or x.com.
func IsTweetURL(s string) bool {
	return tweetPattern.MatchString(s)
}

// IsCodesandboxURL reports whether s starts with the CodeSandbox embed path.
func IsCodesandboxURL(s string) bool {
	return codesandboxPattern.MatchString(s)
}

// IsCodepenURL reports whether s is a CodePen pen URL.
func IsCodepenURL(s string) bool {
	return codepenPattern.MatchString(s)
}

// IsJsfiddleURL reports whether s is a jsfiddle URL.
func IsJsfiddleURL(s string) bool {
	return jsfiddlePattern.MatchString(s)
}

// IsStackblitzURL reports whether s is a StackBlitz URL.
func IsStackblitzURL(s string) bool {
	return stackblitzPattern.MatchString(s)
}
