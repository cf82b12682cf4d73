package md2html

import (
	"log/slog"
	"maps"

	"github.com/alnah/go-md2html/internal/embed"
)

// Option configures a Renderer.
type Option func(*rendererConfig)

// rendererConfig holds the settings read once by NewRenderer.
type rendererConfig struct {
	preview        bool
	locale         string
	platformOrigin string
	sanitize       bool
	tweetGenerator embed.TweetGenerator
	mathMacros     map[string]string
	highlightStyle string
	logger         *slog.Logger
}

// TweetGenerator builds the HTML embedded in place of a tweet URL.
type TweetGenerator = embed.TweetGenerator

// WithPreview tags every top-level block with a data-line attribute holding
// its 0-based source line, for editor scroll sync.
func WithPreview(enabled bool) Option {
	return func(c *rendererConfig) {
		c.preview = enabled
	}
}

// WithLocale selects the language of generated sentences ("ja" or "en").
func WithLocale(locale string) Option {
	return func(c *rendererConfig) {
		c.locale = locale
	}
}

// WithPlatformOrigin sets the origin whose links are not marked nofollow,
// for example "https://zenn.dev".
func WithPlatformOrigin(origin string) Option {
	return func(c *rendererConfig) {
		c.platformOrigin = origin
	}
}

// WithSanitize runs the rendered HTML through an allowlist sanitizer.
func WithSanitize(enabled bool) Option {
	return func(c *rendererConfig) {
		c.sanitize = enabled
	}
}

// WithTweetGenerator replaces the default tweet blockquote markup.
func WithTweetGenerator(gen TweetGenerator) Option {
	return func(c *rendererConfig) {
		c.tweetGenerator = gen
	}
}

// WithMathMacros sets the TeX macros expanded before typesetting.
// The map is copied.
func WithMathMacros(macros map[string]string) Option {
	return func(c *rendererConfig) {
		c.mathMacros = maps.Clone(macros)
	}
}

// WithHighlightStyle selects the chroma style returned by HighlightCSS.
func WithHighlightStyle(style string) Option {
	return func(c *rendererConfig) {
		c.highlightStyle = style
	}
}

// WithLogger sets the logger. Renders log engine failures at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *rendererConfig) {
		c.logger = logger
	}
}
