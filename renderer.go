package md2html

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alnah/go-md2html/internal/embed"
	"github.com/alnah/go-md2html/internal/i18n"
	"github.com/alnah/go-md2html/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.SourcePreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.Engine)(nil)
)

// DefaultPlatformOrigin is the origin used when WithPlatformOrigin is not set.
const DefaultPlatformOrigin = pipeline.DefaultPlatformOrigin

// DefaultHighlightStyle is the chroma style used when WithHighlightStyle is not set.
const DefaultHighlightStyle = pipeline.DefaultHighlightStyle

// Renderer converts Markdown to the platform's HTML.
// Create with NewRenderer. A Renderer is immutable and safe for concurrent use.
type Renderer struct {
	preview        bool
	highlightStyle string
	logger         *slog.Logger
	preprocessor   pipeline.MarkdownPreprocessor
	htmlConverter  pipeline.HTMLConverter
	postprocess    pipeline.Transform
}

// NewRenderer creates a Renderer. Every setting is fixed at construction.
// Returns an error wrapping ErrInvalidLocale, ErrInvalidPlatformOrigin or
// ErrInvalidHighlightStyle when an option value is rejected.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{
		platformOrigin: DefaultPlatformOrigin,
		highlightStyle: DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tag, err := i18n.ParseLocale(cfg.locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocale, err)
	}
	if err := validatePlatformOrigin(cfg.platformOrigin); err != nil {
		return nil, err
	}
	if !pipeline.IsHighlightStyle(cfg.highlightStyle) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHighlightStyle, cfg.highlightStyle)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	printer := i18n.NewPrinter(tag)
	registry := embed.NewRegistry(
		embed.WithPrinter(printer),
		embed.WithTweetGenerator(cfg.tweetGenerator),
		embed.WithLogger(logger),
	)
	engine := pipeline.NewEngine(pipeline.Config{
		Preview:        cfg.preview,
		PlatformOrigin: cfg.platformOrigin,
		Registry:       registry,
		Printer:        printer,
		MathMacros:     cfg.mathMacros,
	})

	gen := cfg.tweetGenerator
	transforms := []pipeline.Transform{
		pipeline.LinkToCard,
		func(s string) string { return pipeline.TweetEmbed(s, gen) },
	}
	if cfg.sanitize {
		transforms = append(transforms, pipeline.NewSanitizer().Sanitize)
	}

	return &Renderer{
		preview:        cfg.preview,
		highlightStyle: cfg.highlightStyle,
		logger:         logger,
		preprocessor:   &pipeline.SourcePreprocessor{},
		htmlConverter:  engine,
		postprocess:    pipeline.Chain(transforms...),
	}, nil
}

// validatePlatformOrigin accepts an absolute http(s) origin with no path,
// query, fragment or trailing slash.
func validatePlatformOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPlatformOrigin, origin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q: must be an absolute http or https URL", ErrInvalidPlatformOrigin, origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil || strings.HasSuffix(origin, "/") {
		return fmt.Errorf("%w: %q: must be scheme and host only", ErrInvalidPlatformOrigin, origin)
	}
	return nil
}

// Preview reports whether the renderer tags blocks with data-line.
func (r *Renderer) Preview() bool {
	return r.preview
}

// MarkdownToHTML converts Markdown to an HTML fragment.
// Empty input is returned unchanged. A conversion failure yields "" and is
// logged at warn level.
func (r *Renderer) MarkdownToHTML(text string) string {
	if text == "" {
		return text
	}
	out, err := r.Convert(context.Background(), text)
	if err != nil {
		r.logger.Warn("markdown conversion failed", slog.Any("error", err))
		return ""
	}
	return out
}

// Convert converts Markdown to an HTML fragment, honoring ctx cancellation.
// Engine failures are returned wrapped with ErrHTMLConversion.
func (r *Renderer) Convert(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source := r.preprocessor.PreprocessMarkdown(ctx, text)
	raw, err := r.htmlConverter.ToHTML(ctx, source)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrHTMLConversion) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	if raw == "" {
		r.logger.Debug("markdown produced no HTML", slog.Int("bytes", len(text)))
		return "", nil
	}
	return r.postprocess(raw), nil
}

// HighlightCSS writes the stylesheet for the configured highlight style.
func (r *Renderer) HighlightCSS(w io.Writer) error {
	return pipeline.HighlightCSS(w, r.highlightStyle)
}

// HighlightStyles returns the names accepted by WithHighlightStyle.
func HighlightStyles() []string {
	return pipeline.HighlightStyles()
}
