// Package md2html converts Markdown articles to the HTML served by a
// technical publishing platform: embed directives, math, message and
// details blocks, highlighted code, footnotes, and link cards.
//
// # Quick Start
//
// The package-level function uses a shared default renderer:
//
//	html := md2html.MarkdownToHTML("# Hello\n\n@[youtube](dQw4w9WgXcQ)")
//
// Create a Renderer to customize behavior:
//
//	r, err := md2html.NewRenderer(
//	    md2html.WithLocale("en"),
//	    md2html.WithSanitize(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := r.Convert(ctx, source)
//
// # Rendering Stages
//
//  1. Source normalization (byte order mark, line endings)
//  2. Markdown to HTML via goldmark with the platform extension chain
//  3. Link cards: a paragraph holding only a bare URL becomes an
//     <embed-link-card> placeholder
//  4. Tweet embeds: a paragraph holding only a tweet URL becomes the
//     tweet markup
//  5. Optional allowlist sanitizing (WithSanitize)
//
// # Directives
//
// A line of the form @[name](argument) embeds third-party content. Built-in
// names are youtube, slideshare, speakerdeck, jsfiddle, codepen, codesandbox,
// stackblitz, tweet and gist. An argument that fails validation renders a
// localized sentence in place of the embed. Unknown names stay plain text.
//
// # Preview Mode
//
// WithPreview(true) builds a renderer that tags each top-level block with
// data-line, the 0-based source line where the block starts. EnablePreview
// switches the default renderer to that variant for the whole process.
//
// # Error Handling
//
// MarkdownToHTML never fails: a conversion error yields "" and is logged
// through the logger set with WithLogger. Convert returns errors wrapping
// ErrHTMLConversion. NewRenderer returns errors wrapping ErrInvalidLocale,
// ErrInvalidPlatformOrigin or ErrInvalidHighlightStyle:
//
//	if errors.Is(err, md2html.ErrInvalidLocale) {
//	    // handle
//	}
//
// # Concurrency
//
// A Renderer is immutable after construction and safe for concurrent use.
package md2html
