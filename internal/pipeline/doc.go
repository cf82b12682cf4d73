// Package pipeline implements the Markdown-to-HTML conversion pipeline.
//
// The Engine owns the goldmark extension chain. Each extension lives in its
// own file and is registered in a fixed order; goldmark priorities make that
// order hold:
//   - fenced code with chroma classes and "lang:filename" headers
//   - image sizes, heading anchors, ":::" containers, footnotes, task lists
//   - HTML comment removal and raw HTML escaping
//   - @[name](argument) directives resolved through the embed registry
//   - $ and $$ math, nofollow on external links, md-linkify on bare URLs
//   - data-line tags in preview mode
//
// Rendered fragments then go through string-level transforms (LinkToCard,
// TweetEmbed, Sanitize). Page assembly helpers inject styles and scripts into
// standalone documents and extract tables of contents.
package pipeline
