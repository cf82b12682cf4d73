package md2html_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-md2html"
)

// Example converts Markdown with the default renderer.
func Example() {
	out := md2html.MarkdownToHTML("@[youtube](dQw4w9WgXcQ)")
	fmt.Println(strings.Contains(out, `class="embed-youtube"`))
	// Output: true
}

// ExampleNewRenderer builds an English renderer and converts with a context.
func ExampleNewRenderer() {
	r, err := md2html.NewRenderer(md2html.WithLocale("en"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	out, err := r.Convert(context.Background(), "@[youtube](not valid)")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(out)
	// Output: Invalid YouTube video ID
}

// ExampleNewRenderer_invalidOrigin shows a construction error.
func ExampleNewRenderer_invalidOrigin() {
	_, err := md2html.NewRenderer(md2html.WithPlatformOrigin("https://zenn.dev/"))
	fmt.Println(errors.Is(err, md2html.ErrInvalidPlatformOrigin))
	// Output: true
}

// ExampleWithTweetGenerator replaces the tweet markup.
func ExampleWithTweetGenerator() {
	r, err := md2html.NewRenderer(md2html.WithTweetGenerator(func(u string) string {
		return "<blockquote>" + u + "</blockquote>\n"
	}))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(r.MarkdownToHTML("https://x.com/jack/status/20"))
	// Output: <blockquote>https://x.com/jack/status/20</blockquote>
}
