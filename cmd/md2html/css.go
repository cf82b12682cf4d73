package main

import (
	"fmt"
	"io"

	"github.com/alnah/go-md2html/internal/assets"
)

// runCSSCmd prints the page stylesheet followed by the highlight CSS of the
// selected chroma style.
func runCSSCmd(args []string, env *Environment) error {
	flags, _, err := parseCSSFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common)
	if err != nil {
		return err
	}
	setString(&cfg.Render.HighlightStyle, flags.style)
	if err := cfg.Validate(); err != nil {
		return err
	}

	renderer, err := newRenderer(cfg.Render, false, newLogger(env.Stderr, flags.common.quiet, flags.common.verbose))
	if err != nil {
		return err
	}
	loader, err := newAssetLoader(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	return writeCSS(env.Stdout, loader, renderer.HighlightCSS)
}

func writeCSS(w io.Writer, loader assets.AssetLoader, highlightCSS func(io.Writer) error) error {
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, style); err != nil {
		return err
	}
	return highlightCSS(w)
}
