package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	flag "github.com/spf13/pflag"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/assets"
	"github.com/alnah/go-md2html/internal/config"
	"github.com/alnah/go-md2html/internal/hints"
)

// Sentinel errors for command dispatch.
var (
	ErrNoCommand      = errors.New("no command specified")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("invalid usage")
)

// usageError marks a flag parsing failure as a usage error. Help requests
// pass through unchanged.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// loadConfig resolves configuration with precedence
// CLI flags > env vars > config file > defaults. Flags are applied by the
// caller after this returns.
func loadConfig(common commonFlags) (*config.Config, error) {
	env := loadEnvConfig()

	name := common.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(triedPaths(err)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// triedPaths extracts the searched locations from a config-not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// applyRenderFlags copies explicitly set render flags into cfg.
func applyRenderFlags(f renderFlags, cfg *config.Config) {
	setString(&cfg.Render.Locale, f.locale)
	setString(&cfg.Render.PlatformOrigin, f.platformOrigin)
	setString(&cfg.Render.HighlightStyle, f.highlightStyle)
	setString(&cfg.Assets.BasePath, f.assetPath)
	if f.sanitizeSet {
		cfg.Render.Sanitize = f.sanitize
	}
}

// newRenderer builds a renderer from the resolved render config.
func newRenderer(cfg config.RenderConfig, preview bool, logger *slog.Logger) (*md2html.Renderer, error) {
	opts := []md2html.Option{
		md2html.WithPreview(preview),
		md2html.WithLocale(cfg.Locale),
		md2html.WithSanitize(cfg.Sanitize),
		md2html.WithLogger(logger),
	}
	if cfg.PlatformOrigin != "" {
		opts = append(opts, md2html.WithPlatformOrigin(cfg.PlatformOrigin))
	}
	if cfg.HighlightStyle != "" {
		opts = append(opts, md2html.WithHighlightStyle(cfg.HighlightStyle))
	}
	if cfg.MathMacros != nil {
		opts = append(opts, md2html.WithMathMacros(cfg.MathMacros))
	}

	r, err := md2html.NewRenderer(opts...)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, md2html.ErrInvalidLocale):
		return nil, fmt.Errorf("%w%s", err, hints.ForLocale())
	case errors.Is(err, md2html.ErrInvalidPlatformOrigin):
		return nil, fmt.Errorf("%w%s", err, hints.ForPlatformOrigin())
	case errors.Is(err, md2html.ErrInvalidHighlightStyle):
		return nil, fmt.Errorf("%w%s", err, hints.ForStyleNotFound(md2html.HighlightStyles()))
	default:
		return nil, err
	}
}

// newAssetLoader returns the embedded assets, overridden by files under
// basePath when set.
func newAssetLoader(basePath string) (assets.AssetLoader, error) {
	return assets.NewAssetResolver(basePath)
}

// langOf returns the HTML lang attribute for a locale setting.
func langOf(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return "en"
	}
	return "ja"
}
