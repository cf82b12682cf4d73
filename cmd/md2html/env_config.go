package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-md2html/internal/config"
)

// envPrefix starts every recognized environment variable.
const envPrefix = "MD2HTML_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // MD2HTML_CONFIG: config file name or path
	AssetPath  string // MD2HTML_ASSET_PATH: custom asset directory

	// Rendering
	Locale         string // MD2HTML_LOCALE: ja, en
	PlatformOrigin string // MD2HTML_PLATFORM_ORIGIN: followable link origin
	HighlightStyle string // MD2HTML_HIGHLIGHT_STYLE: chroma style name
	Sanitize       *bool  // MD2HTML_SANITIZE: bluemonday pass

	// Conversion
	InputDir  string // MD2HTML_INPUT_DIR: default input directory
	OutputDir string // MD2HTML_OUTPUT_DIR: default output directory
	Workers   int    // MD2HTML_WORKERS: parallel workers

	// Preview server
	ContentDir string // MD2HTML_CONTENT_DIR: directory with articles/ and books/
	Host       string // MD2HTML_HOST: listen host
	Port       int    // MD2HTML_PORT: listen port
}

// knownEnvVars lists valid MD2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2HTML_CONFIG":          true,
	"MD2HTML_ASSET_PATH":      true,
	"MD2HTML_LOCALE":          true,
	"MD2HTML_PLATFORM_ORIGIN": true,
	"MD2HTML_HIGHLIGHT_STYLE": true,
	"MD2HTML_SANITIZE":        true,
	"MD2HTML_INPUT_DIR":       true,
	"MD2HTML_OUTPUT_DIR":      true,
	"MD2HTML_WORKERS":         true,
	"MD2HTML_CONTENT_DIR":     true,
	"MD2HTML_HOST":            true,
	"MD2HTML_PORT":            true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and booleans are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:     os.Getenv("MD2HTML_CONFIG"),
		AssetPath:      os.Getenv("MD2HTML_ASSET_PATH"),
		Locale:         os.Getenv("MD2HTML_LOCALE"),
		PlatformOrigin: os.Getenv("MD2HTML_PLATFORM_ORIGIN"),
		HighlightStyle: os.Getenv("MD2HTML_HIGHLIGHT_STYLE"),
		InputDir:       os.Getenv("MD2HTML_INPUT_DIR"),
		OutputDir:      os.Getenv("MD2HTML_OUTPUT_DIR"),
		ContentDir:     os.Getenv("MD2HTML_CONTENT_DIR"),
		Host:           os.Getenv("MD2HTML_HOST"),
	}

	if v := os.Getenv("MD2HTML_SANITIZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sanitize = &b
		}
	}
	if v := os.Getenv("MD2HTML_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("MD2HTML_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 65535 {
			cfg.Port = n
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MD2HTML_* variables.
// Helps catch typos like MD2HTML_LOCAL instead of MD2HTML_LOCALE.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with set environment variables.
// Together with flags applied afterwards this gives:
// CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Render.Locale, env.Locale)
	setString(&cfg.Render.PlatformOrigin, env.PlatformOrigin)
	setString(&cfg.Render.HighlightStyle, env.HighlightStyle)
	if env.Sanitize != nil {
		cfg.Render.Sanitize = *env.Sanitize
	}

	setString(&cfg.Input.DefaultDir, env.InputDir)
	setString(&cfg.Output.DefaultDir, env.OutputDir)
	setString(&cfg.Assets.BasePath, env.AssetPath)

	setString(&cfg.Server.ContentDir, env.ContentDir)
	setString(&cfg.Server.Host, env.Host)
	if env.Port > 0 {
		cfg.Server.Port = env.Port
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
