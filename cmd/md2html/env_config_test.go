package main

// Notes:
// - These tests use t.Setenv and therefore cannot run in parallel.
// - loadConfig is covered here because its precedence depends on env vars.

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2html/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Reading MD2HTML_* variables
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("MD2HTML_LOCALE", "en")
	t.Setenv("MD2HTML_PLATFORM_ORIGIN", "https://example.com")
	t.Setenv("MD2HTML_HIGHLIGHT_STYLE", "monokai")
	t.Setenv("MD2HTML_SANITIZE", "true")
	t.Setenv("MD2HTML_WORKERS", "4")
	t.Setenv("MD2HTML_PORT", "9000")
	t.Setenv("MD2HTML_HOST", "0.0.0.0")
	t.Setenv("MD2HTML_CONTENT_DIR", "site")

	env := loadEnvConfig()

	if env.Locale != "en" {
		t.Errorf("Locale = %q, want %q", env.Locale, "en")
	}
	if env.PlatformOrigin != "https://example.com" {
		t.Errorf("PlatformOrigin = %q", env.PlatformOrigin)
	}
	if env.HighlightStyle != "monokai" {
		t.Errorf("HighlightStyle = %q", env.HighlightStyle)
	}
	if env.Sanitize == nil || !*env.Sanitize {
		t.Errorf("Sanitize = %v, want true", env.Sanitize)
	}
	if env.Workers != 4 {
		t.Errorf("Workers = %d, want 4", env.Workers)
	}
	if env.Port != 9000 {
		t.Errorf("Port = %d, want 9000", env.Port)
	}
	if env.Host != "0.0.0.0" || env.ContentDir != "site" {
		t.Errorf("Host/ContentDir = %q/%q", env.Host, env.ContentDir)
	}
}

func TestLoadEnvConfig_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("MD2HTML_SANITIZE", "maybe")
	t.Setenv("MD2HTML_WORKERS", "-3")
	t.Setenv("MD2HTML_PORT", "70000")

	env := loadEnvConfig()

	if env.Sanitize != nil {
		t.Errorf("Sanitize = %v, want nil", *env.Sanitize)
	}
	if env.Workers != 0 {
		t.Errorf("Workers = %d, want 0", env.Workers)
	}
	if env.Port != 0 {
		t.Errorf("Port = %d, want 0", env.Port)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env overrides config file values
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	off := false
	cfg := config.DefaultConfig()
	cfg.Render.Locale = "ja"
	cfg.Render.Sanitize = true
	cfg.Output.DefaultDir = "from-file"

	applyEnvConfig(&envConfig{
		Locale:   "en",
		Sanitize: &off,
		Port:     9100,
	}, cfg)

	if cfg.Render.Locale != "en" {
		t.Errorf("Locale = %q, want env value", cfg.Render.Locale)
	}
	if cfg.Render.Sanitize {
		t.Error("Sanitize should be overridden to false")
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Output.DefaultDir != "from-file" {
		t.Errorf("unset env var should keep file value, got %q", cfg.Output.DefaultDir)
	}
	if cfg.Server.Host != config.DefaultHost {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("MD2HTML_LOCAL", "en")
	t.Setenv("MD2HTML_LOCALE", "en")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	out := buf.String()
	if !strings.Contains(out, "MD2HTML_LOCAL ") {
		t.Errorf("output %q should warn about MD2HTML_LOCAL", out)
	}
	if strings.Contains(out, "MD2HTML_LOCALE") {
		t.Errorf("output %q should not warn about a known variable", out)
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Config source resolution
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Run("no config uses defaults", func(t *testing.T) {
		cfg, err := loadConfig(commonFlags{})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Port != config.DefaultPort {
			t.Errorf("Port = %d, want default", cfg.Server.Port)
		}
	})

	t.Run("config from env var with env override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "site.yaml")
		data := "render:\n  locale: ja\nserver:\n  port: 8100\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		t.Setenv("MD2HTML_CONFIG", path)
		t.Setenv("MD2HTML_LOCALE", "en")

		cfg, err := loadConfig(commonFlags{})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Port != 8100 {
			t.Errorf("Port = %d, want file value 8100", cfg.Server.Port)
		}
		if cfg.Render.Locale != "en" {
			t.Errorf("Locale = %q, want env override", cfg.Render.Locale)
		}
	})

	t.Run("flag wins over env var", func(t *testing.T) {
		t.Setenv("MD2HTML_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		path := filepath.Join(t.TempDir(), "flag.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 8200\n"), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := loadConfig(commonFlags{config: path})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Port != 8200 {
			t.Errorf("Port = %d, want 8200", cfg.Server.Port)
		}
	})

	t.Run("missing named config adds hint", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := loadConfig(commonFlags{config: "nonexistent"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Fatalf("loadConfig() error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "hint:") {
			t.Errorf("error %q should carry a hint", err)
		}
	})
}
