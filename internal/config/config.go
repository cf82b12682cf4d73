package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2html/internal/fileutil"
	"github.com/alnah/go-md2html/internal/i18n"
	"github.com/alnah/go-md2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxLocaleLength         = 35   // BCP 47 tags rarely exceed this
	MaxURLLength            = 2048 // Browser limit
	MaxPathLength           = 4096 // PATH_MAX on Linux
	MaxHostLength           = 253  // DNS name limit
	MaxStyleNameLength      = 50   // chroma style names
	MaxMacroNameLength      = 64
	MaxMacroExpansionLength = 1024
	MaxMacroCount           = 256
)

// Default server settings.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
)

// appDirName is the directory searched under os.UserConfigDir.
const appDirName = "go-md2html"

// Config holds all configuration for rendering, conversion and preview.
type Config struct {
	Render RenderConfig `yaml:"render"`
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
	Assets AssetsConfig `yaml:"assets"`
}

// RenderConfig defines Markdown rendering options.
type RenderConfig struct {
	Locale         string            `yaml:"locale"`         // "ja" or "en" (empty = ja)
	PlatformOrigin string            `yaml:"platformOrigin"` // Links under this origin stay followable
	Sanitize       bool              `yaml:"sanitize"`
	HighlightStyle string            `yaml:"highlightStyle"` // chroma style name
	MathMacros     map[string]string `yaml:"mathMacros"`     // nil = built-in macros
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// ServerConfig defines preview server options.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	ContentDir string `yaml:"contentDir"` // Directory holding articles/ and books/
	LiveReload bool   `yaml:"liveReload"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks field lengths and value shapes.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Validate render fields
	if err := validateFieldLength("render.locale", c.Render.Locale, MaxLocaleLength); err != nil {
		return err
	}
	if _, err := i18n.ParseLocale(c.Render.Locale); err != nil {
		return fmt.Errorf("%w: render.locale: %v", ErrInvalidValue, err)
	}
	if err := validateFieldLength("render.platformOrigin", c.Render.PlatformOrigin, MaxURLLength); err != nil {
		return err
	}
	if c.Render.PlatformOrigin != "" {
		if err := validateOrigin(c.Render.PlatformOrigin); err != nil {
			return fmt.Errorf("%w: render.platformOrigin: %v", ErrInvalidValue, err)
		}
	}
	if err := validateFieldLength("render.highlightStyle", c.Render.HighlightStyle, MaxStyleNameLength); err != nil {
		return err
	}
	if len(c.Render.MathMacros) > MaxMacroCount {
		return fmt.Errorf("%w: render.mathMacros: %d entries (max %d)", ErrInvalidValue, len(c.Render.MathMacros), MaxMacroCount)
	}
	for name, expansion := range c.Render.MathMacros {
		if !strings.HasPrefix(name, `\`) || len(name) < 2 {
			return fmt.Errorf("%w: render.mathMacros: macro %q must start with a backslash", ErrInvalidValue, name)
		}
		if err := validateFieldLength("render.mathMacros key", name, MaxMacroNameLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("render.mathMacros[%s]", name), expansion, MaxMacroExpansionLength); err != nil {
			return err
		}
	}

	// Validate paths
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	// Validate server fields
	if err := validateFieldLength("server.host", c.Server.Host, MaxHostLength); err != nil {
		return err
	}
	if err := validateFieldLength("server.contentDir", c.Server.ContentDir, MaxPathLength); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port: must be between 0 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}

	return nil
}

// validateOrigin accepts scheme://host[:port] with an http or https scheme.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http or https URL", origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%q must not have a path, query or fragment", origin)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{},
		Input:  InputConfig{DefaultDir: ""},
		Output: OutputConfig{DefaultDir: ""},
		Server: ServerConfig{
			Host:       DefaultHost,
			Port:       DefaultPort,
			ContentDir: ".",
			LiveReload: true,
		},
		Assets: AssetsConfig{BasePath: ""},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <UserConfigDir>/go-md2html/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
