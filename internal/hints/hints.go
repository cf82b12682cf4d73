// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"
)

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and, when one was searched, the user config path.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	marker := string(filepath.Separator) + "go-md2html" + string(filepath.Separator)
	for _, p := range searchedPaths {
		if strings.Contains(p, marker) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints listing the known highlight styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForLocale returns a hint listing supported locales.
func ForLocale() string {
	return format("supported locales: ja, en")
}

// ForPlatformOrigin returns a hint describing the expected origin shape.
func ForPlatformOrigin() string {
	return format("use scheme and host only, e.g. https://zenn.dev")
}

// ForAddressInUse returns a hint for a preview port already taken.
func ForAddressInUse() string {
	return format("another process uses this port; pick one with --port")
}

// ForContentLayout returns a hint describing the expected content directory.
func ForContentLayout() string {
	return format("expected articles/<slug>.md and books/<slug>/config.yaml")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
