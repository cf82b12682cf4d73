package hints

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	userPath := filepath.Join("home", "u", ".config", "go-md2html", "work.yaml")

	tests := []struct {
		name         string
		paths        []string
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "suggests user config path",
			paths:        []string{"work.yaml", userPath},
			wantContains: []string{"--config", "or create " + userPath},
		},
		{
			name:         "local paths only",
			paths:        []string{"work.yaml", "work.yml"},
			wantContains: []string{"--config"},
			wantNot:      []string{"or create"},
		},
		{
			name:         "no paths",
			paths:        nil,
			wantContains: []string{"--config"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ForConfigNotFound(tt.paths)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("ForConfigNotFound() = %q, missing %q", got, want)
				}
			}
			for _, notWant := range tt.wantNot {
				if strings.Contains(got, notWant) {
					t.Errorf("ForConfigNotFound() = %q, should not contain %q", got, notWant)
				}
			}
		})
	}
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	if got := ForStyleNotFound(nil); got != "" {
		t.Errorf("ForStyleNotFound(nil) = %q, want empty", got)
	}
	got := ForStyleNotFound([]string{"github", "monokai"})
	if !strings.Contains(got, "github, monokai") {
		t.Errorf("ForStyleNotFound() = %q, want joined list", got)
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	all := map[string]string{
		"ForConfigNotFound":  ForConfigNotFound(nil),
		"ForOutputDirectory": ForOutputDirectory(),
		"ForStyleNotFound":   ForStyleNotFound([]string{"github"}),
		"ForLocale":          ForLocale(),
		"ForPlatformOrigin":  ForPlatformOrigin(),
		"ForAddressInUse":    ForAddressInUse(),
		"ForContentLayout":   ForContentLayout(),
	}
	for name, hint := range all {
		if !strings.HasPrefix(hint, "\n  hint: ") {
			t.Errorf("%s() = %q, want \"\\n  hint: \" prefix", name, hint)
		}
		if strings.Count(hint, "\n") != 1 {
			t.Errorf("%s() = %q, want a single line", name, hint)
		}
	}
	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
}
