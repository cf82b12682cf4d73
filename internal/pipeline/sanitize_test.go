package pipeline

import (
	"strings"
	"testing"
)

func TestSanitizer_Sanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "youtube embed kept",
			input:        `<div class="embed-youtube"><iframe src="https://www.youtube.com/embed/abc?loop=1&amp;playlist=abc" allowfullscreen loading="lazy"></iframe></div>`,
			wantContains: []string{`<iframe src="https://www.youtube.com/embed/abc?loop=1&amp;playlist=abc"`, `class="embed-youtube"`, "allowfullscreen"},
		},
		{
			name:    "foreign iframe dropped",
			input:   `<iframe src="https://evil.example.com/"></iframe>`,
			wantNot: []string{"evil.example.com"},
		},
		{
			name:         "script removed",
			input:        `<p>x</p><script>alert(1)</script>`,
			wantContains: []string{"<p>x</p>"},
			wantNot:      []string{"<script", "alert"},
		},
		{
			name:         "nofollow kept, no extra rel added",
			input:        `<a href="https://zenn.dev/x">in</a><a href="https://example.com" rel="nofollow">out</a>`,
			wantContains: []string{`<a href="https://zenn.dev/x">in</a>`, `rel="nofollow"`},
		},
		{
			name:         "javascript URL dropped",
			input:        `<a href="javascript:alert(1)">x</a>`,
			wantNot:      []string{"javascript:"},
			wantContains: []string{"x"},
		},
		{
			name:         "custom elements kept",
			input:        `<div class="embed-gist"><embed-gist page-url="https://gist.github.com/u/1" encoded-filename="a.js"></embed-gist></div>`,
			wantContains: []string{`<embed-gist page-url="https://gist.github.com/u/1" encoded-filename="a.js">`},
		},
		{
			name:         "math placeholder kept",
			input:        `<embed-katex display-mode="1"><eqn class="zenn-katex">x</eqn></embed-katex>`,
			wantContains: []string{`<embed-katex display-mode="1"><eqn class="zenn-katex">x</eqn></embed-katex>`},
		},
		{
			name:         "data attributes kept",
			input:        `<p data-line="4">x</p>`,
			wantContains: []string{`data-line="4"`},
		},
		{
			name:         "event handlers dropped",
			input:        `<img src="https://example.com/a.png" onerror="alert(1)" width="20">`,
			wantContains: []string{`width="20"`},
			wantNot:      []string{"onerror"},
		},
		{
			name:         "task checkbox kept",
			input:        `<input class="task-list-item-checkbox" type="checkbox" checked>`,
			wantContains: []string{`type="checkbox"`, "checked"},
		},
	}

	s := NewSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot: %s", want, got)
				}
			}
			for _, notWant := range tt.wantNot {
				if strings.Contains(got, notWant) {
					t.Errorf("output should not contain %q\ngot: %s", notWant, got)
				}
			}
		})
	}
}
