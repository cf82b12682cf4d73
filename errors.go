package md2html

import (
	"errors"

	"github.com/alnah/go-md2html/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// ErrHTMLConversion wraps engine failures returned by Convert.
	ErrHTMLConversion = pipeline.ErrHTMLConversion

	// Construction errors.
	ErrInvalidLocale         = errors.New("invalid locale")
	ErrInvalidPlatformOrigin = errors.New("invalid platform origin")
	ErrInvalidHighlightStyle = errors.New("invalid highlight style")
)
