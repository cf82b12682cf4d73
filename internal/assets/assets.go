// Package assets provides the stylesheet and HTML page templates used for
// standalone output and the preview server.
//
// Assets live in two directories of a layer:
//
//	{layer}/
//	├── styles/{name}.css        # zenn.css
//	└── templates/{name}.html    # page.html, index.html
//
// The built-in layer is embedded in the binary. A custom directory may be
// stacked on top of it to override single files; anything it lacks falls
// through to the embedded copy. Templates are html/template sources executed
// with pipeline.PageData.
package assets

import (
	"errors"
	"fmt"
	"strings"
)

// Built-in asset names.
const (
	// DefaultStyleName is the stylesheet for rendered articles.
	DefaultStyleName = "zenn"

	// PageTemplateName renders one article or chapter.
	PageTemplateName = "page"

	// IndexTemplateName renders a listing of articles, books or chapters.
	IndexTemplateName = "index"
)

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName indicates a name with separators or dots.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath indicates a custom asset directory that cannot be opened.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead covers I/O failures, including reads that would leave the
	// custom directory through a symlink.
	ErrAssetRead = errors.New("failed to read asset")
)

// AssetLoader loads CSS styles and HTML templates by bare name.
type AssetLoader interface {
	// LoadStyle returns styles/{name}.css or ErrStyleNotFound.
	LoadStyle(name string) (string, error)

	// LoadTemplate returns templates/{name}.html or ErrTemplateNotFound.
	LoadTemplate(name string) (string, error)
}

// kind describes where one family of assets lives inside a layer.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// path returns the slash-separated location of name within a layer.
func (k kind) path(name string) string {
	return k.dir + "/" + name + k.ext
}

// ValidateAssetName rejects empty names and names containing path
// separators or dots.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
