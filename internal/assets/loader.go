package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed styles templates
var builtin embed.FS

// Layer loads assets from a single filesystem.
type Layer struct {
	fsys   fs.FS
	origin string // shown in errors
}

// NewEmbeddedLoader returns the layer compiled into the binary.
func NewEmbeddedLoader() *Layer {
	return &Layer{fsys: builtin, origin: "embedded"}
}

// NewDirLoader returns a layer rooted at dir. Reads are confined to dir
// through os.Root, so symlinks pointing outside it fail.
func NewDirLoader(dir string) (*Layer, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	return &Layer{fsys: root.FS(), origin: abs}, nil
}

// LoadStyle implements AssetLoader.
func (l *Layer) LoadStyle(name string) (string, error) {
	return l.load(styleKind, name)
}

// LoadTemplate implements AssetLoader.
func (l *Layer) LoadTemplate(name string) (string, error) {
	return l.load(templateKind, name)
}

func (l *Layer) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(l.fsys, k.path(name))
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	default:
		return "", fmt.Errorf("%w: %s: %v", ErrAssetRead, l.origin, err)
	}
}

// AssetResolver stacks layers: the first layer holding an asset wins.
type AssetResolver struct {
	layers []AssetLoader
}

// NewAssetResolver returns a resolver over the embedded assets, with the
// directory customBasePath stacked on top when it is set.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if customBasePath != "" {
		custom, err := NewDirLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, custom)
	}
	r.layers = append(r.layers, NewEmbeddedLoader())
	return r, nil
}

// LoadStyle implements AssetLoader.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplate implements AssetLoader.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

// first returns the result of the topmost layer that has the asset. Errors
// other than not-found stop the search.
func (r *AssetResolver) first(load func(AssetLoader) (string, error)) (string, error) {
	var err error
	for _, l := range r.layers {
		var text string
		text, err = load(l)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", err
}

var (
	_ AssetLoader = (*Layer)(nil)
	_ AssetLoader = (*AssetResolver)(nil)
)
