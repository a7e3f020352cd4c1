package roxy

import (
	"errors"

	"github.com/alnah/go-roxy/internal/assets"
)

// Names of the built-in layout assets.
const (
	// DefaultStyle is the name of the built-in CSS style.
	DefaultStyle = "default"

	// DefaultLayout is the name of the built-in document layout.
	DefaultLayout = "default"
)

// Theme supplies the stylesheets and document layouts used by the Layout
// step. Implementations may load from a directory, embedded files or any
// other store.
type Theme interface {
	// LoadStyle loads a CSS style by name (without the .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadLayout loads a layout template by name (without the .html
	// extension). Returns ErrLayoutNotFound if the layout doesn't exist.
	LoadLayout(name string) (string, error)
}

// NewTheme creates a Theme for the given base path.
// An empty basePath gives the built-in assets only. Otherwise files under
// basePath take precedence and the built-in ones fill the gaps:
//   - styles/{name}.css
//   - layouts/{name}.html
//
// Returns ErrInvalidAssetPath if basePath is set but not a readable directory.
func NewTheme(basePath string) (Theme, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &themeAdapter{resolver: resolver}, nil
}

// BuiltinStyles lists the style names compiled into the binary.
func BuiltinStyles() []string { return assets.StyleNames() }

// BuiltinLayouts lists the layout names compiled into the binary.
func BuiltinLayouts() []string { return assets.LayoutNames() }

// themeAdapter exposes the internal resolver with public errors.
type themeAdapter struct {
	resolver *assets.AssetResolver
}

func (a *themeAdapter) LoadStyle(name string) (string, error) {
	content, err := a.resolver.LoadStyle(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

func (a *themeAdapter) LoadLayout(name string) (string, error) {
	content, err := a.resolver.LoadLayout(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assets.ErrStyleNotFound):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrLayoutNotFound):
		return wrapError(ErrLayoutNotFound, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrInvalidAssetPath, err)
	default:
		return err
	}
}

// wrapError keeps the original message while matching the public sentinel
// with errors.Is. Internal errors are not exposed.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
