package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed styles/*.css
var styles embed.FS

//go:embed layouts/*.html
var layouts embed.FS

// EmbeddedLoader loads assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// LoadLayout loads a layout template from embedded assets by name.
func (e *EmbeddedLoader) LoadLayout(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := layouts.ReadFile("layouts/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
	}
	return string(content), nil
}

var _ AssetLoader = (*EmbeddedLoader)(nil)

// embeddedNames returns the base names of files with ext in dir.
// fs.ReadDir returns entries sorted by file name.
func embeddedNames(fsys fs.FS, dir, ext string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ext); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	return names
}
