package roxy

import (
	"io"
	"io/fs"
	"os"
)

// Asset is an opened input. Path is the locator it was opened with; the
// embedded ReadCloser yields its content and must be closed by the caller.
type Asset struct {
	Path string
	io.ReadCloser
}

// AssetLoader opens inputs by locator.
type AssetLoader interface {
	Open(locator string) (*Asset, error)
}

// FileLoader opens locators as paths on the local filesystem.
type FileLoader struct{}

// Open implements AssetLoader.
func (FileLoader) Open(locator string) (*Asset, error) {
	// #nosec G304 -- the locator is the user-supplied input path
	f, err := os.Open(locator)
	if err != nil {
		return nil, err
	}
	return &Asset{Path: locator, ReadCloser: f}, nil
}

// FSLoader opens locators from an fs.FS, such as an embed.FS or
// os.DirFS. Locators use the fs.FS path syntax (slash separated, unrooted).
type FSLoader struct {
	FS fs.FS
}

// Open implements AssetLoader.
func (l FSLoader) Open(locator string) (*Asset, error) {
	f, err := l.FS.Open(locator)
	if err != nil {
		return nil, err
	}
	return &Asset{Path: locator, ReadCloser: f}, nil
}

var (
	_ AssetLoader = FileLoader{}
	_ AssetLoader = FSLoader{}
)
