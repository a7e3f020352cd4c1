package assets

// AssetLoader defines the contract for loading CSS styles and layouts.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadLayout loads a layout template by name (without .html extension).
	// Returns ErrLayoutNotFound if the layout doesn't exist.
	LoadLayout(name string) (string, error)
}
