package assets

// Names of the built-in assets.
const (
	DefaultStyleName  = "default"
	DefaultLayoutName = "default"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadLayout loads a layout template by name using the default embedded loader.
func LoadLayout(name string) (string, error) {
	return defaultLoader.LoadLayout(name)
}

// StyleNames lists the built-in style names, sorted.
func StyleNames() []string {
	return embeddedNames(styles, "styles", ".css")
}

// LayoutNames lists the built-in layout names, sorted.
func LayoutNames() []string {
	return embeddedNames(layouts, "layouts", ".html")
}
