// Package config loads and validates roxy configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-roxy/internal/dateutil"
	"github.com/alnah/go-roxy/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config value")
	ErrUnknownStep     = errors.New("unknown step")
)

// appDir is the directory name under the user config directory.
const appDir = "go-roxy"

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxNameLength     = 100
	MaxTextLength     = 500
	MaxBindingKeyLen  = 100
	MaxBindings       = 256
	MaxCSSLength      = 64 << 10
	MaxDateLength     = 50
	MaxStepCount      = 16
	MaxTerminalWidth  = 1000
	MaxAutoescapeExts = 16
)

// Step names accepted in the steps list.
const (
	StepMarkdown = "markdown"
	StepTemplate = "template"
	StepLayout   = "layout"
	StepPaths    = "paths"
	StepPDF      = "pdf"
	StepTerminal = "terminal"
)

// KnownSteps lists every accepted step name.
var KnownSteps = []string{StepMarkdown, StepTemplate, StepLayout, StepPaths, StepPDF, StepTerminal}

// DefaultSteps is the chain used when a config does not name one.
var DefaultSteps = []string{StepMarkdown, StepTemplate}

// Config holds all configuration for a roxy run.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Steps    []string       `yaml:"steps"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Template TemplateConfig `yaml:"template"`
	Layout   LayoutConfig   `yaml:"layout"`
	PDF      PDFConfig      `yaml:"pdf"`
	Terminal TerminalConfig `yaml:"terminal"`
	Assets   AssetsConfig   `yaml:"assets"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = next to source)
}

// MarkdownConfig selects Markdown engine features.
type MarkdownConfig struct {
	HardWraps  bool   `yaml:"hardWraps"`
	XHTML      bool   `yaml:"xhtml"`
	Unsafe     bool   `yaml:"unsafe"`     // Keep raw HTML from the source
	HeadingIDs bool   `yaml:"headingIDs"` // Generate id attributes on headings
	Highlight  bool   `yaml:"highlight"`  // Syntax highlighting for fenced code
	Style      string `yaml:"style"`      // Chroma style; empty = CSS classes
	Preprocess bool   `yaml:"preprocess"` // CRLF, blank lines, ==mark==
}

// TemplateConfig defines the template step bindings and behavior.
type TemplateConfig struct {
	Context    map[string]any `yaml:"context"`    // Bindings available to every template
	Date       string         `yaml:"date"`       // "auto", "auto:FORMAT" or a literal; bound as "date"
	Lenient    bool           `yaml:"lenient"`    // Missing bindings render empty instead of failing
	Autoescape []string       `yaml:"autoescape"` // Extensions rendered with HTML escaping (nil = defaults)
}

// LayoutConfig defines the document layout step.
type LayoutConfig struct {
	Style string `yaml:"style"` // Style name (default: "default")
	Name  string `yaml:"name"`  // Layout name (default: "default")
	CSS   string `yaml:"css"`   // Extra CSS appended after the style
	Lang  string `yaml:"lang"`  // <html lang>
	Title string `yaml:"title"` // Fixed title (empty = first h1, then file name)
}

// PDFConfig defines PDF output settings.
type PDFConfig struct {
	Page    PageConfig   `yaml:"page"`
	Footer  FooterConfig `yaml:"footer"`
	Timeout string       `yaml:"timeout"` // Go duration, e.g. "45s" (default: 30s)
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// FooterConfig defines the PDF page footer.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // "left", "center", "right" (default: "right")
	ShowPageNumber bool   `yaml:"showPageNumber"`
	Text           string `yaml:"text"`
}

// TerminalConfig defines the terminal preview step.
type TerminalConfig struct {
	Width int    `yaml:"width"` // Word wrap column (0 = renderer default)
	Style string `yaml:"style"` // glamour style (empty = auto detect)
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `yaml:"format"` // "text" or "json" (default: "text")
}

// MetricsConfig defines the metrics textfile export.
type MetricsConfig struct {
	File string `yaml:"file"` // Write Prometheus textfile here after a run (empty = off)
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Steps: slices.Clone(DefaultSteps),
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks every section. Called by LoadConfig, but available for
// configs built in code.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validatePaths,
		c.validateSteps,
		c.validateTemplate,
		c.validateLayout,
		c.validatePDF,
		c.validateTerminal,
		c.validateLog,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	fields := []struct{ name, value string }{
		{"input.defaultDir", c.Input.DefaultDir},
		{"output.defaultDir", c.Output.DefaultDir},
		{"assets.basePath", c.Assets.BasePath},
		{"metrics.file", c.Metrics.File},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSteps() error {
	if len(c.Steps) > MaxStepCount {
		return fmt.Errorf("%w: steps: %d steps (max %d)", ErrInvalidField, len(c.Steps), MaxStepCount)
	}
	for i, step := range c.Steps {
		if !slices.Contains(KnownSteps, step) {
			return fmt.Errorf("%w: steps[%d]: %w %q (known: %s)", ErrInvalidField, i, ErrUnknownStep, step, strings.Join(KnownSteps, ", "))
		}
		// pdf and terminal produce non-HTML output and must end the chain.
		if (step == StepPDF || step == StepTerminal) && i != len(c.Steps)-1 {
			return fmt.Errorf("%w: steps[%d]: %q must be the last step", ErrInvalidField, i, step)
		}
	}
	return nil
}

func (c *Config) validateTemplate() error {
	if len(c.Template.Context) > MaxBindings {
		return fmt.Errorf("%w: template.context: %d bindings (max %d)", ErrInvalidField, len(c.Template.Context), MaxBindings)
	}
	for key := range c.Template.Context {
		if key == "" {
			return fmt.Errorf("%w: template.context: empty binding name", ErrInvalidField)
		}
		if err := validateFieldLength("template.context key", key, MaxBindingKeyLen); err != nil {
			return err
		}
	}
	if err := validateFieldLength("template.date", c.Template.Date, MaxDateLength); err != nil {
		return err
	}
	if _, err := dateutil.Resolve(c.Template.Date, time.Now()); err != nil {
		return fmt.Errorf("template.date: %w", err)
	}
	if len(c.Template.Autoescape) > MaxAutoescapeExts {
		return fmt.Errorf("%w: template.autoescape: %d entries (max %d)", ErrInvalidField, len(c.Template.Autoescape), MaxAutoescapeExts)
	}
	for i, ext := range c.Template.Autoescape {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: template.autoescape[%d]: %q must look like \".html\"", ErrInvalidField, i, ext)
		}
	}
	return nil
}

func (c *Config) validateLayout() error {
	fields := []struct {
		name, value string
		max         int
	}{
		{"layout.style", c.Layout.Style, MaxNameLength},
		{"layout.name", c.Layout.Name, MaxNameLength},
		{"layout.lang", c.Layout.Lang, MaxNameLength},
		{"layout.title", c.Layout.Title, MaxTextLength},
		{"layout.css", c.Layout.CSS, MaxCSSLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePDF() error {
	if err := validateFieldLength("pdf.footer.text", c.PDF.Footer.Text, MaxTextLength); err != nil {
		return err
	}
	switch strings.ToLower(c.PDF.Footer.Position) {
	case "", "left", "center", "right":
	default:
		return fmt.Errorf("%w: pdf.footer.position: %q (must be left, center, or right)", ErrInvalidField, c.PDF.Footer.Position)
	}
	if c.PDF.Page.Margin < 0 {
		return fmt.Errorf("%w: pdf.page.margin: must not be negative, got %.2f", ErrInvalidField, c.PDF.Page.Margin)
	}
	if _, err := c.PDF.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTerminal() error {
	if c.Terminal.Width < 0 || c.Terminal.Width > MaxTerminalWidth {
		return fmt.Errorf("%w: terminal.width: must be between 0 and %d, got %d", ErrInvalidField, MaxTerminalWidth, c.Terminal.Width)
	}
	return validateFieldLength("terminal.style", c.Terminal.Style, MaxNameLength)
}

func (c *Config) validateLog() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: %q (must be debug, info, warn, or error)", ErrInvalidField, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format: %q (must be text or json)", ErrInvalidField, c.Log.Format)
	}
	return nil
}

// TimeoutDuration parses pdf.timeout. An empty value returns 0, meaning
// the step default.
func (p PDFConfig) TimeoutDuration() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: pdf.timeout: %v", ErrInvalidField, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: pdf.timeout: must be positive, got %s", ErrInvalidField, d)
	}
	return d, nil
}

// Bindings returns the template bindings for a run at time now: the
// configured context plus "date" when template.date is set. A "date" key
// in the context wins over template.date.
func (c *Config) Bindings(now time.Time) (map[string]any, error) {
	bindings := make(map[string]any, len(c.Template.Context)+1)
	if c.Template.Date != "" {
		date, err := dateutil.Resolve(c.Template.Date, now)
		if err != nil {
			return nil, fmt.Errorf("template.date: %w", err)
		}
		bindings["date"] = date
	}
	for k, v := range c.Template.Context {
		bindings[k] = v
	}
	return bindings, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// A value containing a path separator is a file path; otherwise it is a
// name searched in the standard locations. A missing file is an error
// (no silent fallback). Steps default to DefaultSteps when the file has
// none.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Steps = nil
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}
	if len(cfg.Steps) == 0 {
		cfg.Steps = slices.Clone(DefaultSteps)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, user config dir/go-roxy/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		tried = append(tried, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
