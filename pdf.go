package roxy

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-roxy/internal/fileutil"
	"github.com/alnah/go-roxy/internal/process"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// defaultPDFTimeout bounds page loading when ctx has no deadline.
const defaultPDFTimeout = 30 * time.Second

// marginBottomWithFooter leaves room for the page footer.
const marginBottomWithFooter = 0.75

// pageDimensions are width and height in inches, portrait.
var pageDimensions = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() PageSettings {
	return PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid, ignoring case.
func (p PageSettings) Validate() error {
	if _, ok := pageDimensions[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// dimensions returns paper width and height in inches.
func (p PageSettings) dimensions() (width, height float64) {
	dims := pageDimensions[strings.ToLower(p.Size)]
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// Footer configures the page footer printed by Chrome.
type Footer struct {
	Position       string // "left", "center", "right" (default: "right")
	ShowPageNumber bool
	Text           string
}

// pdfRenderer renders a local HTML file to PDF bytes. It is the seam that
// lets the PDF step be tested without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

var _ pdfRenderer = (*rodRenderer)(nil)

// pdfOptions holds the per-document print settings.
type pdfOptions struct {
	Page   PageSettings
	Footer *Footer
}

// PDF prints an HTML document to PDF with headless Chrome.
//
// The browser is launched on first use and kept until Close. Rod downloads
// a managed Chromium when none is installed; ROD_BROWSER_BIN selects a
// specific binary and CI=true disables the sandbox. A PDF holds a browser
// and is not safe for concurrent use; use one per worker.
type PDF struct {
	renderer pdfRenderer
	opts     pdfOptions
}

type pdfConfig struct {
	page     PageSettings
	footer   *Footer
	timeout  time.Duration
	renderer pdfRenderer
}

// PDFOption configures a PDF step.
type PDFOption func(*pdfConfig)

// WithPage sets page size, orientation and margin.
func WithPage(page PageSettings) PDFOption {
	return func(c *pdfConfig) { c.page = page }
}

// WithFooter prints a footer on every page.
func WithFooter(footer Footer) PDFOption {
	return func(c *pdfConfig) { c.footer = &footer }
}

// WithTimeout sets how long to wait for the page to load when the run
// context has no deadline.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) PDFOption {
	if d <= 0 {
		panic("roxy: WithTimeout duration must be positive")
	}
	return func(c *pdfConfig) { c.timeout = d }
}

// withRenderer replaces the browser renderer (tests).
func withRenderer(r pdfRenderer) PDFOption {
	return func(c *pdfConfig) { c.renderer = r }
}

// NewPDF creates a PDF step. No browser is started until the first Apply.
func NewPDF(opts ...PDFOption) (*PDF, error) {
	cfg := pdfConfig{page: DefaultPageSettings(), timeout: defaultPDFTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.page.Validate(); err != nil {
		return nil, err
	}

	renderer := cfg.renderer
	if renderer == nil {
		renderer = newRodRenderer(cfg.timeout)
	}
	return &PDF{
		renderer: renderer,
		opts:     pdfOptions{Page: cfg.page, Footer: cfg.footer},
	}, nil
}

// Name implements Namer.
func (p *PDF) Name() string { return "pdf" }

// Apply implements Transform. src must be an HTML document.
func (p *PDF) Apply(ctx context.Context, _ string, src []byte, dst *bytes.Buffer) error {
	tmpPath, cleanup, err := fileutil.WriteTempFile(string(src), "html")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	data, err := p.renderer.RenderFromFile(ctx, tmpPath, &p.opts)
	if err != nil {
		return err
	}
	dst.Write(data)
	return nil
}

// Close releases the browser.
func (p *PDF) Close() error {
	return p.renderer.Close()
}

// rodRenderer implements pdfRenderer using go-rod.
type rodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	// Pre-installed browser (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox required for CI and containers
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killLauncher()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	return nil
}

// Close releases browser resources. Chrome child processes (renderers, GPU)
// are killed with the process group, as closing the browser alone may leave
// them running.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killLauncher()
	return err
}

func (r *rodRenderer) killLauncher() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		// launcher.Kill below still stops the main process on failure
		_ = process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher = nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPrintOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// buildPrintOptions converts print settings to the DevTools request.
func buildPrintOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	page := DefaultPageSettings()
	var footer *Footer
	if opts != nil {
		page, footer = opts.Page, opts.Footer
	}

	width, height := page.dimensions()
	marginBottom := page.Margin
	if footer != nil && marginBottom < marginBottomWithFooter {
		marginBottom = marginBottomWithFooter
	}

	req := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(page.Margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(page.Margin),
		MarginRight:     floatPtr(page.Margin),
		PrintBackground: true,
	}
	if footer != nil {
		req.DisplayHeaderFooter = true
		req.HeaderTemplate = "<span></span>"
		req.FooterTemplate = buildFooterTemplate(footer)
	}
	return req
}

// buildFooterTemplate generates the HTML for Chrome's native footer.
// pageNumber and totalPages are filled in by Chrome through CSS classes.
func buildFooterTemplate(f *Footer) string {
	var parts []string
	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	if f.Text != "" {
		parts = append(parts, html.EscapeString(f.Text))
	}
	if len(parts) == 0 {
		return "<span></span>"
	}

	align := "right"
	switch strings.ToLower(f.Position) {
	case "left":
		align = "left"
	case "center":
		align = "center"
	}
	return fmt.Sprintf(`<div style="font-size: 10px; color: #aaa; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`,
		align, strings.Join(parts, " - "))
}

func floatPtr(v float64) *float64 {
	return &v
}
