package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/goodsign/monday"

	"wochenplan/internal/log"
	"wochenplan/internal/schedule"
)

// DefaultPrintTimeout bounds one Chromium print run.
const DefaultPrintTimeout = 30 * time.Second

// A4 paper size in inches, landscape.
const (
	paperWidthIn  = 11.69
	paperHeightIn = 8.27
)

// Options configures document output for one run.
type Options struct {
	// OutputDir is where the HTML and PDF files are written.
	OutputDir string
	// Prefix is the filename prefix: {prefix}_{first}_{last}.pdf.
	Prefix string
	// Locale selects weekday names in the header row.
	Locale monday.Locale
	// Timeout bounds the Chromium print; zero means DefaultPrintTimeout.
	Timeout time.Duration
}

// FileName builds the output name for one date-group.
func FileName(prefix string, g schedule.Group, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		prefix,
		g.First().Format("2006-01-02"),
		g.Last().Format("2006-01-02"),
		ext)
}

// Render writes one printable document for the table's date-group: the
// HTML layout, then the PDF printed from it. It returns the PDF path. The
// HTML file stays next to the PDF for preview and debugging.
func Render(ctx context.Context, tbl schedule.Table, opts Options) (string, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Prefix == "" {
		opts.Prefix = "wochenplan"
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: create output dir: %w", err)
	}

	html, err := HTML(tbl, opts.Locale)
	if err != nil {
		return "", err
	}

	htmlPath := filepath.Join(opts.OutputDir, FileName(opts.Prefix, tbl.Group, "html"))
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return "", fmt.Errorf("render: write HTML: %w", err)
	}

	pdfPath := filepath.Join(opts.OutputDir, FileName(opts.Prefix, tbl.Group, "pdf"))
	if err := printPDF(ctx, htmlPath, pdfPath, opts.Timeout); err != nil {
		return "", err
	}

	log.Info("document written", "pdf", pdfPath)
	return pdfPath, nil
}

// printPDF loads the HTML file in headless Chromium and prints it to PDF
// on A4 landscape paper.
func printPDF(parentCtx context.Context, htmlPath, pdfPath string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultPrintTimeout
	}

	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("render: resolve HTML path: %w", err)
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("file://" + absPath),
		// The page marks itself ready once laid out.
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("render: chromedp print failed: %w", err)
	}

	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("render: write PDF: %w", err)
	}
	return nil
}
