package export

import "time"

// Default session parameters. The viewport is A4 at 96 DPI.
const (
	DefaultLoadTimeout       = 30 * time.Second
	DefaultPrintTimeout      = 30 * time.Second
	DefaultSettleDelay       = 500 * time.Millisecond
	DefaultViewportWidth     = 794
	DefaultViewportHeight    = 1123
	DefaultDeviceScaleFactor = 2.0
	DefaultPaperWidth        = 8.27
	DefaultPaperHeight       = 11.69
	DefaultMaxConcurrent     = 2
)

// Options configures an export session
type Options struct {
	// ChromePath overrides the browser binary; empty uses chromedp's lookup
	ChromePath string

	// LoadTimeout bounds content load, font wait and settle together
	LoadTimeout  time.Duration
	PrintTimeout time.Duration
	SettleDelay  time.Duration

	ViewportWidth     int64
	ViewportHeight    int64
	DeviceScaleFactor float64

	// MaxConcurrent caps simultaneous browser sessions per Exporter
	MaxConcurrent int64

	Print PrintOptions
}

// PrintOptions configures PDF generation. Backgrounds are always printed,
// margins are zero, the CSS page size wins over the paper size and no header
// or footer is injected.
type PrintOptions struct {
	PaperWidth  float64 // inches
	PaperHeight float64 // inches
	Scale       float64
}

// DefaultOptions returns A4, zero-margin, background-printing options
func DefaultOptions() Options {
	return Options{
		LoadTimeout:       DefaultLoadTimeout,
		PrintTimeout:      DefaultPrintTimeout,
		SettleDelay:       DefaultSettleDelay,
		ViewportWidth:     DefaultViewportWidth,
		ViewportHeight:    DefaultViewportHeight,
		DeviceScaleFactor: DefaultDeviceScaleFactor,
		MaxConcurrent:     DefaultMaxConcurrent,
		Print: PrintOptions{
			PaperWidth:  DefaultPaperWidth,
			PaperHeight: DefaultPaperHeight,
			Scale:       1,
		},
	}
}

// withDefaults fills zero values from DefaultOptions. SettleDelay is kept at
// zero only when explicitly negative.
func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.LoadTimeout <= 0 {
		o.LoadTimeout = d.LoadTimeout
	}
	if o.PrintTimeout <= 0 {
		o.PrintTimeout = d.PrintTimeout
	}
	switch {
	case o.SettleDelay < 0:
		o.SettleDelay = 0
	case o.SettleDelay == 0:
		o.SettleDelay = d.SettleDelay
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = d.ViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = d.ViewportHeight
	}
	if o.DeviceScaleFactor <= 0 {
		o.DeviceScaleFactor = d.DeviceScaleFactor
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = d.MaxConcurrent
	}
	if o.Print.PaperWidth <= 0 {
		o.Print.PaperWidth = d.Print.PaperWidth
	}
	if o.Print.PaperHeight <= 0 {
		o.Print.PaperHeight = d.Print.PaperHeight
	}
	if o.Print.Scale <= 0 {
		o.Print.Scale = d.Print.Scale
	}

	return o
}
