package export

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// ContentTypePDF is the media type of every successful export
const ContentTypePDF = "application/pdf"

// Launcher starts one browser session per export
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// Session is a single-use rendering surface. Steps are called strictly in
// order; Close is always called exactly once, whatever happened before it.
type Session interface {
	// Prepare switches the surface to print media and a fixed viewport
	Prepare(ctx context.Context) error
	// Load sets html as the page content and returns once both the load
	// event and network idle have been observed
	Load(ctx context.Context, html string) error
	// WaitFonts returns once every font face has finished loading
	WaitFonts(ctx context.Context) error
	PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error)
	// Close terminates the browser process
	Close() error
}

// Result is a generated PDF with its response metadata
type Result struct {
	Data          []byte
	ContentType   string
	ContentLength int
	Duration      time.Duration
}

// Exporter runs export sessions. It is safe for concurrent use; sessions
// share nothing except the concurrency limit.
type Exporter struct {
	launcher Launcher
	opts     Options
	logger   *slog.Logger
	slots    *semaphore.Weighted
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates an Exporter. Zero fields in opts take their defaults.
func New(launcher Launcher, opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Exporter{
		launcher: launcher,
		opts:     opts,
		logger:   logger,
		slots:    semaphore.NewWeighted(opts.MaxConcurrent),
		sleep:    sleepContext,
	}
}

// Options returns the effective options after defaults were applied
func (e *Exporter) Options() Options {
	return e.opts
}

// Export converts html to PDF in a fresh browser session. The session is
// torn down on every path, including caller cancellation. Failures are
// *InvalidInputError, *RenderTimeoutError or *RenderFailureError.
func (e *Exporter) Export(ctx context.Context, html string) (result *Result, err error) {
	if strings.TrimSpace(html) == "" {
		return nil, &InvalidInputError{Message: "html is required"}
	}

	start := time.Now()
	log := e.logger.With("component", "export")

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, classify(PhaseQueue, err, ctx, 0)
	}
	defer e.slots.Release(1)

	session, err := e.launcher.Launch(ctx, e.opts)
	if err != nil {
		log.Warn("browser launch failed", "error", err)
		return nil, classify(PhaseLaunch, err, ctx, 0)
	}
	log.Debug("browser launched", "elapsed", time.Since(start))

	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("browser teardown reported an error", "error", cerr)
		}
		if err != nil {
			log.Error("export failed", "error", err, "elapsed", time.Since(start))
		}
	}()

	if err := session.Prepare(ctx); err != nil {
		return nil, classify(PhasePrepare, err, ctx, 0)
	}

	// load, font wait and settle share one budget
	loadBudget := phaseBudget(ctx, e.opts.LoadTimeout)
	loadCtx, cancelLoad := context.WithTimeout(ctx, e.opts.LoadTimeout)
	defer cancelLoad()

	phaseStart := time.Now()
	if err := session.Load(loadCtx, html); err != nil {
		return nil, classify(PhaseLoad, err, loadCtx, loadBudget)
	}
	log.Debug("content loaded", "elapsed", time.Since(phaseStart))

	phaseStart = time.Now()
	if err := session.WaitFonts(loadCtx); err != nil {
		return nil, classify(PhaseFonts, err, loadCtx, loadBudget)
	}
	log.Debug("fonts ready", "elapsed", time.Since(phaseStart))

	if err := e.sleep(loadCtx, e.opts.SettleDelay); err != nil {
		return nil, classify(PhaseSettle, err, loadCtx, loadBudget)
	}

	printBudget := phaseBudget(ctx, e.opts.PrintTimeout)
	printCtx, cancelPrint := context.WithTimeout(ctx, e.opts.PrintTimeout)
	defer cancelPrint()

	phaseStart = time.Now()
	data, err := session.PrintPDF(printCtx, e.opts.Print)
	if err != nil {
		return nil, classify(PhasePrint, err, printCtx, printBudget)
	}
	if len(data) == 0 {
		return nil, &RenderFailureError{Phase: PhasePrint, Message: "browser returned an empty document"}
	}
	log.Debug("pdf printed", "bytes", len(data), "elapsed", time.Since(phaseStart))

	return &Result{
		Data:          data,
		ContentType:   ContentTypePDF,
		ContentLength: len(data),
		Duration:      time.Since(start),
	}, nil
}

// classify wraps a phase error. A deadline on either the error or the
// phase context is a timeout; anything else is a failure.
func classify(phase Phase, err error, phaseCtx context.Context, budget time.Duration) error {
	var timeout *RenderTimeoutError
	var failure *RenderFailureError
	if errors.As(err, &timeout) || errors.As(err, &failure) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(phaseCtx.Err(), context.DeadlineExceeded) {
		return &RenderTimeoutError{Phase: phase, Timeout: budget, Cause: err}
	}
	return &RenderFailureError{Phase: phase, Cause: err}
}

// phaseBudget is the time a phase actually gets: its own timeout, or less
// when the caller's deadline comes first
func phaseBudget(parent context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := parent.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return max(remaining, 0)
		}
	}
	return timeout
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
