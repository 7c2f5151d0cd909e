package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromeLauncher launches a local headless Chrome per session via chromedp.
// Requires Chrome/Chromium to be installed on the system.
type ChromeLauncher struct {
	Logger *slog.Logger
}

// NewChromeLauncher creates a ChromeLauncher
func NewChromeLauncher(logger *slog.Logger) *ChromeLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeLauncher{Logger: logger}
}

// allocatorOptions returns the exec flags for a print-only browser
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.WindowSize(int(opts.ViewportWidth), int(opts.ViewportHeight)),
	)
	if opts.ChromePath != "" {
		flags = append(flags, chromedp.ExecPath(opts.ChromePath))
	}
	return flags
}

// Launch starts a browser process. The process lifetime is detached from
// ctx so that teardown stays under Close's control; ctx only bounds startup.
func (l *ChromeLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		opts:          opts,
		logger:        l.Logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}

	// first Run allocates the browser; it must not carry ctx's deadline or
	// the process would die with it
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	select {
	case err := <-started:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	}

	s.process = browserProcess(browserCtx)
	l.Logger.Debug("chrome started", "pid", s.pid())
	return s, nil
}

type chromeSession struct {
	opts    Options
	logger  *slog.Logger
	process *os.Process

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// bind derives an operation context from the browser context that is
// canceled with ctx and carries ctx's deadline
func (s *chromeSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(s.browserCtx)
	stop := context.AfterFunc(ctx, cancel)

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		opCtx, cancelDeadline = context.WithDeadline(opCtx, deadline)
		return opCtx, func() { stop(); cancelDeadline(); cancel() }
	}
	return opCtx, func() { stop(); cancel() }
}

func (s *chromeSession) Prepare(ctx context.Context) error {
	opCtx, cancel := s.bind(ctx)
	defer cancel()

	return chromedp.Run(opCtx,
		emulation.SetEmulatedMedia().WithMedia("print"),
		emulation.SetDeviceMetricsOverride(s.opts.ViewportWidth, s.opts.ViewportHeight, s.opts.DeviceScaleFactor, false),
	)
}

// networkQuietPeriod is how long no request may be in flight before the
// network counts as idle, matching Chrome's own networkIdle signal
const networkQuietPeriod = 500 * time.Millisecond

// Load replaces an about:blank document with html. The page keeps an opaque
// origin, so the content cannot reach file:// or other local resources.
func (s *chromeSession) Load(ctx context.Context, html string) error {
	opCtx, cancel := s.bind(ctx)
	defer cancel()

	tracker := newNetworkTracker()
	chromedp.ListenTarget(opCtx, tracker.handle)

	return chromedp.Run(opCtx,
		network.Enable(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			tracker.touch()
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(waitDocumentComplete),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return tracker.waitIdle(ctx, networkQuietPeriod)
		}),
	)
}

// waitDocumentComplete polls document.readyState. Evaluation errors while the
// replaced document swaps its execution context are retried.
func waitDocumentComplete(ctx context.Context) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		var state string
		if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err == nil && state == "complete" {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// networkTracker counts in-flight requests from network domain events
type networkTracker struct {
	mu         sync.Mutex
	inflight   map[network.RequestID]struct{}
	lastChange time.Time
	now        func() time.Time
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight:   make(map[network.RequestID]struct{}),
		lastChange: time.Now(),
		now:        time.Now,
	}
}

func (t *networkTracker) handle(ev any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.lastChange = t.now()
}

// touch restarts the quiet period
func (t *networkTracker) touch() {
	t.mu.Lock()
	t.lastChange = t.now()
	t.mu.Unlock()
}

// idleFor reports whether nothing has been in flight for at least quiet
func (t *networkTracker) idleFor(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastChange) >= quiet
}

func (t *networkTracker) waitIdle(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(max(quiet/10, 10*time.Millisecond))
	defer ticker.Stop()

	for !t.idleFor(quiet) {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *chromeSession) WaitFonts(ctx context.Context) error {
	opCtx, cancel := s.bind(ctx)
	defer cancel()

	var status string
	err := chromedp.Run(opCtx,
		chromedp.Evaluate(`document.fonts.ready.then(() => document.fonts.status)`, &status,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
	)
	if err != nil {
		return err
	}
	if status != "loaded" {
		return fmt.Errorf("font set status %q after ready", status)
	}
	return nil
}

func (s *chromeSession) PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error) {
	opCtx, cancel := s.bind(ctx)
	defer cancel()

	var buf []byte
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(opts.PaperWidth).
			WithPaperHeight(opts.PaperHeight).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPreferCSSPageSize(true).
			WithDisplayHeaderFooter(false).
			WithScale(opts.Scale).
			Do(ctx)
		return err
	}))
	return buf, err
}

// Close shuts the browser down and waits for the process to exit. Safe to
// call more than once.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error

		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browserCancel()
		// canceling the allocator kills the process if it is still alive
		// and blocks until it has exited
		s.allocCancel()

		s.closeErr = errors.Join(errs...)
		s.logger.Debug("chrome terminated", "pid", s.pid())
	})
	return s.closeErr
}

func (s *chromeSession) pid() int {
	if s.process == nil {
		return 0
	}
	return s.process.Pid
}

func browserProcess(ctx context.Context) *os.Process {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Browser == nil {
		return nil
	}
	return c.Browser.Process()
}
