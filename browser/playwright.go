package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches Chromium through playwright-go. The driver is
// started on first launch and shared by all sessions until Close.
type PlaywrightLauncher struct {
	// Install downloads the driver and Chromium before the first launch.
	Install bool

	pw *playwright.Playwright
	mu sync.Mutex
}

func (l *PlaywrightLauncher) driver() (*playwright.Playwright, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return l.pw, nil
	}
	if l.Install {
		err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
		if err != nil {
			return nil, fmt.Errorf("installing playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	l.pw = pw
	return pw, nil
}

func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := l.driver()
	if err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if len(opts.IgnoreDefaultArgs) > 0 {
		launchOpts.IgnoreDefaultArgs = opts.IgnoreDefaultArgs
	}
	if opts.NoViewport {
		launchOpts.NoViewport = playwright.Bool(true)
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}

	bctx, err := pw.Chromium.LaunchPersistentContext(opts.ProfileDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = bctx.NewPage()
		if err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("opening page: %w", err)
		}
	}

	return &pwBrowser{ctx: bctx, page: &pwPage{page: page}}, nil
}

// Close stops the playwright driver.
func (l *PlaywrightLauncher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	return err
}

type pwBrowser struct {
	ctx  playwright.BrowserContext
	page *pwPage
}

func (b *pwBrowser) Page() Page {
	return b.page
}

func (b *pwBrowser) Close() error {
	return b.ctx.Close()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, translateError(err)
	}
	return wrapHandles(handles), nil
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

type pwElement struct {
	handle playwright.ElementHandle
}

func wrapHandles(handles []playwright.ElementHandle) []Element {
	elements := make([]Element, len(handles))
	for i, h := range handles {
		elements[i] = &pwElement{handle: h}
	}
	return elements
}

func (e *pwElement) Click(timeout time.Duration) error {
	err := e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil && (strings.Contains(err.Error(), "intercepts pointer events") || errors.Is(err, playwright.ErrTimeout)) {
		// An actionability timeout means the target never became hittable.
		return fmt.Errorf("%w: %v", ErrClickIntercepted, err)
	}
	return translateError(err)
}

func (e *pwElement) DispatchClick() error {
	_, err := e.handle.Evaluate("el => el.click()")
	return translateError(err)
}

func (e *pwElement) Fill(text string) error {
	return translateError(e.handle.Fill(text, playwright.ElementHandleFillOptions{
		Timeout: actionTimeout(),
	}))
}

func (e *pwElement) Type(text string) error {
	return translateError(e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Timeout: actionTimeout(),
	}))
}

func (e *pwElement) Press(key string) error {
	return translateError(e.handle.Press(key, playwright.ElementHandlePressOptions{
		Timeout: actionTimeout(),
	}))
}

func (e *pwElement) SelectOption(label string) error {
	_, err := e.handle.SelectOption(playwright.SelectOptionValues{
		Labels: playwright.StringSlice(label),
	}, playwright.ElementHandleSelectOptionOptions{
		Timeout: actionTimeout(),
	})
	return translateError(err)
}

func (e *pwElement) ScrollIntoView() error {
	return translateError(e.handle.ScrollIntoViewIfNeeded())
}

func (e *pwElement) IsVisible() (bool, error) {
	visible, err := e.handle.IsVisible()
	return visible, translateError(err)
}

func (e *pwElement) IsEnabled() (bool, error) {
	enabled, err := e.handle.IsEnabled()
	return enabled, translateError(err)
}

func (e *pwElement) Text() (string, error) {
	text, err := e.handle.InnerText()
	return text, translateError(err)
}

func (e *pwElement) Attribute(name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	return value, translateError(err)
}

func (e *pwElement) QueryAll(selector string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, translateError(err)
	}
	return wrapHandles(handles), nil
}

// actionTimeout bounds playwright's own actionability checks for input actions.
// The wait engine already established presence before any action runs.
func actionTimeout() *float64 {
	return playwright.Float(5000)
}

// translateError maps playwright failures onto the package sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "not attached to the DOM") || strings.Contains(msg, "Element is detached") {
		return fmt.Errorf("%w: %v", ErrDetached, err)
	}
	return err
}
