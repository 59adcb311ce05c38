// Package browsertest provides an in-memory browser backend for tests.
// Pages map backend selectors to elements; tests mutate that map to simulate
// the application reacting to clicks.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/networkteam/surveyprobe/browser"
)

// Page is a fake browser.Page.
type Page struct {
	url     string
	nodes   map[string][]*Element
	hidden  map[string]int
	queries map[string]int
	closed  bool

	// QueryErr is returned by every query when set.
	QueryErr error
	// OnGoto is called after navigation.
	OnGoto func(url string)

	mu sync.Mutex
}

func NewPage() *Page {
	return &Page{
		nodes:   make(map[string][]*Element),
		hidden:  make(map[string]int),
		queries: make(map[string]int),
	}
}

// Set replaces the match set of a selector.
func (p *Page) Set(selector string, elements ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[selector] = elements
}

// Remove detaches all elements matching a selector.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	elements := p.nodes[selector]
	delete(p.nodes, selector)
	p.mu.Unlock()

	for _, el := range elements {
		el.Detach()
	}
}

// AppearAfter makes the selector match nothing for the next n queries.
func (p *Page) AppearAfter(selector string, n int, elements ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[selector] = elements
	p.hidden[selector] = n
}

// Queries returns how often a selector was queried.
func (p *Page) Queries(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[selector]
}

func (p *Page) Goto(url string) error {
	p.mu.Lock()
	p.url = url
	onGoto := p.OnGoto
	p.mu.Unlock()

	if onGoto != nil {
		onGoto(url)
	}
	return nil
}

// SetURL changes the current URL without navigation callbacks.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	p.queries[selector]++
	if p.hidden[selector] > 0 {
		p.hidden[selector]--
		return nil, nil
	}
	return asElements(p.nodes[selector]), nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Element is a fake browser.Element.
type Element struct {
	text     string
	value    string
	attrs    map[string]string
	visible  bool
	enabled  bool
	detached bool
	children map[string][]*Element

	// Obstructed makes native clicks fail with browser.ErrClickIntercepted.
	Obstructed bool
	// ClickErr is returned by native clicks when set.
	ClickErr error
	// DispatchErr is returned by DispatchClick when set.
	DispatchErr error
	// ScrollErr is returned by ScrollIntoView when set.
	ScrollErr error
	// BeforeClick runs at the start of every native click attempt.
	BeforeClick func()
	// OnClick runs after a successful native or dispatched click.
	OnClick func()

	clicks     int
	dispatches int
	keys       []string

	mu sync.Mutex
}

// NewElement returns a visible, enabled element with the given text.
func NewElement(text string) *Element {
	return &Element{
		text:     text,
		attrs:    make(map[string]string),
		visible:  true,
		enabled:  true,
		children: make(map[string][]*Element),
	}
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// WithChild registers elements returned for a scoped query and returns the element.
func (e *Element) WithChild(selector string, children ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[selector] = children
	return e
}

func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

func (e *Element) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = visible
}

func (e *Element) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *Element) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached = true
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Dispatches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatches
}

func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Keys returns the keys pressed on the element in order.
func (e *Element) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

func (e *Element) Click(time.Duration) error {
	e.mu.Lock()
	before := e.BeforeClick
	e.mu.Unlock()
	if before != nil {
		before()
	}

	e.mu.Lock()
	switch {
	case e.detached:
		e.mu.Unlock()
		return browser.ErrDetached
	case e.ClickErr != nil:
		err := e.ClickErr
		e.mu.Unlock()
		return err
	case e.Obstructed:
		e.mu.Unlock()
		return browser.ErrClickIntercepted
	}
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *Element) DispatchClick() error {
	e.mu.Lock()
	switch {
	case e.detached:
		e.mu.Unlock()
		return browser.ErrDetached
	case e.DispatchErr != nil:
		err := e.DispatchErr
		e.mu.Unlock()
		return err
	}
	e.dispatches++
	onClick := e.OnClick
	e.mu.Unlock()

	if onClick != nil {
		onClick()
	}
	return nil
}

var errNotEditable = errors.New("element is not editable")

func (e *Element) Fill(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return browser.ErrDetached
	}
	if !e.enabled {
		return errNotEditable
	}
	e.value = text
	return nil
}

func (e *Element) Type(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return browser.ErrDetached
	}
	e.value += text
	e.keys = append(e.keys, text)
	return nil
}

func (e *Element) Press(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return browser.ErrDetached
	}
	e.keys = append(e.keys, key)
	return nil
}

func (e *Element) SelectOption(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return browser.ErrDetached
	}
	e.value = label
	return nil
}

func (e *Element) ScrollIntoView() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ScrollErr
}

func (e *Element) IsVisible() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible && !e.detached, nil
}

func (e *Element) IsEnabled() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled, nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return "", browser.ErrDetached
	}
	return e.text, nil
}

func (e *Element) Attribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "value" && e.value != "" {
		return e.value, nil
	}
	return e.attrs[name], nil
}

func (e *Element) QueryAll(selector string) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return nil, browser.ErrDetached
	}
	return asElements(e.children[selector]), nil
}

func asElements(elements []*Element) []browser.Element {
	result := make([]browser.Element, 0, len(elements))
	for _, el := range elements {
		result = append(result, el)
	}
	return result
}

// Launcher is a fake browser.Launcher that records launch options.
type Launcher struct {
	// Err fails every launch when set.
	Err error
	// NewPage creates the page for each launch, NewPage() if nil.
	NewPage func() *Page

	launches []browser.LaunchOptions
	browsers []*Browser

	mu sync.Mutex
}

func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, opts)
	if l.Err != nil {
		return nil, l.Err
	}

	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}
	b := &Browser{page: page}
	l.browsers = append(l.browsers, b)
	return b, nil
}

// Launches returns the options of all launch attempts.
func (l *Launcher) Launches() []browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.LaunchOptions(nil), l.launches...)
}

// Browsers returns all launched browsers.
func (l *Launcher) Browsers() []*Browser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Browser(nil), l.browsers...)
}

// Browser is a fake browser.Browser.
type Browser struct {
	page   *Page
	closes int
	// CloseErr is returned by Close when set.
	CloseErr error

	mu sync.Mutex
}

func (b *Browser) Page() browser.Page {
	return b.page
}

// FakePage returns the concrete fake page.
func (b *Browser) FakePage() *Page {
	return b.page
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return b.CloseErr
}

// Closes returns how often Close was called.
func (b *Browser) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}
