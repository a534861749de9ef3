// Package browsertest provides a scripted, in-memory browser.Agent.
//
// Pages are registered by URL, and search result pages by query. A page
// lists the nodes each selector matches, the successive scroll-extent
// readings of each container and how many times a control can be clicked
// before it disappears. Nothing sleeps: waits succeed or time out at once.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/reviewscan/internal/browser"
)

// Node is a scripted element.
type Node struct {
	// Text is returned by TextOf.
	Text string

	// NoText makes TextOf fail with browser.ErrElementMissing.
	NoText bool

	// TextErr, if set, is returned by TextOf.
	TextErr error

	// Attrs are returned by AttributeOf.
	Attrs map[string]string

	// Children maps a selector to the descendants it matches.
	Children map[string][]*Node
}

// Page is a scripted page.
type Page struct {
	// Elements maps a selector to the nodes it matches.
	Elements map[string][]*Node

	// Extents maps a container ("" for the document) to successive
	// MeasureExtent readings. The last reading repeats.
	Extents map[string][]int

	// Clickable maps a selector to how many clicks succeed before the
	// control is gone.
	Clickable map[string]int

	// NavigateErr is returned by Navigate for this page.
	NavigateErr error
}

// SearchKey returns the Pages key under which the result page for query
// is registered.
func SearchKey(query string) string {
	return "search:" + query
}

// Agent is a scripted browser.Agent. The zero value has no pages.
type Agent struct {
	// Pages maps a URL or SearchKey(query) to a page.
	Pages map[string]*Page

	// FailAfter makes every call fail with browser.ErrTransport once this
	// many navigations have happened. Zero disables it.
	FailAfter int

	mu        sync.Mutex
	current   *Page
	extentPos map[string]int
	clicks    map[string]int
	visits    []string
	queries   []string
	scrolls   map[string]int
	broken    bool
}

// NewAgent creates an Agent serving pages.
func NewAgent(pages map[string]*Page) *Agent {
	return &Agent{Pages: pages}
}

// Clone returns an Agent sharing a's pages but none of its state.
func (a *Agent) Clone() *Agent {
	return &Agent{Pages: a.Pages, FailAfter: a.FailAfter}
}

// Visits returns the URLs navigated to, in order.
func (a *Agent) Visits() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.visits...)
}

// Queries returns the submitted search queries, in order.
func (a *Agent) Queries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

// Scrolls returns how many times container was scrolled on any page.
func (a *Agent) Scrolls(container string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scrolls[container]
}

// Break makes every subsequent call fail with browser.ErrTransport.
func (a *Agent) Break() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.broken = true
}

func (a *Agent) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.broken {
		return fmt.Errorf("%w: scripted failure", browser.ErrTransport)
	}
	return nil
}

func (a *Agent) load(page *Page) {
	a.current = page
	a.extentPos = make(map[string]int)
	a.clicks = make(map[string]int)
}

func (a *Agent) page() *Page {
	if a.current == nil {
		return &Page{}
	}
	return a.current
}

// Navigate implements browser.Agent.
func (a *Agent) Navigate(ctx context.Context, url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return err
	}

	a.visits = append(a.visits, url)
	if a.FailAfter > 0 && len(a.visits) > a.FailAfter {
		a.broken = true
		return fmt.Errorf("%w: scripted failure", browser.ErrTransport)
	}

	page, ok := a.Pages[url]
	if !ok {
		a.load(nil)
		return fmt.Errorf("%w: %s: no such page", browser.ErrNavigation, url)
	}
	if page.NavigateErr != nil {
		a.load(nil)
		return page.NavigateErr
	}
	a.load(page)
	return nil
}

// WaitForAny implements browser.Agent.
func (a *Agent) WaitForAny(ctx context.Context, selectors []string, _ time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return err
	}

	for _, sel := range selectors {
		if len(a.page().Elements[sel]) > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", browser.ErrWaitTimeout, selectors)
}

// Submit implements browser.Agent.
func (a *Agent) Submit(ctx context.Context, inputSelector, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return err
	}

	if len(a.page().Elements[inputSelector]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrElementMissing, inputSelector)
	}
	a.queries = append(a.queries, text)
	a.load(a.Pages[SearchKey(text)])
	return nil
}

// Click implements browser.Agent.
func (a *Agent) Click(ctx context.Context, selector string, _ time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return err
	}

	if a.clicks[selector] >= a.page().Clickable[selector] {
		return fmt.Errorf("%w: %s", browser.ErrElementMissing, selector)
	}
	a.clicks[selector]++
	return nil
}

// ScrollToBottom implements browser.Agent.
func (a *Agent) ScrollToBottom(ctx context.Context, container string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return err
	}

	if _, ok := a.page().Extents[container]; !ok {
		return fmt.Errorf("%w: %s", browser.ErrElementMissing, container)
	}
	if a.scrolls == nil {
		a.scrolls = make(map[string]int)
	}
	a.scrolls[container]++
	return nil
}

// MeasureExtent implements browser.Agent.
func (a *Agent) MeasureExtent(ctx context.Context, container string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return 0, err
	}

	readings, ok := a.page().Extents[container]
	if !ok || len(readings) == 0 {
		return 0, fmt.Errorf("%w: %s", browser.ErrElementMissing, container)
	}
	pos := a.extentPos[container]
	if pos >= len(readings) {
		pos = len(readings) - 1
	}
	a.extentPos[container]++
	return readings[pos], nil
}

// FindAll implements browser.Agent.
func (a *Agent) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return nil, err
	}

	nodes := a.page().Elements[selector]
	elements := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, browser.NewElement(n))
	}
	return elements, nil
}

// FindIn implements browser.Agent.
func (a *Agent) FindIn(ctx context.Context, parent browser.Element, selector string) (browser.Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return browser.Element{}, err
	}

	node, err := nodeOf(parent)
	if err != nil {
		return browser.Element{}, err
	}
	children := node.Children[selector]
	if len(children) == 0 {
		return browser.Element{}, fmt.Errorf("%w: %s", browser.ErrElementMissing, selector)
	}
	return browser.NewElement(children[0]), nil
}

// TextOf implements browser.Agent.
func (a *Agent) TextOf(ctx context.Context, el browser.Element) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return "", err
	}

	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}
	if node.NoText {
		return "", fmt.Errorf("%w: no text", browser.ErrElementMissing)
	}
	if node.TextErr != nil {
		return "", node.TextErr
	}
	return node.Text, nil
}

// AttributeOf implements browser.Agent.
func (a *Agent) AttributeOf(ctx context.Context, el browser.Element, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(ctx); err != nil {
		return "", err
	}

	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}
	value, ok := node.Attrs[name]
	if !ok {
		return "", fmt.Errorf("%w: attribute %s", browser.ErrElementMissing, name)
	}
	return value, nil
}

func nodeOf(el browser.Element) (*Node, error) {
	node, ok := el.Ref().(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: foreign element", browser.ErrElementMissing)
	}
	return node, nil
}

var _ browser.Agent = (*Agent)(nil)
