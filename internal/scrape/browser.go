package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// browserSession drives a headless Chrome for the boards that render their
// listings client-side. A session is strictly sequential: one page at a time,
// no concurrency inside a single adapter run.
type browserSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
}

func newBrowserSession(parent context.Context, timeout time.Duration) (*browserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &browserSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		timeout: timeout,
	}
	if err := s.run(chromedp.Tasks{}); err != nil {
		s.close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// run executes actions under the per-page timeout.
func (s *browserSession) run(actions ...chromedp.Action) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

// navigate loads pageURL and waits for waitSel to become visible.
func (s *browserSession) navigate(pageURL, waitSel string) error {
	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if waitSel != "" {
		actions = append(actions, chromedp.WaitVisible(waitSel, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	if err := s.run(actions...); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	return nil
}

// html returns the rendered document.
func (s *browserSession) html() (string, error) {
	var out string
	if err := s.run(chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return out, nil
}

// clickNext clicks the pagination control matched by linkExpr (an XPath
// expression) in the live session, then waits for waitSel so the next result
// set is rendered before extraction. Clicking instead of re-navigating keeps
// the board's session state (search context, cookies set by script) intact.
func (s *browserSession) clickNext(linkExpr, waitSel string) error {
	actions := []chromedp.Action{
		chromedp.Click(linkExpr, chromedp.BySearch),
		chromedp.Sleep(time.Second),
	}
	if waitSel != "" {
		actions = append(actions, chromedp.WaitVisible(waitSel, chromedp.ByQuery))
	}
	if err := s.run(actions...); err != nil {
		return fmt.Errorf("click next control: %w", err)
	}
	return nil
}

// scrollBottom scrolls to the page end and waits for lazy content to load.
func (s *browserSession) scrollBottom(pause time.Duration) error {
	return s.run(
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(pause),
	)
}

func (s *browserSession) close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}
