package fetch

import (
	"context"
	"time"

	"github.com/go-rod/stealth"

	"webpeel/internal/model"
)

// StealthFetcher renders pages through go-rod/stealth instead of rod
// directly, applying anti-detection measures (reordered navigator
// properties, realistic viewport, patched webdriver flags) per spec
// §4.3 step 7. The wait/action/screenshot handling mirrors
// BrowserFetcher exactly; only page construction differs.
type StealthFetcher struct{}

func NewStealthFetcher() *StealthFetcher { return &StealthFetcher{} }

func (f *StealthFetcher) Name() model.Method { return model.MethodStealth }

func (f *StealthFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	browser, cleanup, err := launchPlainBrowser(ctx, timeout)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	if err := page.Navigate(req.URL); err != nil {
		return nil, err
	}
	if err := page.WaitDOMStable(time.Second, 0); err != nil {
		_ = err
	}

	if req.WaitMs > 0 {
		time.Sleep(time.Duration(req.WaitMs) * time.Millisecond)
	}
	if req.WaitFor != "" {
		if el, err := page.Timeout(timeout).Element(req.WaitFor); err == nil {
			_ = el.WaitVisible()
		}
	}
	for _, action := range req.Actions {
		if err := runAction(page, action); err != nil {
			return nil, err
		}
	}

	var shot []byte
	if req.Screenshot {
		shot, _ = page.Screenshot(req.FullPage, nil)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	return &Result{
		FetchResult: model.FetchResult{
			URL:               req.URL,
			HTML:              html,
			StatusCode:        200,
			ContentType:       "text/html",
			Method:            model.MethodStealth,
			ChallengeDetected: looksLikeChallenge(extractTitleRough(html), html),
		},
		Screenshot: shot,
	}, nil
}
