package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"webpeel/internal/model"
)

// BrowserFetcher renders pages with a headless Chromium instance via
// go-rod, grounded on ncecere-raito's internal/scraper/rod_scraper.go. It
// launches a fresh local browser per fetch, same as the teacher, runs the
// ordered action list, waits for an optional selector, and can capture a
// screenshot.
type BrowserFetcher struct {
	method model.Method
}

func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{method: model.MethodBrowser}
}

func (f *BrowserFetcher) Name() model.Method { return f.method }

func (f *BrowserFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	browser, cleanup, err := launchPlainBrowser(ctx, timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch: browser launch: %w", err)
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: req.URL})
	if err != nil {
		return nil, fmt.Errorf("fetch: browser navigate: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.WaitDOMStable(time.Second, 0); err != nil {
		// domcontentloaded-equivalent: tolerate pages that never settle
		// and fall through to whatever HTML is present.
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
			return nil, fmt.Errorf("fetch: action %s: %w", action.Type, err)
		}
	}

	var shot []byte
	if req.Screenshot {
		shot, err = page.Screenshot(req.FullPage, nil)
		if err != nil {
			shot = nil
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("fetch: browser html: %w", err)
	}

	return &Result{
		FetchResult: model.FetchResult{
			URL:               req.URL,
			HTML:              html,
			StatusCode:        200,
			ContentType:       "text/html",
			Method:            f.method,
			ChallengeDetected: looksLikeChallenge(extractTitleRough(html), html),
		},
		Screenshot: shot,
	}, nil
}

func runAction(page *rod.Page, action model.Action) error {
	switch action.Type {
	case "click":
		el, err := page.Element(action.Selector)
		if err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	case "fill":
		el, err := page.Element(action.Selector)
		if err != nil {
			return err
		}
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(action.Value)
	case "press":
		el, err := page.Element(action.Selector)
		if err != nil {
			return err
		}
		return el.Type(input.Key(action.Value[0]))
	case "wait":
		time.Sleep(time.Duration(action.Ms) * time.Millisecond)
		return nil
	case "scroll":
		_, err := page.Eval(`() => window.scrollBy(0, ` + fmt.Sprint(action.Ms) + `)`)
		return err
	case "waitForSelector":
		el, err := page.Timeout(10 * time.Second).Element(action.Selector)
		if err != nil {
			return err
		}
		return el.WaitVisible()
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// launchPlainBrowser mirrors newLocalRodBrowser from the teacher: launch a
// local headless Chromium instance and connect, returning a cleanup func
// that closes the browser and kills the launcher process.
func launchPlainBrowser(ctx context.Context, timeout time.Duration) (*rod.Browser, func(), error) {
	l := launcher.New()
	if path, has := launcher.LookPath(); has {
		l = l.Bin(path)
	}
	l = l.Headless(true).NoSandbox(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx).Timeout(timeout)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, err
	}

	cleanup := func() {
		_ = browser.Close()
		l.Kill()
	}
	return browser, cleanup, nil
}
