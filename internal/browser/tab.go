// internal/browser/tab.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alkemir/jscrawl/internal/config"
	"github.com/alkemir/jscrawl/internal/traffic"
)

// Tab is one instrumented browser tab. It owns a chromedp context derived
// from the pool's allocator, records every navigation in the traffic store,
// and exposes the synchronous primitives the crawler consumes. All methods
// carry their own bounded timeout; none of them waits on a browser lifecycle
// event that might never fire.
type Tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	harvester *harvester

	// navStarted receives a signal whenever the main frame begins loading.
	navStarted chan struct{}
}

// newTab creates and instruments a tab inside the allocator context.
func newTab(allocCtx context.Context, cfg *config.Config, logger *zap.Logger, store *traffic.Store) (*Tab, error) {
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	t := &Tab{
		id:         uuid.NewString()[:8],
		ctx:        tabCtx,
		cancel:     cancel,
		cfg:        cfg,
		navStarted: make(chan struct{}, 1),
	}
	t.logger = logger.Named("tab").With(zap.String("tab_id", t.id))

	// Materialize the tab and install the listener registry before any
	// document gets a chance to run scripts.
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(listenerRegistryJS).Do(ctx)
			return err
		}),
	)
	if err != nil {
		cancel()
		return nil, NewInterfaceError("tab init", err)
	}

	t.harvester = newHarvester(t, store)
	t.harvester.start()

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventFrameStartedLoading); ok {
			select {
			case t.navStarted <- struct{}{}:
			default:
			}
		}
	})

	return t, nil
}

// ID returns the tab's short identifier.
func (t *Tab) ID() string { return t.id }

// Close tears the tab down. The pool calls this; borrowers never do.
func (t *Tab) Close() {
	t.cancel()
}

// run executes actions against the tab with a bounded timeout.
func (t *Tab) run(timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// CurrentURL returns the location of the tab's main frame.
func (t *Tab) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := t.run(t.cfg.Browser.ActionTimeout, chromedp.Location(&loc)); err != nil {
		return "", NewInterfaceError("get URL", err)
	}
	return loc, nil
}

// DOM returns the serialized DOM of the current document. When no stable
// DOM can be produced, typically because the last dispatched event kicked
// off a navigation, it fails with ErrDOMNotReady; the caller is expected to
// recover. A dead tab fails with an InterfaceError instead.
func (t *Tab) DOM(ctx context.Context) (string, error) {
	const script = `(() => {
		if (!document || !document.documentElement) { return null; }
		if (document.readyState === 'loading') { return null; }
		return document.documentElement.outerHTML;
	})()`

	var dom *string
	err := t.run(t.cfg.Browser.ActionTimeout, evaluate(script, &dom))
	if err != nil {
		if t.ctx.Err() != nil {
			return "", NewInterfaceError("get DOM", err)
		}
		// Mid-navigation the execution context is torn down and the
		// evaluate call fails; that is the "not ready" condition.
		return "", fmt.Errorf("%w: %v", ErrDOMNotReady, err)
	}
	if dom == nil {
		return "", ErrDOMNotReady
	}
	return *dom, nil
}

// EventListeners enumerates the event listeners currently attached to the
// document, restricted to the given event types. Listeners registered via
// addEventListener are reported by the injected registry; inline on*
// attributes are collected by scanning the DOM.
func (t *Tab) EventListeners(ctx context.Context, eventTypes []string) ([]Event, error) {
	filter, err := json.Marshal(eventTypes)
	if err != nil {
		return nil, fmt.Errorf("marshal event filter: %w", err)
	}

	var raw string
	script := fmt.Sprintf(collectListenersJS, string(filter))
	if err := t.run(t.cfg.Browser.ActionTimeout, evaluate(script, &raw)); err != nil {
		return nil, NewInterfaceError("enumerate listeners", err)
	}

	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, NewInterfaceError("decode listeners", fmt.Errorf("unmarshal: %w", err))
	}
	return events, nil
}

// DispatchEvent fires a synthetic DOM event against the element matching
// selector. The two expected failure modes are ErrTargetMissing (the element
// is gone) and ErrDispatchTimeout (the browser did not answer in time); both
// are non-fatal to the session.
func (t *Tab) DispatchEvent(ctx context.Context, selector, eventType string) error {
	args, err := json.Marshal([]string{selector, eventType})
	if err != nil {
		return fmt.Errorf("marshal dispatch args: %w", err)
	}

	var found bool
	script := fmt.Sprintf(dispatchEventJS, string(args))
	err = t.run(t.cfg.Browser.ActionTimeout, evaluate(script, &found))
	if err != nil {
		if t.ctx.Err() != nil {
			return NewInterfaceError("dispatch event", err)
		}
		return fmt.Errorf("%w: %s on %q", ErrDispatchTimeout, eventType, selector)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrTargetMissing, selector)
	}
	return nil
}

// Load navigates the tab to url. It does not wait for the load to finish;
// pair it with WaitForLoad.
func (t *Tab) Load(ctx context.Context, url string) error {
	err := t.run(t.cfg.Network.NavigationTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, _, err := page.Navigate(url).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return NewInterfaceError("load URL", err)
	}
	return nil
}

// WaitForLoad waits, best effort, until document.readyState reaches
// "complete" or the timeout elapses. Running out of time is not an error;
// the crawler is designed to proceed with whatever DOM exists.
func (t *Tab) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var state string
		err := t.run(t.cfg.Browser.ActionTimeout,
			evaluate(`document.readyState`, &state))
		if err != nil {
			if t.ctx.Err() != nil {
				return NewInterfaceError("wait for load", err)
			}
			// Navigation in flight; keep polling until the deadline.
		} else if state == "complete" {
			return nil
		}

		if time.Now().After(deadline) {
			return nil
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil
		}
	}
}

// NavigationStarted waits up to timeout for the main frame to begin a
// navigation. Like WaitForLoad it never blocks past its bound and reports
// no error when nothing happens.
func (t *Tab) NavigationStarted(ctx context.Context, timeout time.Duration) error {
	select {
	case <-t.navStarted:
		return nil
	case <-time.After(timeout):
		return nil
	case <-ctx.Done():
		return nil
	case <-t.ctx.Done():
		return NewInterfaceError("navigation wait", t.ctx.Err())
	}
}

// evaluate wraps chromedp.Evaluate with the options every call here wants:
// resolve promises, return by value, swallow in-page exceptions.
func evaluate(script string, res interface{}) chromedp.Action {
	return chromedp.Evaluate(script, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	})
}
