// internal/crawler/crawler.go

// Package crawler implements the JS event crawler: it snapshots a page's
// DOM, enumerates the event listeners attached to it, dispatches them one
// at a time against a live browser tab and classifies the side effects of
// each dispatch. Everything the page loads along the way is captured
// out-of-band by the tab's harvester; the crawler itself returns nothing.
package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alkemir/jscrawl/internal/browser"
	"github.com/alkemir/jscrawl/internal/config"
	"github.com/alkemir/jscrawl/internal/dom"
)

// Page is the instrumented-browser surface the crawler consumes. Every
// method is synchronous and enforces its own bounded timeout; the crawler
// never waits on a browser lifecycle signal itself. *browser.Tab satisfies
// this interface.
type Page interface {
	CurrentURL(ctx context.Context) (string, error)
	DOM(ctx context.Context) (string, error)
	EventListeners(ctx context.Context, eventTypes []string) ([]browser.Event, error)
	DispatchEvent(ctx context.Context, selector, eventType string) error
	Load(ctx context.Context, url string) error
	WaitForLoad(ctx context.Context, timeout time.Duration) error
	NavigationStarted(ctx context.Context, timeout time.Duration) error
}

// errTooManyReloads unwinds the per-state loop when the reload budget is
// spent. It never escapes Crawl.
var errTooManyReloads = errors.New("too many page reloads")

// Crawler dispatches JS events against pages and observes the fallout.
// One Crawler may serve many sessions; all mutable state lives in the
// per-call session.
type Crawler struct {
	cfg        config.CrawlerConfig
	reloadWait time.Duration
	logger     *zap.Logger
	bones      func(string) dom.Fingerprint
}

// New creates a Crawler. The bones extraction defaults to dom.Bones.
func New(cfg *config.Config, logger *zap.Logger) *Crawler {
	return &Crawler{
		cfg:        cfg.Crawler,
		reloadWait: cfg.Network.PostLoadWait,
		logger:     logger.Named("jsevents"),
		bones:      dom.Bones,
	}
}

// Name returns the crawler's identity string for logging and reporting.
func (c *Crawler) Name() string { return "JS events" }

// Crawl explores the page currently loaded in the borrowed tab. It never
// returns an error: element-level failures are absorbed by the loop, and a
// hard browser-interface failure ends the session early with a debug log.
// All discovered traffic reaches downstream consumers via the tab's
// capture channel, not through this call.
func (c *Crawler) Crawl(ctx context.Context, page Page, url string) {
	s := &session{
		cfg:         c.cfg,
		reloadWait:  c.reloadWait,
		page:        page,
		homeURL:     url,
		debuggingID: uuid.NewString()[:12],
		log:         &DispatchLog{},
		bones:       newBonesCache(c.cfg.BonesCacheSize, c.bones),
		graceWaited: make(map[string]struct{}),
		dispatchSet: make(map[string]struct{}, len(c.cfg.DispatchEvents)),
	}
	for _, et := range c.cfg.DispatchEvents {
		s.dispatchSet[et] = struct{}{}
	}
	s.logger = c.logger.With(
		zap.String("url", url),
		zap.String("did", s.debuggingID),
	)

	if err := s.crawlAllStates(ctx); err != nil {
		// The only errors that reach this boundary are browser-interface
		// failures (and their context-cancellation cousins). The page
		// yielded whatever traffic it yielded before the failure.
		s.logger.Debug("JS crawler stopped on a browser interface failure.",
			zap.Error(err))
	}
}

// session holds the state of one Crawl invocation. Nothing in it survives
// the call, and nothing in it is shared across sessions.
type session struct {
	cfg         config.CrawlerConfig
	reloadWait  time.Duration
	page        Page
	logger      *zap.Logger
	homeURL     string
	debuggingID string

	log         *DispatchLog
	bones       *bonesCache
	dispatchSet map[string]struct{}

	initialBones dom.Fingerprint
	reloadCount  int
	graceWaited  map[string]struct{}
}

// crawlAllStates re-runs the single-state exploration against fresh
// incarnations of the page until one run completes cleanly or the budget of
// distinct initial states is spent. Most pages render the same DOM on every
// load; pages that mutate server-side state on each event may present a
// different DOM each time, which is what the retry budget is for.
func (s *session) crawlAllStates(ctx context.Context) error {
	for attempt := 0; attempt < s.cfg.MaxInitialStates; attempt++ {
		complete, err := s.crawlOneState(ctx)
		if errors.Is(err, errTooManyReloads) {
			s.logger.Debug("Reload budget spent; ending the crawl for this page.",
				zap.Int("max_page_reloads", s.cfg.MaxPageReloads))
			return nil
		}
		if err != nil {
			return err
		}
		if complete {
			return nil
		}
	}
	return nil
}

// crawlOneState dispatches events against one DOM snapshot until the
// listener list is exhausted or the state stops being worth exploring.
// It reports true when every listener was processed cleanly.
func (s *session) crawlOneState(ctx context.Context) (bool, error) {
	initialDOM, err := s.page.DOM(ctx)
	if err != nil {
		return false, err
	}
	s.initialBones = s.bones.get(initialDOM)

	events, err := s.page.EventListeners(ctx, s.cfg.DispatchEvents)
	if err != nil {
		return false, err
	}

	for i, event := range events {
		if !s.shouldDispatch(event) {
			continue
		}

		if _, err := s.dispatch(ctx, event); err != nil {
			return false, err
		}

		s.logProgress(i)

		// Effects may have occurred even when the dispatch reported a
		// failure; the browser can act before the error surfaces.
		verdict, err := s.classify(ctx)
		if err != nil {
			return false, err
		}

		switch verdict {
		case VerdictContinue:
			continue
		case VerdictNewState:
			// The current DOM no longer resembles the one the listener
			// list was enumerated from; dispatching the rest is pointless.
			return false, nil
		case VerdictTooManyReloads:
			return false, errTooManyReloads
		}
	}

	// All events went to the initial state and no new state surfaced. Give
	// the browser a moment to finish whatever the last event started so the
	// capture channel doesn't miss it.
	if err := s.page.WaitForLoad(ctx, s.cfg.SettleWait); err != nil {
		return false, err
	}
	if err := s.page.NavigationStarted(ctx, s.cfg.SettleWait); err != nil {
		return false, err
	}

	return true, nil
}

// shouldDispatch is the admission filter. An event is admitted when its
// type is dispatchable and its (type, selector) key either was never seen
// or has only failed so far. A key that already succeeded, or was already
// ignored, is refused: pages routinely bind duplicate listeners to the same
// element and dispatching them twice doubles the traffic for nothing.
func (s *session) shouldDispatch(event browser.Event) bool {
	if _, ok := s.dispatchSet[event.EventType]; !ok {
		s.log.Append(event, OutcomeIgnored)
		return false
	}

	key := event.TypeSelector()
	for _, entry := range s.log.Entries() {
		if entry.Event.TypeSelector() != key {
			continue
		}

		// A transient failure (element detached before dispatch) should not
		// permanently block an event that might succeed after a reload.
		// Scan order matters: the first matching entry decides.
		if entry.Outcome == OutcomeFailed {
			return true
		}

		s.logger.Debug("Ignoring duplicate event listener.",
			zap.String("event_type", event.EventType),
			zap.String("selector", event.Selector))
		s.log.Append(event, OutcomeIgnored)
		return false
	}

	return true
}

// dispatch fires one event and records its outcome. Element-level failures
// are logged as failed dispatches and absorbed; anything else propagates to
// the session boundary.
func (s *session) dispatch(ctx context.Context, event browser.Event) (bool, error) {
	s.logger.Debug("Dispatching event.",
		zap.String("event_type", event.EventType),
		zap.String("selector", event.Selector))

	err := s.page.DispatchEvent(ctx, event.Selector, event.EventType)
	switch {
	case err == nil:
		s.log.Append(event, OutcomeSuccess)
		return true, nil
	case errors.Is(err, browser.ErrTargetMissing), errors.Is(err, browser.ErrDispatchTimeout):
		s.logger.Debug("Event dispatch failed.",
			zap.String("event_type", event.EventType),
			zap.String("selector", event.Selector),
			zap.Error(err))
		s.log.Append(event, OutcomeFailed)
		return false, nil
	default:
		return false, err
	}
}

// classify reconciles the browser's state with the session's home URL and
// initial fingerprint after a dispatch. All checks are deliberately
// approximate and non-blocking: strict post-event verification has been
// tried and turns the crawl into a slow beast, and waiting on lifecycle
// events the browser may never emit is worse.
func (s *session) classify(ctx context.Context) (Verdict, error) {
	currentDOM, err := s.page.DOM(ctx)
	if err != nil {
		if !errors.Is(err, browser.ErrDOMNotReady) {
			return VerdictContinue, err
		}
		// No DOM, most likely because the event triggered a full page
		// navigation. Let the new page settle briefly so its traffic is
		// captured, then come back home.
		currentDOM, err = s.recoverToHome(ctx)
		if err != nil {
			return VerdictContinue, err
		}
	} else {
		currentURL, err := s.page.CurrentURL(ctx)
		if err != nil {
			return VerdictContinue, err
		}
		if currentURL != s.homeURL {
			// The browser navigated away fast enough to render a DOM for
			// the new page. Same recovery as above.
			currentDOM, err = s.recoverToHome(ctx)
			if err != nil {
				return VerdictContinue, err
			}
		}
	}

	currentBones := s.bones.get(currentDOM)

	if !dom.FuzzyEqual(s.initialBones, currentBones, s.cfg.SimilarityThreshold) {
		s.logger.Debug("DOM skeleton changed materially; the application moved to a new state.")
		return VerdictNewState, nil
	}

	if s.reloadCount > s.cfg.MaxPageReloads {
		s.logger.Debug("Exceeded the home URL reload budget.",
			zap.Int("reloads", s.reloadCount))
		return VerdictTooManyReloads, nil
	}

	window := s.log.Window(s.cfg.FailureWindow)
	if len(window) > 0 && allFailed(window) {
		s.logger.Debug("Uninterrupted run of dispatch failures; abandoning this state.",
			zap.Int("window", len(window)))
		return VerdictNewState, nil
	}

	return VerdictContinue, nil
}

// recoverToHome performs the grace wait (at most once per URL seen in this
// session), forces a reload of the home URL and re-reads the DOM.
func (s *session) recoverToHome(ctx context.Context) (string, error) {
	if err := s.conditionalWaitForLoad(ctx); err != nil {
		return "", err
	}
	if err := s.reloadHome(ctx); err != nil {
		return "", err
	}
	return s.page.DOM(ctx)
}

// conditionalWaitForLoad waits for the page the browser is currently on to
// settle, but only the first time that URL is encountered in this session.
// Pages bouncing between the same few URLs would otherwise stall the crawl
// one grace period at a time.
func (s *session) conditionalWaitForLoad(ctx context.Context) error {
	currentURL, err := s.page.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if _, seen := s.graceWaited[currentURL]; seen {
		return nil
	}
	s.graceWaited[currentURL] = struct{}{}
	return s.page.WaitForLoad(ctx, s.cfg.GraceWait)
}

// reloadHome navigates back to the session's home URL. The reload counts
// toward the budget whether or not the load itself succeeds.
func (s *session) reloadHome(ctx context.Context) error {
	s.reloadCount++
	if err := s.page.Load(ctx, s.homeURL); err != nil {
		return err
	}
	return s.page.WaitForLoad(ctx, s.reloadWait)
}

// logProgress emits the per-event statistics line.
func (s *session) logProgress(eventIndex int) {
	s.logger.Debug("Processing event.",
		zap.Int("event_index", eventIndex),
		zap.Int("dispatched", s.log.DispatchCount()),
		zap.Int("dispatch_errors", s.log.FailureCount()),
		zap.Any("by_type", s.log.CountByType()))
}

func allFailed(entries []LogEntry) bool {
	for _, e := range entries {
		if e.Outcome != OutcomeFailed {
			return false
		}
	}
	return true
}
