// internal/browser/harvester.go
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/alkemir/jscrawl/internal/traffic"
)

// harvester mirrors every request/response a tab generates into the traffic
// store. This is the only channel through which crawl results reach the rest
// of the pipeline; the crawler itself returns nothing.
type harvester struct {
	tab    *Tab
	store  *traffic.Store
	logger *zap.Logger

	mu      sync.Mutex
	pending map[network.RequestID]traffic.Record
}

func newHarvester(t *Tab, store *traffic.Store) *harvester {
	return &harvester{
		tab:     t,
		store:   store,
		logger:  t.logger.Named("harvester"),
		pending: make(map[network.RequestID]traffic.Record),
	}
}

// start enables network tracking and begins listening for CDP events.
func (h *harvester) start() {
	if err := chromedp.Run(h.tab.ctx, network.Enable()); err != nil {
		h.logger.Warn("Failed to enable network tracking; traffic will not be captured.", zap.Error(err))
		return
	}

	chromedp.ListenTarget(h.tab.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			h.mu.Lock()
			h.pending[e.RequestID] = traffic.Record{
				TabID:  h.tab.id,
				URL:    e.Request.URL,
				Method: e.Request.Method,
			}
			h.mu.Unlock()

		case *network.EventResponseReceived:
			h.mu.Lock()
			rec, ok := h.pending[e.RequestID]
			if ok {
				rec.StatusCode = int(e.Response.Status)
				rec.ContentType = e.Response.MimeType
				h.pending[e.RequestID] = rec
			}
			h.mu.Unlock()

		case *network.EventLoadingFinished:
			h.mu.Lock()
			rec, ok := h.pending[e.RequestID]
			delete(h.pending, e.RequestID)
			h.mu.Unlock()
			if !ok {
				return
			}
			if h.tab.cfg.Network.CaptureResponseBodies {
				// Body retrieval must not block the event callback, and it
				// must run against the tab context so the CDP session is
				// still attached.
				go h.captureBody(e.RequestID, rec)
				return
			}
			h.store.Add(rec)

		case *network.EventLoadingFailed:
			h.mu.Lock()
			delete(h.pending, e.RequestID)
			h.mu.Unlock()
		}
	})
}

// captureBody fetches the response body and records the completed entry.
// A body that is already evicted from the browser cache is recorded without
// content rather than dropped.
func (h *harvester) captureBody(id network.RequestID, rec traffic.Record) {
	err := chromedp.Run(h.tab.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		body, err := network.GetResponseBody(id).Do(ctx)
		if err != nil {
			return err
		}
		rec.Body = body
		return nil
	}))
	if err != nil {
		h.logger.Debug("Could not fetch response body.",
			zap.String("url", rec.URL), zap.Error(err))
	}
	h.store.Add(rec)
}
