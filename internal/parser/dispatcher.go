// internal/parser/dispatcher.go
package parser

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/alkemir/jscrawl/internal/config"
	"github.com/alkemir/jscrawl/internal/traffic"
)

// ErrParserTimeout marks a document whose parse exceeded the configured
// budget. Pathological documents must not stall the whole pipeline.
var ErrParserTimeout = errors.New("document parse timed out")

// Summary aggregates what the dispatcher pulled out of a crawl session.
type Summary struct {
	Documents int
	Links     []string
	Forms     []Form
	Comments  []string
}

// Dispatcher drains captured traffic and runs the right parser strategy on
// each document body, under a per-document timeout.
type Dispatcher struct {
	cfg    config.ParserConfig
	logger *zap.Logger

	mu      sync.Mutex
	summary Summary
	seen    map[string]struct{}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg config.ParserConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		logger: logger.Named("parser"),
		seen:   make(map[string]struct{}),
	}
}

// Run consumes the store's stream until it closes or ctx is cancelled.
// Individual parse failures and timeouts are logged and skipped.
func (d *Dispatcher) Run(ctx context.Context, store *traffic.Store) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-store.Stream():
			if !ok {
				return nil
			}
			d.handle(ctx, rec)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, rec traffic.Record) {
	if len(rec.Body) == 0 {
		return
	}

	extracted, err := d.ParseRecord(ctx, rec)
	if err != nil {
		d.logger.Debug("Failed to parse captured document.",
			zap.String("url", rec.URL),
			zap.String("content_type", rec.ContentType),
			zap.Error(err))
		return
	}

	d.merge(extracted)
	d.logger.Debug("Parsed captured document.",
		zap.String("url", rec.URL),
		zap.Int("links", len(extracted.Links)),
		zap.Int("forms", len(extracted.Forms)))
}

// ParseRecord parses one record with the configured strategy and timeout.
func (d *Dispatcher) ParseRecord(ctx context.Context, rec traffic.Record) (*Extracted, error) {
	p := ForContentType(rec.ContentType)

	parseCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	type result struct {
		extracted *Extracted
		err       error
	}
	done := make(chan result, 1)
	go func() {
		extracted, err := p.Parse(rec.Body, rec.URL)
		done <- result{extracted, err}
	}()

	select {
	case <-parseCtx.Done():
		return nil, ErrParserTimeout
	case res := <-done:
		return res.extracted, res.err
	}
}

func (d *Dispatcher) merge(extracted *Extracted) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.summary.Documents++
	for _, link := range extracted.Links {
		if _, dup := d.seen[link]; dup {
			continue
		}
		d.seen[link] = struct{}{}
		d.summary.Links = append(d.summary.Links, link)
	}
	d.summary.Forms = append(d.summary.Forms, extracted.Forms...)
	d.summary.Comments = append(d.summary.Comments, extracted.Comments...)
}

// Summary returns a copy of the aggregate so far.
func (d *Dispatcher) Summary() Summary {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := Summary{Documents: d.summary.Documents}
	out.Links = append(out.Links, d.summary.Links...)
	out.Forms = append(out.Forms, d.summary.Forms...)
	out.Comments = append(out.Comments, d.summary.Comments...)
	return out
}
