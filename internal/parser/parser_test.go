// internal/parser/parser_test.go
package parser_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alkemir/jscrawl/internal/config"
	"github.com/alkemir/jscrawl/internal/parser"
	"github.com/alkemir/jscrawl/internal/traffic"
)

const docURL = "http://example.com/app/index.html"

func TestForContentType(t *testing.T) {
	cases := []struct {
		contentType string
		wantHTML    bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"text/javascript", false},
		{"", false},
	}

	htmlBody := []byte(`<html><body><a href="/x">x</a></body></html>`)
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			p := parser.ForContentType(tc.contentType)
			require.NotNil(t, p, "some strategy must always claim the document")

			extracted, err := p.Parse(htmlBody, docURL)
			require.NoError(t, err)
			if tc.wantHTML {
				// Only the HTML strategy resolves relative references.
				assert.Contains(t, extracted.Links, "http://example.com/x")
			} else {
				assert.NotContains(t, extracted.Links, "http://example.com/x")
			}
		})
	}
}

func TestHTMLParser_ExtractsLinks(t *testing.T) {
	body := []byte(`<html>
		<head><link rel="stylesheet" href="/css/app.css"></head>
		<body>
			<a href="page2.html">next</a>
			<a href="https://other.example.org/abs">abs</a>
			<a href="#top">anchor only</a>
			<a href="mailto:root@example.com">mail</a>
			<a href="javascript:void(0)">js</a>
			<script src="/js/app.js"></script>
			<img src="logo.png">
			<a href="page2.html">duplicate</a>
		</body></html>`)

	extracted, err := parser.ForContentType("text/html").Parse(body, docURL)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"http://example.com/css/app.css",
		"http://example.com/app/page2.html",
		"https://other.example.org/abs",
		"http://example.com/js/app.js",
		"http://example.com/app/logo.png",
	}, extracted.Links)
}

func TestHTMLParser_ExtractsForms(t *testing.T) {
	body := []byte(`<html><body>
		<form action="/login" method="post">
			<input type="text" name="user" value="admin">
			<input type="password" name="pass">
			<input type="submit" value="go">
			<textarea name="notes"></textarea>
		</form>
		<form>
			<input name="q">
		</form>
	</body></html>`)

	extracted, err := parser.ForContentType("text/html").Parse(body, docURL)
	require.NoError(t, err)
	require.Len(t, extracted.Forms, 2)

	login := extracted.Forms[0]
	assert.Equal(t, "http://example.com/login", login.Action)
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, []parser.FormField{
		{Name: "user", Type: "text", Value: "admin"},
		{Name: "pass", Type: "password"},
		{Name: "notes", Type: "text"},
	}, login.Fields)

	search := extracted.Forms[1]
	assert.Equal(t, docURL, search.Action, "a form without action posts back to its document")
	assert.Equal(t, "GET", search.Method)
}

func TestHTMLParser_ExtractsComments(t *testing.T) {
	body := []byte(`<html><body>
		<!-- TODO remove the debug endpoint -->
		<div>content</div>
		<!--   -->
	</body></html>`)

	extracted, err := parser.ForContentType("text/html").Parse(body, docURL)
	require.NoError(t, err)

	assert.Equal(t, []string{"TODO remove the debug endpoint"}, extracted.Comments)
}

func TestRegexParser_ScrapesURLsFromAnything(t *testing.T) {
	body := []byte(`{"next": "https://api.example.com/v2/items?page=2", "docs": "http://example.com/help."}`)

	extracted, err := parser.ForContentType("application/json").Parse(body, docURL)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"https://api.example.com/v2/items?page=2",
		"http://example.com/help",
	}, extracted.Links)
}

func TestDispatcher_DrainsStoreAndAggregates(t *testing.T) {
	cfg := config.NewDefaultConfig()
	d := parser.NewDispatcher(cfg.Parser, zap.NewNop())
	store := traffic.NewStore(16)

	store.Add(traffic.Record{
		URL:         docURL,
		ContentType: "text/html",
		Body:        []byte(`<html><body><a href="/a">a</a><form action="/f"></form></body></html>`),
	})
	store.Add(traffic.Record{
		URL:         "http://example.com/api",
		ContentType: "application/json",
		Body:        []byte(`{"link": "http://example.com/a"}`),
	})
	store.Add(traffic.Record{
		URL:         "http://example.com/empty",
		ContentType: "text/html",
	})
	store.Close()

	err := d.Run(context.Background(), store)
	require.NoError(t, err)

	summary := d.Summary()
	assert.Equal(t, 2, summary.Documents, "bodiless records are skipped")
	assert.ElementsMatch(t, []string{
		"http://example.com/a",
		"http://example.com/f",
	}, summary.Links, "links are deduplicated across documents")
	require.Len(t, summary.Forms, 1)
	assert.Equal(t, "http://example.com/f", summary.Forms[0].Action)
}

func TestDispatcher_RunStopsOnContextCancel(t *testing.T) {
	cfg := config.NewDefaultConfig()
	d := parser.NewDispatcher(cfg.Parser, zap.NewNop())
	store := traffic.NewStore(1)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx, store)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_ParseTimeout(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Parser.Timeout = time.Nanosecond
	d := parser.NewDispatcher(cfg.Parser, zap.NewNop())

	// A body large enough that parsing cannot win the race against an
	// already-expired deadline.
	body := `<html><body>` + strings.Repeat(`<div><a href="/x">x</a></div>`, 50000) + `</body></html>`
	rec := traffic.Record{
		URL:         docURL,
		ContentType: "text/html",
		Body:        []byte(body),
	}

	_, err := d.ParseRecord(context.Background(), rec)
	assert.ErrorIs(t, err, parser.ErrParserTimeout)
}
