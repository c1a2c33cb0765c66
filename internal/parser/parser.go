// internal/parser/parser.go

// Package parser turns captured response bodies into the artifacts the rest
// of a scanning pipeline cares about: links, forms and HTML comments. A
// small strategy layer picks the right parser for each document's content
// type; everything unknown falls through to a regex link scraper.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FormField is one named input inside a form.
type FormField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Form is an HTML form with its action resolved against the document URL.
type Form struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields,omitempty"`
}

// Extracted is everything a parser pulled out of one document.
type Extracted struct {
	Links    []string `json:"links,omitempty"`
	Forms    []Form   `json:"forms,omitempty"`
	Comments []string `json:"comments,omitempty"`
}

// DocumentParser is one parsing strategy. CanParse decides on content type
// alone; Parse receives the raw body plus the document URL for resolving
// relative references.
type DocumentParser interface {
	CanParse(contentType string) bool
	Parse(body []byte, documentURL string) (*Extracted, error)
}

// ForContentType picks the first strategy that claims the content type.
// The regex scraper claims everything, so a parser is always returned.
func ForContentType(contentType string) DocumentParser {
	for _, p := range strategies {
		if p.CanParse(contentType) {
			return p
		}
	}
	return fallback
}

var (
	fallback   DocumentParser = &regexParser{}
	strategies                = []DocumentParser{
		&htmlParser{},
		fallback,
	}
)

// htmlParser handles HTML and XHTML documents with goquery.
type htmlParser struct{}

func (p *htmlParser) CanParse(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "xhtml")
}

func (p *htmlParser) Parse(body []byte, documentURL string) (*Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html document: %w", err)
	}

	base, err := url.Parse(documentURL)
	if err != nil {
		return nil, fmt.Errorf("parsing document url %q: %w", documentURL, err)
	}

	out := &Extracted{}
	seen := make(map[string]struct{})
	addLink := func(ref string) {
		resolved, ok := resolveRef(base, ref)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		out.Links = append(out.Links, resolved)
	}

	doc.Find("a[href], link[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addLink(href)
		}
	})
	doc.Find("script[src], img[src], iframe[src], frame[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addLink(src)
		}
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		form := Form{Method: "GET"}
		if m, ok := s.Attr("method"); ok && m != "" {
			form.Method = strings.ToUpper(m)
		}

		action := documentURL
		if a, ok := s.Attr("action"); ok && a != "" {
			if resolved, ok := resolveRef(base, a); ok {
				action = resolved
			}
		}
		form.Action = action
		addLink(action)

		s.Find("input, textarea, select").Each(func(_ int, in *goquery.Selection) {
			name, ok := in.Attr("name")
			if !ok || name == "" {
				return
			}
			field := FormField{Name: name, Type: "text"}
			if t, ok := in.Attr("type"); ok && t != "" {
				field.Type = strings.ToLower(t)
			}
			if v, ok := in.Attr("value"); ok {
				field.Value = v
			}
			form.Fields = append(form.Fields, field)
		})

		out.Forms = append(out.Forms, form)
	})

	for _, root := range doc.Nodes {
		collectComments(root, &out.Comments)
	}

	return out, nil
}

// collectComments walks the parsed tree for comment nodes, which goquery's
// selector engine cannot reach.
func collectComments(n *html.Node, comments *[]string) {
	if n.Type == html.CommentNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*comments = append(*comments, text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectComments(c, comments)
	}
}

// resolveRef resolves ref against the document URL and filters out schemes
// that cannot carry crawlable traffic.
func resolveRef(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}

	u, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// regexParser is the strategy of last resort: scrape anything that looks
// like an absolute URL out of any body, whatever its declared type.
type regexParser struct{}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\\)]+`)

func (p *regexParser) CanParse(string) bool { return true }

func (p *regexParser) Parse(body []byte, _ string) (*Extracted, error) {
	out := &Extracted{}
	seen := make(map[string]struct{})
	for _, m := range urlPattern.FindAll(body, -1) {
		link := strings.TrimRight(string(m), ".,;:")
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out.Links = append(out.Links, link)
	}
	return out, nil
}
