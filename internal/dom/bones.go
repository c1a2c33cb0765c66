// internal/dom/bones.go

// Package dom holds the structural-fingerprint primitives the crawler uses
// to decide whether two DOM snapshots represent the same application state.
package dom

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Fingerprint is the "bones" of a document: the tag skeleton with all text
// and attribute noise discarded. Comparing bones instead of raw markup makes
// the state check robust against timestamps, CSRF tokens, rotating ad slots
// and similar volatile content.
type Fingerprint string

// attrsWorthKeeping are the few attributes that describe structure rather
// than content. Everything else is noise for state comparison.
var attrsWorthKeeping = map[string]struct{}{
	"type": {},
	"rel":  {},
}

// Bones extracts the structural fingerprint of a serialized DOM. It is a
// total function: input that does not parse as HTML still yields a
// fingerprint, because the html package repairs what it can.
func Bones(domText string) Fingerprint {
	root, err := html.Parse(strings.NewReader(domText))
	if err != nil {
		// html.Parse only fails on reader errors, which strings.Reader
		// never produces; keep the total-function contract regardless.
		return Fingerprint("")
	}

	var sb strings.Builder
	writeBones(&sb, root)
	return Fingerprint(sb.String())
}

func writeBones(sb *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		sb.WriteByte('<')
		sb.WriteString(n.Data)

		kept := make([]string, 0, 2)
		for _, a := range n.Attr {
			if _, ok := attrsWorthKeeping[a.Key]; ok {
				kept = append(kept, a.Key+"="+a.Val)
			}
		}
		if len(kept) > 0 {
			sort.Strings(kept)
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(kept, " "))
		}
		sb.WriteByte('>')
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeBones(sb, c)
	}

	if n.Type == html.ElementNode {
		sb.WriteString("</")
		sb.WriteString(n.Data)
		sb.WriteByte('>')
	}
}
