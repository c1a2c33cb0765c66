// internal/dom/bones_test.go
package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alkemir/jscrawl/internal/dom"
)

func TestBones_StripsTextAndNoiseAttributes(t *testing.T) {
	a := dom.Bones(`<html><body><div class="hero" id="x1">Hello</div></body></html>`)
	b := dom.Bones(`<html><body><div class="other" id="x2">Goodbye, world</div></body></html>`)

	assert.Equal(t, a, b, "text and volatile attributes must not affect the fingerprint")
	assert.Contains(t, string(a), "<div>")
	assert.NotContains(t, string(a), "Hello")
}

func TestBones_KeepsStructuralAttributes(t *testing.T) {
	text := dom.Bones(`<html><body><input type="text"></body></html>`)
	submit := dom.Bones(`<html><body><input type="submit"></body></html>`)

	assert.NotEqual(t, text, submit)
	assert.Contains(t, string(text), "input type=text")
}

func TestBones_SortsKeptAttributes(t *testing.T) {
	a := dom.Bones(`<html><head><link rel="stylesheet" type="text/css"></head></html>`)
	b := dom.Bones(`<html><head><link type="text/css" rel="stylesheet"></head></html>`)

	assert.Equal(t, a, b)
}

func TestBones_ToleratesBrokenMarkup(t *testing.T) {
	fp := dom.Bones(`<div><p>unclosed`)
	assert.NotEmpty(t, fp, "the parser repairs what it can")
	assert.Contains(t, string(fp), "<p>")
}

func TestBones_EmptyInput(t *testing.T) {
	fp := dom.Bones("")
	// The parser synthesizes the html/head/body scaffolding even for an
	// empty document.
	assert.Contains(t, string(fp), "<html>")
}
