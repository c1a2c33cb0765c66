// internal/dom/fuzzy_test.go
package dom_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alkemir/jscrawl/internal/dom"
)

func TestSimilarity_Identical(t *testing.T) {
	fp := dom.Fingerprint("<html><body><div></div></body></html>")
	assert.Equal(t, 1.0, dom.Similarity(fp, fp))
}

func TestSimilarity_BothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, dom.Similarity("", ""))
}

func TestSimilarity_Disjoint(t *testing.T) {
	a := dom.Fingerprint("<table><tr></tr></table>")
	b := dom.Fingerprint("<form><input></form>")
	assert.Equal(t, 0.0, dom.Similarity(a, b))
}

func TestSimilarity_OrderInsensitive(t *testing.T) {
	a := dom.Fingerprint("<div></div><span></span>")
	b := dom.Fingerprint("<span></span><div></div>")
	assert.Equal(t, 1.0, dom.Similarity(a, b))
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	// 4 tokens vs 6 tokens sharing all 4: 2*4/10 = 0.8.
	a := dom.Fingerprint("<div></div><span></span>")
	b := dom.Fingerprint("<div></div><span></span><p></p>")
	assert.InDelta(t, 0.8, dom.Similarity(a, b), 1e-9)
}

func TestFuzzyEqual_ThresholdBoundaryIsInclusive(t *testing.T) {
	// 18 shared tokens out of 20 total: similarity exactly 0.9.
	a := dom.Fingerprint(strings.Repeat("<div>", 9) + "<p>")
	b := dom.Fingerprint(strings.Repeat("<div>", 9) + "<span>")

	assert.InDelta(t, 0.9, dom.Similarity(a, b), 1e-9)
	assert.True(t, dom.FuzzyEqual(a, b, 0.9), "a score at the threshold counts as equal")
	assert.False(t, dom.FuzzyEqual(a, b, 0.91))
}

func TestFuzzyEqual_SmallEditsPassRealisticThreshold(t *testing.T) {
	base := `<html><body>` + strings.Repeat("<div><p></p></div>", 20) + `</body></html>`
	edited := `<html><body>` + strings.Repeat("<div><p></p></div>", 20) + `<span></span></body></html>`

	assert.True(t, dom.FuzzyEqual(dom.Bones(base), dom.Bones(edited), 0.9))
}
