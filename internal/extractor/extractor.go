// Package extractor scans raw HTML for textual and visual AI-hype signals.
// It deliberately avoids building a DOM tree: matching is done with regular
// expressions over the raw markup and the stripped visible text, which keeps
// it fast and tolerant of malformed HTML.
package extractor

import (
	"crypto/sha256"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// PageSignals is the aggregate signal set for one site crawl.
type PageSignals struct {
	Mentions       []model.Mention
	AnimationCount int
	GlowCount      int
	RainbowCount   int
	WordCount      int
	PagesCrawled   int
}

// Accumulator collects signals across the pages of a single site crawl.
// Mentions are deduplicated by (lowercased text, context snippet) across all
// pages fed to the same accumulator; a fresh accumulator is used per crawl.
type Accumulator struct {
	seen map[string]struct{}
	sig  PageSignals
}

// NewAccumulator creates an empty accumulator for one site crawl.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// Extract runs the extractor over a single HTML document.
func Extract(htmlSrc string) PageSignals {
	acc := NewAccumulator()
	acc.AddPage(htmlSrc)
	return acc.Signals()
}

// Signals returns the accumulated signal set.
func (a *Accumulator) Signals() PageSignals {
	return a.sig
}

// AddPage scans one HTML page and folds its signals into the accumulator.
// An empty or non-HTML body contributes nothing and is not an error.
func (a *Accumulator) AddPage(htmlSrc string) {
	if strings.TrimSpace(htmlSrc) == "" {
		return
	}
	a.sig.PagesCrawled++

	text := VisibleText(htmlSrc)
	a.sig.WordCount += len(strings.Fields(text))

	for _, m := range findMentions(text, htmlSrc) {
		key := dedupKey(m.Text, m.Context)
		if _, ok := a.seen[key]; ok {
			continue
		}
		a.seen[key] = struct{}{}
		a.sig.Mentions = append(a.sig.Mentions, m)
	}

	a.sig.AnimationCount += countAnimations(htmlSrc)
	a.sig.GlowCount += countGlow(htmlSrc)
	a.sig.RainbowCount += countRainbow(htmlSrc)
}

var (
	scriptRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	multiWSRe = regexp.MustCompile(`\s+`)
)

// VisibleText strips script/style blocks and tags from HTML, decodes
// entities, and collapses whitespace.
func VisibleText(htmlSrc string) string {
	s := scriptRe.ReplaceAllString(htmlSrc, " ")
	s = styleRe.ReplaceAllString(s, " ")
	s = commentRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = multiWSRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

const contextRadius = 50

// findMentions locates all keyword occurrences in the visible text. Longer
// keywords are matched first and shorter matches overlapping them dropped.
func findMentions(text, rawHTML string) []model.Mention {
	type span struct{ start, end int }
	var covered []span

	overlaps := func(start, end int) bool {
		for _, s := range covered {
			if start < s.end && end > s.start {
				return true
			}
		}
		return false
	}

	var mentions []model.Mention
	for _, re := range keywordPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			covered = append(covered, span{loc[0], loc[1]})

			match := text[loc[0]:loc[1]]
			ctx := contextSnippet(text, loc[0], loc[1])
			mentions = append(mentions, model.Mention{
				Text:         match,
				FontSizePx:   estimateFontSize(rawHTML, match),
				HasAnimation: hasEnclosingStyle(rawHTML, match, styleHasAnimation),
				HasGlow:      hasEnclosingStyle(rawHTML, match, styleHasShadow),
				Context:      ctx,
			})
		}
	}
	return mentions
}

// contextSnippet returns up to contextRadius characters on each side of the
// match, with an ellipsis marking truncation.
func contextSnippet(text string, start, end int) string {
	runes := []rune(text)
	rStart := len([]rune(text[:start]))
	rEnd := rStart + len([]rune(text[start:end]))

	from := rStart - contextRadius
	to := rEnd + contextRadius
	prefix, suffix := "", ""
	if from < 0 {
		from = 0
	} else if from > 0 {
		prefix = "..."
	}
	if to > len(runes) {
		to = len(runes)
	} else if to < len(runes) {
		suffix = "..."
	}
	return prefix + string(runes[from:to]) + suffix
}

// dedupKey collapses repeated nav/footer occurrences of the same phrase:
// identical keyword plus identical surrounding context counts once per crawl.
func dedupKey(text, context string) string {
	h := sha256.Sum256([]byte(strings.ToLower(text) + "|" + context))
	return fmt.Sprintf("%x", h[:16])
}
