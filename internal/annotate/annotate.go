// Package annotate rewrites crawled HTML to visually mark detected AI-hype
// signals and inject a floating score panel. It performs no scoring of its
// own: everything it renders comes from the extractor and calculator output.
package annotate

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/extractor"
	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// maxPanelMentions bounds the mention list rendered in the score panel.
const maxPanelMentions = 50

// markOpen / markClose wrap each highlighted keyword occurrence.
const (
	markOpen  = `<mark class="aihype-mention">`
	markClose = `</mark>`
)

// ImageDetection is an AI-generated-image finding rendered in the panel.
type ImageDetection struct {
	Src        string
	Confidence float64
}

var highlightPatterns = compileHighlightPatterns()

func compileHighlightPatterns() []*regexp.Regexp {
	kws := extractor.Keywords()
	patterns := make([]*regexp.Regexp, 0, len(kws))
	for _, kw := range kws {
		p := `(?i)\b` + regexp.QuoteMeta(kw)
		if kw[len(kw)-1] != '.' {
			p += `\b`
		}
		patterns = append(patterns, regexp.MustCompile(p))
	}
	return patterns
}

// Annotate highlights keyword occurrences in text nodes and injects the
// stylesheet and score panel. Non-text-node content is left untouched;
// documents without <head> or <body> get the injections prepended/appended.
func Annotate(htmlSrc string, mentions []model.Mention, breakdown model.ScoreBreakdown, detections []ImageDetection) string {
	out := highlightTextNodes(htmlSrc)
	out = injectStylesheet(out)
	return injectPanel(out, mentions, breakdown, detections)
}

var annotateTagRe = regexp.MustCompile(`<[^>]*>`)

// highlightTextNodes wraps keyword matches found between tags, skipping the
// contents of script and style elements.
func highlightTextNodes(src string) string {
	var b strings.Builder
	b.Grow(len(src) + len(src)/8)

	tags := annotateTagRe.FindAllStringIndex(src, -1)
	skipping := ""
	prev := 0
	for _, loc := range tags {
		text := src[prev:loc[0]]
		if skipping == "" {
			b.WriteString(highlightText(text))
		} else {
			b.WriteString(text)
		}

		tag := src[loc[0]:loc[1]]
		b.WriteString(tag)
		name := tagName(tag)
		switch {
		case skipping == "" && (name == "script" || name == "style"):
			skipping = name
		case skipping != "" && name == "/"+skipping:
			skipping = ""
		}
		prev = loc[1]
	}
	if skipping == "" {
		b.WriteString(highlightText(src[prev:]))
	} else {
		b.WriteString(src[prev:])
	}
	return b.String()
}

var tagNameRe = regexp.MustCompile(`(?i)^</?\s*([a-z][a-z0-9]*)`)

func tagName(tag string) string {
	m := tagNameRe.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	name := strings.ToLower(m[1])
	if strings.HasPrefix(tag, "</") {
		return "/" + name
	}
	return name
}

// highlightText wraps every non-overlapping keyword match in a text node,
// longest keyword first.
func highlightText(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	type span struct{ start, end int }
	var spans []span
	overlaps := func(start, end int) bool {
		for _, s := range spans {
			if start < s.end && end > s.start {
				return true
			}
		}
		return false
	}
	for _, re := range highlightPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !overlaps(loc[0], loc[1]) {
				spans = append(spans, span{loc[0], loc[1]})
			}
		}
	}
	if len(spans) == 0 {
		return text
	}

	ordered := make([]span, len(spans))
	copy(ordered, spans)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].start < ordered[j-1].start; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	var b strings.Builder
	prev := 0
	for _, s := range ordered {
		b.WriteString(text[prev:s.start])
		b.WriteString(markOpen)
		b.WriteString(text[s.start:s.end])
		b.WriteString(markClose)
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String()
}

const stylesheet = `<style id="aihype-style">
.aihype-mention { background: #ffe14d; outline: 2px solid #ff2f92; padding: 0 2px; }
#aihype-panel { position: fixed; top: 12px; right: 12px; z-index: 2147483647;
  width: 320px; max-height: 80vh; overflow-y: auto; background: #111; color: #eee;
  font: 12px/1.5 monospace; border: 2px solid #ff2f92; border-radius: 6px; padding: 12px; }
#aihype-panel h2 { margin: 0 0 8px; font-size: 14px; color: #ffe14d; }
#aihype-panel table { width: 100%; border-collapse: collapse; }
#aihype-panel td { padding: 1px 4px; }
#aihype-panel td:last-child { text-align: right; }
#aihype-panel ul { margin: 8px 0 0; padding-left: 16px; }
</style>`

func injectStylesheet(src string) string {
	if idx := indexCI(src, "</head>"); idx >= 0 {
		return src[:idx] + stylesheet + "\n" + src[idx:]
	}
	return stylesheet + "\n" + src
}

func injectPanel(src string, mentions []model.Mention, breakdown model.ScoreBreakdown, detections []ImageDetection) string {
	panel := buildPanel(mentions, breakdown, detections)
	if idx := indexCI(src, "</body>"); idx >= 0 {
		return src[:idx] + panel + "\n" + src[idx:]
	}
	return src + "\n" + panel
}

func buildPanel(mentions []model.Mention, breakdown model.ScoreBreakdown, detections []ImageDetection) string {
	var b strings.Builder
	b.WriteString(`<div id="aihype-panel">`)
	fmt.Fprintf(&b, "<h2>Hype score: %d</h2>", breakdown.Total)

	b.WriteString("<table>")
	writeRow(&b, "density", breakdown.DensityScore)
	writeRow(&b, "mentions", breakdown.MentionScore)
	writeRow(&b, "font size", breakdown.FontSizeScore)
	writeRow(&b, "animation", breakdown.AnimationScore)
	writeRow(&b, "visual effects", breakdown.VisualEffectsScore)
	if breakdown.LighthouseBonus != 0 {
		writeRow(&b, "lighthouse bonus", breakdown.LighthouseBonus)
	}
	if breakdown.AIImageBonus != 0 {
		writeRow(&b, "ai image bonus", breakdown.AIImageBonus)
	}
	b.WriteString("</table>")

	if len(mentions) > 0 {
		b.WriteString("<ul>")
		shown := mentions
		if len(shown) > maxPanelMentions {
			shown = shown[:maxPanelMentions]
		}
		for _, m := range shown {
			fmt.Fprintf(&b, "<li>%s (%dpx)</li>", html.EscapeString(m.Text), m.FontSizePx)
		}
		if extra := len(mentions) - maxPanelMentions; extra > 0 {
			fmt.Fprintf(&b, "<li>+%d more</li>", extra)
		}
		b.WriteString("</ul>")
	}

	if len(detections) > 0 {
		fmt.Fprintf(&b, "<p>%d suspected AI image(s)</p>", len(detections))
	}

	b.WriteString("</div>")
	return b.String()
}

func writeRow(b *strings.Builder, label string, points float64) {
	fmt.Fprintf(b, "<tr><td>%s</td><td>%.1f</td></tr>", label, points)
}

func indexCI(s, substr string) int {
	return strings.Index(strings.ToLower(s), substr)
}
