package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// styleWindow is how far back in the raw HTML we look for a tag that might
// enclose a match. There is no real DOM ancestry here: a tag found in the
// window counts as enclosing when its close tag has not appeared before the
// match position. Approximate on purpose; replacing it with a real parser
// would change scoring outcomes.
const styleWindow = 1200

// defaultFontSizePx is assumed when no enclosing size hint is found.
const defaultFontSizePx = 16

// headingSizes maps h1..h6 to their assumed pixel sizes.
var headingSizes = [7]int{0, 36, 30, 24, 20, 16, 14}

var (
	styledTagRe = regexp.MustCompile(`(?i)<([a-z][a-z0-9]*)\b[^>]*\bstyle\s*=\s*"([^"]*)"[^>]*>`)
	headingRe   = regexp.MustCompile(`(?i)<h([1-6])\b[^>]*>`)
	fontSizeRe  = regexp.MustCompile(`(?i)font-size\s*:\s*(\d+)(?:\.\d+)?\s*px`)
)

// estimateFontSize guesses the rendered size of a match by scanning the raw
// HTML around its first occurrence: an enclosing tag with an inline
// font-size wins, then an enclosing heading, then the browser default.
func estimateFontSize(rawHTML, match string) int {
	pos := matchPos(rawHTML, match)
	if pos < 0 {
		return defaultFontSizePx
	}

	if style, ok := enclosingStyle(rawHTML, pos, func(s string) bool {
		return fontSizeRe.MatchString(s)
	}); ok {
		if m := fontSizeRe.FindStringSubmatch(style); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}

	if level, ok := enclosingHeading(rawHTML, pos); ok {
		return headingSizes[level]
	}
	return defaultFontSizePx
}

func styleHasAnimation(style string) bool {
	return strings.Contains(strings.ToLower(style), "animation")
}

func styleHasShadow(style string) bool {
	lower := strings.ToLower(style)
	return strings.Contains(lower, "text-shadow") || strings.Contains(lower, "box-shadow")
}

// hasEnclosingStyle reports whether the tag window around the match's first
// raw-HTML occurrence contains a still-open tag whose inline style satisfies
// pred.
func hasEnclosingStyle(rawHTML, match string, pred func(string) bool) bool {
	pos := matchPos(rawHTML, match)
	if pos < 0 {
		return false
	}
	_, ok := enclosingStyle(rawHTML, pos, pred)
	return ok
}

func matchPos(rawHTML, match string) int {
	return strings.Index(strings.ToLower(rawHTML), strings.ToLower(match))
}

// enclosingStyle scans backward from pos for the nearest styled tag whose
// style attribute satisfies pred and whose close tag has not yet appeared.
func enclosingStyle(rawHTML string, pos int, pred func(string) bool) (string, bool) {
	start := pos - styleWindow
	if start < 0 {
		start = 0
	}
	window := rawHTML[start:pos]

	matches := styledTagRe.FindAllStringSubmatchIndex(window, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		tag := strings.ToLower(window[m[2]:m[3]])
		style := window[m[4]:m[5]]
		if !pred(style) {
			continue
		}
		if tagClosedBetween(window[m[1]:], tag) {
			continue
		}
		return style, true
	}
	return "", false
}

// enclosingHeading scans backward from pos for the nearest h1..h6 open tag
// that has not been closed before pos.
func enclosingHeading(rawHTML string, pos int) (int, bool) {
	start := pos - styleWindow
	if start < 0 {
		start = 0
	}
	window := rawHTML[start:pos]

	matches := headingRe.FindAllStringSubmatchIndex(window, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		level := int(window[m[2]] - '0')
		if tagClosedBetween(window[m[1]:], "h"+string(window[m[2]])) {
			continue
		}
		return level, true
	}
	return 0, false
}

func tagClosedBetween(between, tag string) bool {
	return strings.Contains(strings.ToLower(between), "</"+tag)
}
