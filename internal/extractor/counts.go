package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	keyframesRe = regexp.MustCompile(`(?i)@keyframes\b`)
	animPropRe  = regexp.MustCompile(`(?i)\banimation\s*:\s*([^;"'}<]*)`)
	animNameRe  = regexp.MustCompile(`(?i)\banimation-name\s*:\s*([^;"'}<]*)`)
	shadowRe    = regexp.MustCompile(`(?i)\b(?:box|text)-shadow\s*:\s*([^;"'}<]*)`)
	borderImgRe = regexp.MustCompile(`(?i)\bborder-image\s*:\s*([^;"'}<]*)`)
	conicRe     = regexp.MustCompile(`(?i)conic-gradient\(`)
	numberRe    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// countAnimations counts @keyframes rules plus animation / animation-name
// declarations whose value is not "none", anywhere in the raw HTML.
func countAnimations(rawHTML string) int {
	n := len(keyframesRe.FindAllStringIndex(rawHTML, -1))
	n += countNonNone(animPropRe, rawHTML)
	n += countNonNone(animNameRe, rawHTML)
	return n
}

func countNonNone(re *regexp.Regexp, rawHTML string) int {
	n := 0
	for _, m := range re.FindAllStringSubmatch(rawHTML, -1) {
		if !strings.HasPrefix(strings.TrimSpace(strings.ToLower(m[1])), "none") {
			n++
		}
	}
	return n
}

// countGlow counts box-shadow and text-shadow declarations with a nonzero
// blur radius (the third length in the shadow shorthand).
func countGlow(rawHTML string) int {
	n := 0
	for _, m := range shadowRe.FindAllStringSubmatch(rawHTML, -1) {
		if shadowHasBlur(m[1]) {
			n++
		}
	}
	return n
}

func shadowHasBlur(value string) bool {
	nums := numberRe.FindAllString(value, -1)
	if len(nums) < 3 {
		return false
	}
	blur, err := strconv.ParseFloat(nums[2], 64)
	return err == nil && blur != 0
}

// countRainbow counts gradient border-images plus conic gradients.
func countRainbow(rawHTML string) int {
	n := 0
	for _, m := range borderImgRe.FindAllStringSubmatch(rawHTML, -1) {
		if strings.Contains(strings.ToLower(m[1]), "gradient") {
			n++
		}
	}
	return n + len(conicRe.FindAllStringIndex(rawHTML, -1))
}
