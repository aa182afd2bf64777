package crawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// techMarkers maps a lowercase page fingerprint to a tech label.
var techMarkers = []struct {
	marker string
	label  string
}{
	{"wp-content", "wordpress"},
	{"cdn.shopify.com", "shopify"},
	{"data-reactroot", "react"},
	{`id="__next"`, "nextjs"},
	{"__nuxt", "nuxt"},
	{"ng-version", "angular"},
	{"data-v-app", "vue"},
	{"gatsby", "gatsby"},
	{"squarespace", "squarespace"},
	{"wixstatic.com", "wix"},
	{"webflow", "webflow"},
}

// SniffTech detects the site's stack from the homepage HTML: the meta
// generator tag when present, plus well-known framework fingerprints.
func SniffTech(htmlSrc string) []string {
	seen := make(map[string]struct{})
	var tech []string
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		tech = append(tech, label)
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc)); err == nil {
		if gen, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok {
			if gen = strings.TrimSpace(gen); gen != "" {
				add(strings.ToLower(strings.Fields(gen)[0]))
			}
		}
	}

	lower := strings.ToLower(htmlSrc)
	for _, tm := range techMarkers {
		if strings.Contains(lower, tm.marker) {
			add(tm.label)
		}
	}
	return tech
}
