package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks pulls same-host links out of a page for the bounded
// multi-page crawl. Fragments and query strings are dropped, duplicates and
// the page itself skipped, and at most limit links returned in document
// order.
func ExtractLinks(pageURL, htmlSrc string, limit int) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{normalizeLink(base): {}}
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host || (abs.Scheme != "http" && abs.Scheme != "https") {
			return true
		}

		key := normalizeLink(abs)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, key)
		return len(links) < limit
	})
	return links
}

func normalizeLink(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	s := c.String()
	return strings.TrimSuffix(s, "/")
}
