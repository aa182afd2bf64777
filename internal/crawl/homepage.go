package crawl

import "strings"

// indexPages are path basenames that still count as a homepage.
var indexPages = map[string]struct{}{
	"index.html": {},
	"index.htm":  {},
	"index.php":  {},
	"home":       {},
	"en":         {},
}

// isHomepagePath reports whether a URL path is a homepage. Locale-style
// single-segment paths like /en are tolerated; anything deeper is not.
func isHomepagePath(path string) bool {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return true
	}
	if strings.Contains(trimmed, "/") {
		return false
	}
	_, ok := indexPages[strings.ToLower(trimmed)]
	return ok
}
