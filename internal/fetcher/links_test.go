package fetcher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
<a href="/about">About</a>
<a href="/about#team">About dup</a>
<a href="/pricing?utm=x">Pricing</a>
<a href="https://other.example/x">External</a>
<a href="mailto:hi@site.example">Mail</a>
<a href="#top">Fragment</a>
<a href="javascript:void(0)">JS</a>
<a href="/">Self</a>
<a href="/blog">Blog</a>
</body></html>`

	got := ExtractLinks("https://site.example/", page, 10)
	want := []string{
		"https://site.example/about",
		"https://site.example/pricing",
		"https://site.example/blog",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksLimit(t *testing.T) {
	page := `<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a>`
	got := ExtractLinks("https://site.example/", page, 2)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestExtractLinksBadBaseURL(t *testing.T) {
	if got := ExtractLinks("://broken", `<a href="/a">a</a>`, 5); got != nil {
		t.Errorf("got %v, want nil for unparseable base", got)
	}
}
