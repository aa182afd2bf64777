package fetcher

import (
	"strings"
	"testing"
)

func TestShouldRender(t *testing.T) {
	filler := strings.Repeat("<p>plenty of static content</p>\n", 100)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{"empty body", "", true},
		{"whitespace body", "  \n\t", true},
		{
			"tiny script shell",
			`<html><head><script src="a.js"></script><script src="b.js"></script><script src="c.js"></script></head><body></body></html>`,
			true,
		},
		{
			"large script-heavy page",
			filler + `<script></script><script></script><script></script>`,
			false,
		},
		{"next root", filler + `<div id="__next"></div>`, true},
		{"react root attr", filler + `<div data-reactroot></div>`, true},
		{"angular marker", filler + `<app-root ng-version="17.0.1"></app-root>`, true},
		{"plain static page", filler, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRender(tt.html); got != tt.want {
				t.Errorf("ShouldRender() = %v, want %v", got, tt.want)
			}
		})
	}
}
