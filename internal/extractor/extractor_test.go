package extractor

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

func TestExtractHeadingMention(t *testing.T) {
	sig := Extract(`<html><body><h1>AI-powered platform</h1></body></html>`)

	want := PageSignals{
		Mentions: []model.Mention{
			{
				Text:       "AI-powered",
				FontSizePx: 36,
				Context:    "AI-powered platform",
			},
		},
		WordCount:    2,
		PagesCrawled: 1,
	}
	if diff := cmp.Diff(want, sig); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLongestKeywordWins(t *testing.T) {
	sig := Extract(`<p>An AI-powered future with machine learning</p>`)

	var texts []string
	for _, m := range sig.Mentions {
		texts = append(texts, m.Text)
	}
	sort.Strings(texts)

	want := []string{"AI-powered", "machine learning"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("mention texts mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMultiWordKeyword(t *testing.T) {
	sig := Extract(`<p>We use artificial intelligence daily</p>`)

	if len(sig.Mentions) != 1 || sig.Mentions[0].Text != "artificial intelligence" {
		t.Fatalf("mentions = %+v, want single %q", sig.Mentions, "artificial intelligence")
	}
}

func TestExtractDedupesRepeatedBlocks(t *testing.T) {
	page := `<nav><a href="/">AI tools</a></nav><nav><a href="/">AI tools</a></nav>`
	sig := Extract(page)

	if len(sig.Mentions) != 1 {
		t.Errorf("mentions = %d, want 1 after nav dedup", len(sig.Mentions))
	}
}

func TestAccumulatorDedupesAcrossPages(t *testing.T) {
	page := `<html><body><footer>Built with AI</footer></body></html>`

	acc := NewAccumulator()
	acc.AddPage(page)
	acc.AddPage(page)
	sig := acc.Signals()

	if len(sig.Mentions) != 1 {
		t.Errorf("mentions = %d, want 1 across identical pages", len(sig.Mentions))
	}
	if sig.PagesCrawled != 2 {
		t.Errorf("pages crawled = %d, want 2", sig.PagesCrawled)
	}
	if sig.WordCount != 6 {
		t.Errorf("word count = %d, want 6 (both pages counted)", sig.WordCount)
	}
}

func TestAddPageEmptyBody(t *testing.T) {
	acc := NewAccumulator()
	acc.AddPage("")
	acc.AddPage("   \n\t")

	if diff := cmp.Diff(PageSignals{}, acc.Signals()); diff != "" {
		t.Errorf("empty pages contributed signals (-want +got):\n%s", diff)
	}
}

func TestEstimateFontSize(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "inline style wins",
			html: `<p><span style="font-size: 42px">AI</span> rocks</p>`,
			want: 42,
		},
		{
			name: "h2 heading",
			html: `<h2>Go AI now</h2>`,
			want: 30,
		},
		{
			name: "closed heading does not apply",
			html: `<h1>Welcome</h1><p>Plain AI paragraph</p>`,
			want: 16,
		},
		{
			name: "no hints default",
			html: `<p>Just AI text</p>`,
			want: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(tt.html)
			if len(sig.Mentions) != 1 {
				t.Fatalf("mentions = %d, want 1", len(sig.Mentions))
			}
			if got := sig.Mentions[0].FontSizePx; got != tt.want {
				t.Errorf("font size = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMentionStyleFlags(t *testing.T) {
	sig := Extract(`<div style="animation: pulse 2s infinite">Powered by AI</div>`)
	if len(sig.Mentions) != 1 || !sig.Mentions[0].HasAnimation {
		t.Errorf("mentions = %+v, want single animated mention", sig.Mentions)
	}

	sig = Extract(`<div style="text-shadow: 0 0 12px cyan">AI inside</div>`)
	if len(sig.Mentions) != 1 || !sig.Mentions[0].HasGlow {
		t.Errorf("mentions = %+v, want single glowing mention", sig.Mentions)
	}
	if sig.GlowCount != 1 {
		t.Errorf("glow count = %d, want 1", sig.GlowCount)
	}

	// The styled span closes before the mention, so no flag applies.
	sig = Extract(`<span style="animation: spin 1s">fast</span> Plain AI here`)
	if len(sig.Mentions) != 1 || sig.Mentions[0].HasAnimation {
		t.Errorf("mentions = %+v, want single non-animated mention", sig.Mentions)
	}
}

func TestPageWideCounts(t *testing.T) {
	page := `<style>
@keyframes pulse { from { opacity: 0 } to { opacity: 1 } }
.a { animation: pulse 2s; }
.b { animation: none; }
.c { animation-name: glowy; }
.d { box-shadow: 0 0 8px gold; }
.e { text-shadow: 1px 1px 0 black; }
.f { border-image: linear-gradient(red, blue) 1; }
.g { background: conic-gradient(red, orange); }
</style><body>hi</body>`

	sig := Extract(page)
	if sig.AnimationCount != 3 {
		t.Errorf("animation count = %d, want 3 (keyframes + two non-none declarations)", sig.AnimationCount)
	}
	if sig.GlowCount != 1 {
		t.Errorf("glow count = %d, want 1 (zero-blur shadow excluded)", sig.GlowCount)
	}
	if sig.RainbowCount != 2 {
		t.Errorf("rainbow count = %d, want 2", sig.RainbowCount)
	}
}

func TestVisibleText(t *testing.T) {
	in := `<p>Hello &amp; welcome</p><script>var hidden = 1;</script><style>p{}</style><!-- note -->`
	if got := VisibleText(in); got != "Hello & welcome" {
		t.Errorf("VisibleText() = %q, want %q", got, "Hello & welcome")
	}
}

func TestContextSnippetTruncation(t *testing.T) {
	page := "<p>" + strings.Repeat("word ", 30) + "AI" + strings.Repeat(" word", 30) + "</p>"
	sig := Extract(page)
	if len(sig.Mentions) != 1 {
		t.Fatalf("mentions = %d, want 1", len(sig.Mentions))
	}

	ctx := sig.Mentions[0].Context
	if !strings.HasPrefix(ctx, "...") || !strings.HasSuffix(ctx, "...") {
		t.Errorf("context = %q, want ellipsis on both sides", ctx)
	}
	if !strings.Contains(ctx, "AI") {
		t.Errorf("context = %q, want to contain the match", ctx)
	}
}
