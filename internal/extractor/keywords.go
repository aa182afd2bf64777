package extractor

import (
	"regexp"
	"sort"
)

// keywords is the fixed AI-keyword list. Matching is case-insensitive and
// word-bounded; longer phrases win over shorter ones they contain, so
// "AI-powered" is one mention, not "AI" plus a leftover.
var keywords = []string{
	"artificial intelligence",
	"large language model",
	"machine learning",
	"deep learning",
	"neural network",
	"generative ai",
	"ai-powered",
	"ai-driven",
	"ai-enabled",
	"ai-first",
	"ai-native",
	"ai assistant",
	"ai agent",
	"agentic",
	"chatbot",
	"copilot",
	"llm",
	"gpt",
	"a.i.",
	"ai",
}

// Keywords returns the AI-keyword list, longest phrase first.
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

var keywordPatterns = compileKeywords()

func compileKeywords() []*regexp.Regexp {
	kws := Keywords()
	patterns := make([]*regexp.Regexp, 0, len(kws))
	for _, kw := range kws {
		patterns = append(patterns, regexp.MustCompile(keywordPattern(kw)))
	}
	return patterns
}

// keywordPattern builds a case-insensitive word-bounded pattern for a keyword.
// A trailing \b is only valid when the keyword ends in a word character
// (it would never match after "a.i.").
func keywordPattern(kw string) string {
	p := `(?i)\b` + regexp.QuoteMeta(kw)
	last := kw[len(kw)-1]
	if last == '.' {
		return p
	}
	return p + `\b`
}
