// Package score converts extracted signals into a deterministic hype score.
// Calculate is a pure function: identical inputs always produce identical
// breakdowns, so a stored total can be reproduced from stored raw signals.
package score

import (
	"math"

	"github.com/darinlarimore/most-ai-mentions-sub000/internal/model"
)

// Mention scoring constants.
const (
	mentionBasePoints      = 5
	mentionAnimationPoints = 15
	mentionGlowPoints      = 25
	mentionScoreCap        = 200
)

// Font-size bonus constants.
const (
	fontSizeBaselinePx = 16
	fontSizeFactor     = 1.5
)

// Visual effect constants. Raw counts are capped before multiplying.
const (
	animationCountCap = 10
	animationPoints   = 15
	glowCountCap      = 10
	glowPoints        = 25
	rainbowCountCap   = 5
	rainbowPoints     = 30
)

// Density scoring constants.
const (
	densityMinWords      = 50
	densityScoreCap      = 1000
	densityMultiplierCap = 1.5
)

// densityBreakpoints maps AI-word density percentages to points. Values in
// between are interpolated linearly; above the last breakpoint the score
// clamps to its points.
var densityBreakpoints = []struct {
	pct    float64
	points float64
}{
	{0, 0},
	{0.5, 100},
	{1, 250},
	{2, 500},
	{5, 800},
	{10, 1000},
}

// Input is everything the calculator looks at. External bonuses are supplied
// by async enrichments and summed in verbatim.
type Input struct {
	Mentions        []model.Mention
	AnimationCount  int
	GlowCount       int
	RainbowCount    int
	WordCount       int
	LighthouseBonus float64
	AIImageBonus    float64
}

// Calculate computes the full score breakdown from raw signals.
func Calculate(in Input) model.ScoreBreakdown {
	b := model.ScoreBreakdown{
		DensityScore:       densityScore(in.Mentions, in.WordCount),
		MentionScore:       mentionScore(in.Mentions),
		FontSizeScore:      fontSizeScore(in.Mentions),
		AnimationScore:     float64(minInt(in.AnimationCount, animationCountCap) * animationPoints),
		VisualEffectsScore: visualEffectsScore(in.GlowCount, in.RainbowCount),
		LighthouseBonus:    in.LighthouseBonus,
		AIImageBonus:       in.AIImageBonus,
	}

	total := b.DensityScore + b.MentionScore + b.FontSizeScore +
		b.AnimationScore + b.VisualEffectsScore + b.LighthouseBonus + b.AIImageBonus
	if total < 0 {
		total = 0
	}
	b.Total = int(math.Round(total))
	return b
}

// mentionScore awards base points per mention plus animation and glow
// premiums, capped at mentionScoreCap.
func mentionScore(mentions []model.Mention) float64 {
	pts := 0
	for _, m := range mentions {
		pts += mentionBasePoints
		if m.HasAnimation {
			pts += mentionAnimationPoints
		}
		if m.HasGlow {
			pts += mentionGlowPoints
		}
	}
	if pts > mentionScoreCap {
		pts = mentionScoreCap
	}
	return float64(pts)
}

// fontSizeScore awards points for mentions rendered larger than the browser
// default. Uncapped and kept separate from the mention score.
func fontSizeScore(mentions []model.Mention) float64 {
	var pts float64
	for _, m := range mentions {
		if m.FontSizePx > fontSizeBaselinePx {
			pts += float64(m.FontSizePx-fontSizeBaselinePx) * fontSizeFactor
		}
	}
	return pts
}

func visualEffectsScore(glowCount, rainbowCount int) float64 {
	return float64(minInt(glowCount, glowCountCap)*glowPoints +
		minInt(rainbowCount, rainbowCountCap)*rainbowPoints)
}

// densityScore maps the proportion of AI words in the visible text through
// the breakpoint table, scaled by a content-length multiplier. Pages with
// fewer than densityMinWords words score zero here.
func densityScore(mentions []model.Mention, wordCount int) float64 {
	if wordCount < densityMinWords {
		return 0
	}

	aiWords := 0
	for _, m := range mentions {
		aiWords += mentionWordCount(m.Text)
	}
	pct := float64(aiWords) / float64(wordCount) * 100

	pts := interpolateDensity(pct)
	pts *= lengthMultiplier(wordCount)
	if pts > densityScoreCap {
		pts = densityScoreCap
	}
	return pts
}

func interpolateDensity(pct float64) float64 {
	bps := densityBreakpoints
	if pct <= bps[0].pct {
		return bps[0].points
	}
	last := bps[len(bps)-1]
	if pct >= last.pct {
		return last.points
	}
	for i := 1; i < len(bps); i++ {
		if pct > bps[i].pct {
			continue
		}
		lo, hi := bps[i-1], bps[i]
		frac := (pct - lo.pct) / (hi.pct - lo.pct)
		return lo.points + frac*(hi.points-lo.points)
	}
	return last.points
}

// lengthMultiplier is exactly 1.0 at densityMinWords words and grows
// logarithmically toward densityMultiplierCap.
func lengthMultiplier(wordCount int) float64 {
	m := 1 + 0.5*math.Log10(float64(wordCount)/densityMinWords)
	if m > densityMultiplierCap {
		return densityMultiplierCap
	}
	return m
}

func mentionWordCount(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
