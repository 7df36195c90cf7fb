package analysis

import (
	"strings"

	"github.com/clipforge/api/internal/model"
)

// Scoring constants. Hook score rewards keyword hits, a "sweet spot"
// duration and early placement; energy score buckets speech rate.
const (
	keywordHitWeight = 0.15
	keywordHitCap    = 0.45

	sweetSpotMin   = 2.0  // seconds
	sweetSpotMax   = 8.0  // seconds
	partialSpotMax = 15.0 // seconds
	sweetSpotBonus = 0.25
	partialBonus   = 0.10

	recencyWindow = 30.0 // first N seconds of source media
	recencyBonus  = 0.15

	// Whisper avg_logprob below this halves the hook score
	confidenceFloor = -0.5
)

// hookKeywords are the hook words the creator's audience reacts to,
// Hinglish/Haryanvi slang plus the usual clickbait vocabulary.
var hookKeywords = []string{
	"bhai", "dekh", "dekho", "suno", "mast", "gajab", "kamaal",
	"dhamaka", "bawaal", "jhakkas", "paisa",
	"secret", "shocking", "crazy", "viral", "free", "amazing",
	"unbelievable", "insane", "trick", "hack", "exposed", "truth",
}

// ScoreSegment assigns hook and energy scores to a segment. It is
// side-effect free and always returns finite values in [0, 1].
func ScoreSegment(seg model.ScoredSegment) (hookScore, energyScore float64) {
	return hookScoreOf(seg), energyScoreOf(seg)
}

// ScoreAll returns a copy of the segments with scores filled in.
func ScoreAll(segments []model.ScoredSegment) []model.ScoredSegment {
	scored := make([]model.ScoredSegment, len(segments))
	for i, seg := range segments {
		seg.HookScore, seg.EnergyScore = ScoreSegment(seg)
		scored[i] = seg
	}
	return scored
}

func hookScoreOf(seg model.ScoredSegment) float64 {
	score := keywordComponent(seg.Text)

	duration := seg.End - seg.Start
	switch {
	case duration >= sweetSpotMin && duration <= sweetSpotMax:
		score += sweetSpotBonus
	case duration > 0 && duration <= partialSpotMax:
		score += partialBonus
	}

	if seg.Start < recencyWindow {
		score += recencyBonus
	}

	if seg.AvgLogprob < confidenceFloor {
		score *= 0.5
	}

	return clamp01(score)
}

func keywordComponent(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0.0
	for _, kw := range hookKeywords {
		if strings.Contains(lower, kw) {
			hits += keywordHitWeight
		}
	}
	if hits > keywordHitCap {
		return keywordHitCap
	}
	return hits
}

func energyScoreOf(seg model.ScoredSegment) float64 {
	duration := seg.End - seg.Start
	if duration <= 0 {
		return 0
	}
	words := len(strings.Fields(seg.Text))
	if words == 0 {
		return 0
	}

	wps := float64(words) / duration
	switch {
	case wps >= 3.5:
		return 1.0
	case wps >= 2.8:
		return 0.8
	case wps >= 2.0:
		return 0.6
	case wps >= 1.2:
		return 0.4
	default:
		return 0.2
	}
}

// CombinedScore weights hook over energy, matching the windowing filter.
func CombinedScore(seg model.ScoredSegment) float64 {
	return 0.6*seg.HookScore + 0.4*seg.EnergyScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
