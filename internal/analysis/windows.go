package analysis

import (
	"math"
	"sort"

	"github.com/clipforge/api/internal/model"
)

// Windowing constants.
const (
	// Segments closer than this are merged into one window
	MergeGap = 3.0

	MinClipDuration  = 5.0  // seconds, shorter is too abrupt
	MaxClipDuration  = 60.0 // seconds, longer is not a "short"
	MaxClipsPerAsset = 25

	// DefaultMinScore is the combined-score filter threshold
	DefaultMinScore = 0.3
)

// ClipWindow is a candidate clip boundary built by merging scored
// segments. Adjacent short windows padded outward can overlap; that is
// accepted, downstream consumers treat windows independently.
type ClipWindow struct {
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Duration float64  `json:"duration"`
	Score    float64  `json:"score"`
	Texts    []string `json:"texts,omitempty"`
}

// BuildClipWindows groups nearby high-scoring segments into clip
// windows: filter by combined score, sweep-merge by gap, pad or cap to
// the duration bounds, then rank by score and truncate. An empty input
// or an empty survivor set yields an empty result, never an error.
func BuildClipWindows(segments []model.ScoredSegment, minScore float64) []ClipWindow {
	type candidate struct {
		start, end, score float64
		text              string
	}

	var candidates []candidate
	for _, seg := range segments {
		combined := CombinedScore(seg)
		if combined >= minScore {
			candidates = append(candidates, candidate{
				start: seg.Start,
				end:   seg.End,
				score: round3(combined),
				text:  seg.Text,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].start < candidates[j].start
	})

	// Sweep and merge
	var windows []ClipWindow
	current := ClipWindow{
		Start: candidates[0].start,
		End:   candidates[0].end,
		Score: candidates[0].score,
		Texts: []string{candidates[0].text},
	}
	for _, c := range candidates[1:] {
		if c.start-current.End <= MergeGap {
			current.End = c.end
			if c.score > current.Score {
				current.Score = c.score
			}
			current.Texts = append(current.Texts, c.text)
		} else {
			windows = append(windows, current)
			current = ClipWindow{
				Start: c.start,
				End:   c.end,
				Score: c.score,
				Texts: []string{c.text},
			}
		}
	}
	windows = append(windows, current)

	// Pad short windows, cap long ones
	for i := range windows {
		w := &windows[i]
		if w.End-w.Start < MinClipDuration {
			pad := (MinClipDuration - (w.End - w.Start)) / 2
			w.Start = math.Max(0, w.Start-pad)
			// The end always lands at start+min: when the start clamps
			// at zero the whole deficit shifts onto the end side.
			w.End = w.Start + MinClipDuration
		}
		if w.End-w.Start > MaxClipDuration {
			w.End = w.Start + MaxClipDuration
		}
		w.Start = round2(w.Start)
		w.End = round2(w.End)
		w.Duration = round2(w.End - w.Start)
	}

	// Best first, capped
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Score > windows[j].Score
	})
	if len(windows) > MaxClipsPerAsset {
		windows = windows[:MaxClipsPerAsset]
	}
	return windows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
