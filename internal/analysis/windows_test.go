package analysis

import (
	"fmt"
	"testing"

	"github.com/clipforge/api/internal/model"
)

func seg(start, end, hook, energy float64, text string) model.ScoredSegment {
	return model.ScoredSegment{
		Start:       start,
		End:         end,
		Text:        text,
		HookScore:   hook,
		EnergyScore: energy,
	}
}

func TestBuildClipWindows_EmptyInput(t *testing.T) {
	if got := BuildClipWindows(nil, DefaultMinScore); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestBuildClipWindows_AllBelowThreshold(t *testing.T) {
	segments := []model.ScoredSegment{
		seg(0, 5, 0.1, 0.1, "meh"),
		seg(10, 15, 0.2, 0.1, "also meh"),
	}
	if got := BuildClipWindows(segments, DefaultMinScore); len(got) != 0 {
		t.Errorf("expected no windows, got %d", len(got))
	}
}

func TestBuildClipWindows_MergesWithinGap(t *testing.T) {
	// gap of exactly 1s <= MergeGap: one window spanning both
	segments := []model.ScoredSegment{
		seg(0, 5, 0.8, 0.5, "first"),
		seg(6, 10, 0.6, 0.5, "second"),
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 merged window, got %d", len(windows))
	}
	w := windows[0]
	if w.Start != 0 || w.End != 10 {
		t.Errorf("window = [%v, %v], want [0, 10]", w.Start, w.End)
	}
	if len(w.Texts) != 2 {
		t.Errorf("expected both texts carried, got %v", w.Texts)
	}
}

func TestBuildClipWindows_SplitsBeyondGap(t *testing.T) {
	// gap of 4s > MergeGap: two windows
	segments := []model.ScoredSegment{
		seg(0, 5, 0.8, 0.5, "first"),
		seg(9, 15, 0.6, 0.5, "second"),
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
}

func TestBuildClipWindows_MergeKeepsMaxScore(t *testing.T) {
	segments := []model.ScoredSegment{
		seg(0, 5, 0.5, 0.5, "weaker"),
		seg(6, 10, 1.0, 1.0, "stronger"),
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].Score != 1.0 {
		t.Errorf("merged score = %v, want max of contributors (1.0)", windows[0].Score)
	}
}

// Scenario from the Hinglish transcript shape this pipeline targets:
// two nearby low-confidence segments merge into a single 10s window
// with no padding applied.
func TestBuildClipWindows_NearbyHinglishSegments(t *testing.T) {
	raw := []model.ScoredSegment{
		{Start: 0, End: 5, Text: "bhai dekh", AvgLogprob: -0.2},
		{Start: 6, End: 10, Text: "mast", AvgLogprob: -0.2},
	}
	windows := BuildClipWindows(ScoreAll(raw), DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]
	if w.Start != 0 || w.End != 10 || w.Duration != 10 {
		t.Errorf("window = [%v, %v] dur %v, want [0, 10] dur 10", w.Start, w.End, w.Duration)
	}
}

func TestBuildClipWindows_PadClampAtZero(t *testing.T) {
	// A 1s window at the very start: the start clamps at 0 and the
	// whole deficit lands on the end side.
	segments := []model.ScoredSegment{seg(0, 1, 1.0, 1.0, "hi")}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]
	if w.Start != 0 || w.End != 5 || w.Duration != MinClipDuration {
		t.Errorf("window = [%v, %v] dur %v, want [0, 5] dur 5", w.Start, w.End, w.Duration)
	}
}

func TestBuildClipWindows_PadSymmetricAwayFromZero(t *testing.T) {
	segments := []model.ScoredSegment{seg(10, 11, 1.0, 1.0, "short")}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]
	if w.Start != 8 || w.End != 13 {
		t.Errorf("window = [%v, %v], want [8, 13]", w.Start, w.End)
	}
}

func TestBuildClipWindows_CapsLongWindows(t *testing.T) {
	// A chain of segments each within MergeGap of the next, spanning
	// well past MaxClipDuration once merged.
	var segments []model.ScoredSegment
	for i := 0; i < 20; i++ {
		start := float64(i) * 5
		segments = append(segments, seg(start, start+4, 0.9, 0.9, "chunk"))
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 1 {
		t.Fatalf("expected 1 merged window, got %d", len(windows))
	}
	if windows[0].Duration != MaxClipDuration {
		t.Errorf("duration = %v, want capped at %v", windows[0].Duration, MaxClipDuration)
	}
}

func TestBuildClipWindows_DurationBoundsAndLimit(t *testing.T) {
	// 40 well-separated candidates: output must be ranked, bounded and
	// capped at MaxClipsPerAsset.
	var segments []model.ScoredSegment
	for i := 0; i < 40; i++ {
		start := float64(i) * 100
		score := 0.3 + float64(i%10)*0.07
		segments = append(segments, seg(start, start+6, score, score, fmt.Sprintf("candidate %d", i)))
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != MaxClipsPerAsset {
		t.Fatalf("expected %d windows, got %d", MaxClipsPerAsset, len(windows))
	}
	for i, w := range windows {
		if w.Duration < MinClipDuration || w.Duration > MaxClipDuration {
			t.Errorf("window %d duration %v out of [%v, %v]", i, w.Duration, MinClipDuration, MaxClipDuration)
		}
		if i > 0 && w.Score > windows[i-1].Score {
			t.Errorf("windows not sorted by score: %v after %v", w.Score, windows[i-1].Score)
		}
	}
}

func TestBuildClipWindows_UnorderedInput(t *testing.T) {
	segments := []model.ScoredSegment{
		seg(50, 56, 0.7, 0.7, "later"),
		seg(0, 6, 0.7, 0.7, "earlier"),
	}
	windows := BuildClipWindows(segments, DefaultMinScore)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	// Ranked by score; both scores equal, stable sort keeps time order
	if windows[0].Start != 0 {
		t.Errorf("expected time-ascending sweep before ranking, got first start %v", windows[0].Start)
	}
}
