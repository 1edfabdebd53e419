// SPDX-License-Identifier: MIT
package scoring

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"tonecoach/internal/feedback"
	"tonecoach/internal/pitch"
	"tonecoach/internal/tone"
)

const hop = 512.0 / 44100.0

func contourOf(freqs ...float64) pitch.Contour {
	c := make(pitch.Contour, len(freqs))
	for i, f := range freqs {
		c[i] = pitch.Sample{Time: float64(i) * hop, Frequency: f}
	}
	return c
}

func steady(n int, f float64) pitch.Contour {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = f
	}
	return contourOf(freqs...)
}

func ramp(n int, from, to float64) pitch.Contour {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return contourOf(freqs...)
}

func TestEvaluate_SteadyTone(t *testing.T) {
	s := NewScorer(nil, nil)
	msgs := feedback.Default()

	tests := []struct {
		name     string
		expected tone.Tone
		want     Score
	}{
		{
			name:     "expected low",
			expected: tone.Low,
			want:     Score{Overall: 55, ToneAccuracy: 70, Clarity: 0, Timing: 100, Feedback: []string{msgs.Articulation()}},
		},
		{
			name:     "expected middle",
			expected: tone.Middle,
			want:     Score{Overall: 70, ToneAccuracy: 100, Clarity: 0, Timing: 100, Feedback: []string{msgs.Praise(), msgs.Articulation()}},
		},
		{
			name:     "no target",
			expected: tone.None,
			want:     Score{Overall: 70, ToneAccuracy: 100, Clarity: 0, Timing: 100, Feedback: []string{msgs.Praise(), msgs.Articulation()}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, a := s.Evaluate(steady(40, 150), tt.expected)
			if a.Tone != tone.Middle || a.Confidence != 1 {
				t.Fatalf("analysis = %v / %v, want middle / 1", a.Tone, a.Confidence)
			}
			if score.Overall != tt.want.Overall || score.ToneAccuracy != tt.want.ToneAccuracy ||
				score.Clarity != tt.want.Clarity || score.Timing != tt.want.Timing {
				t.Errorf("score = %+v, want %+v", score, tt.want)
			}
			if !slices.Equal(score.Feedback, tt.want.Feedback) {
				t.Errorf("feedback = %q, want %q", score.Feedback, tt.want.Feedback)
			}
		})
	}
}

func TestEvaluate_ClearRise(t *testing.T) {
	s := NewScorer(nil, nil)
	msgs := feedback.Default()
	contour := ramp(40, 120, 300)

	score, a := s.Evaluate(contour, tone.Rising)
	if a.Tone != tone.Rising {
		t.Fatalf("detected %v", a.Tone)
	}
	if a.PitchRange.Min != 120 || a.PitchRange.Max != 300 {
		t.Errorf("pitch range = %+v", a.PitchRange)
	}
	if score.ToneAccuracy != int(math.Round(a.Confidence*100)) {
		t.Errorf("matching tone should score confidence: %d vs %.3f", score.ToneAccuracy, a.Confidence)
	}
	if score.Clarity != 100 || score.Timing != 100 {
		t.Errorf("clarity/timing = %d/%d", score.Clarity, score.Timing)
	}
	if !slices.Equal(score.Feedback, []string{msgs.Praise()}) {
		t.Errorf("feedback = %q", score.Feedback)
	}

	// The same rise against the wrong target loses 30 points of accuracy but
	// stays above the hint threshold.
	wrong, _ := s.Evaluate(contour, tone.Falling)
	if want := int(math.Round((a.Confidence - 0.3) * 100)); wrong.ToneAccuracy != want {
		t.Errorf("mismatch accuracy = %d, want %d", wrong.ToneAccuracy, want)
	}
	if !slices.Equal(wrong.Feedback, []string{msgs.Encouragement()}) {
		t.Errorf("feedback = %q", wrong.Feedback)
	}
}

func TestEvaluate_EmptyContour(t *testing.T) {
	s := NewScorer(nil, nil)
	msgs := feedback.Default()

	score, a := s.Evaluate(nil, tone.Rising)
	if a.Tone != tone.Middle || a.Confidence != 0.5 {
		t.Errorf("analysis = %v / %v", a.Tone, a.Confidence)
	}
	want := Score{Overall: 10, ToneAccuracy: 20, Clarity: 0, Timing: 0}
	if score.Overall != want.Overall || score.ToneAccuracy != want.ToneAccuracy ||
		score.Clarity != want.Clarity || score.Timing != want.Timing {
		t.Errorf("score = %+v, want %+v", score, want)
	}
	wantFeedback := []string{msgs.ToneHint(tone.Rising), msgs.Articulation(), msgs.TooFast()}
	if !slices.Equal(score.Feedback, wantFeedback) {
		t.Errorf("feedback = %q, want %q", score.Feedback, wantFeedback)
	}
}

func TestEvaluate_HintUsesDetectedToneWithoutTarget(t *testing.T) {
	s := NewScorer(nil, nil)
	score, a := s.Evaluate(contourOf(150, 200), tone.None)
	if a.Tone != tone.Middle {
		t.Fatalf("detected %v", a.Tone)
	}
	if score.Feedback[0] != feedback.Default().ToneHint(tone.Middle) {
		t.Errorf("first line = %q", score.Feedback[0])
	}
}

func TestEvaluate_TooSlow(t *testing.T) {
	s := NewScorer(nil, nil)
	// 200 windows at 512-sample hops is a little over 2.3 seconds.
	score, a := s.Evaluate(steady(200, 150), tone.Middle)
	if a.Duration < 2 {
		t.Fatalf("duration = %v", a.Duration)
	}
	if score.Timing != 30 {
		t.Errorf("timing = %d", score.Timing)
	}
	if last := score.Feedback[len(score.Feedback)-1]; last != feedback.Default().TooSlow() {
		t.Errorf("last feedback = %q", last)
	}
}

func TestEvaluate_Localised(t *testing.T) {
	th, err := feedback.Load("th", "")
	if err != nil {
		t.Fatal(err)
	}
	score, _ := NewScorer(tone.SegmentClassifier{}, th).Evaluate(steady(40, 150), tone.Middle)
	if score.Feedback[0] != th.Praise() {
		t.Errorf("feedback = %q", score.Feedback)
	}
}

func TestTimingScore(t *testing.T) {
	tests := []struct {
		samples int
		d       float64
		want    float64
	}{
		{0, 0, 0},
		{1, 0, 0},
		{10, 0.15, 0.5},
		{10, 0.3, 1},
		{10, 0.55, 1},
		{10, 0.8, 1},
		{10, 1.0, 0.9},
		{10, 2.0, 0.4},
		{10, 5.0, 0.3},
	}

	for _, tt := range tests {
		if got := timingScore(tt.samples, tt.d); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("timingScore(%d, %v) = %v, want %v", tt.samples, tt.d, got, tt.want)
		}
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		t, c, m int
		want    int
	}{
		{0, 0, 0, 0},
		{100, 100, 100, 100},
		{70, 0, 100, 55},
		{55, 0, 100, 48}, // 47.5 rounds half up
		{33, 33, 34, 33},
		{1, 0, 0, 1}, // 0.5 rounds half up
	}

	for _, tt := range tests {
		if got := Overall(tt.t, tt.c, tt.m); got != tt.want {
			t.Errorf("Overall(%d, %d, %d) = %d, want %d", tt.t, tt.c, tt.m, got, tt.want)
		}
	}
}

func TestEvaluate_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	scorers := []*Scorer{NewScorer(nil, nil), NewScorer(tone.NewDTWClassifier(), nil)}
	targets := append([]tone.Tone{tone.None}, tone.All...)

	for range 500 {
		n := rng.IntN(120)
		freqs := make([]float64, n)
		base := 80 + rng.Float64()*200
		for i := range freqs {
			freqs[i] = base + (rng.Float64()-0.5)*rng.Float64()*150
		}
		contour := contourOf(freqs...)
		expected := targets[rng.IntN(len(targets))]

		for _, s := range scorers {
			score, _ := s.Evaluate(contour, expected)

			for _, v := range []int{score.Overall, score.ToneAccuracy, score.Clarity, score.Timing} {
				if v < 0 || v > 100 {
					t.Fatalf("component out of range: %+v", score)
				}
			}
			weighted := 0.5*float64(score.ToneAccuracy) + 0.3*float64(score.Clarity) + 0.2*float64(score.Timing)
			if math.Abs(float64(score.Overall)-weighted) > 0.5+1e-9 {
				t.Fatalf("overall %d too far from weighted %.2f", score.Overall, weighted)
			}
			if len(score.Feedback) == 0 {
				t.Fatal("feedback must never be empty")
			}

			again, _ := s.Evaluate(contour, expected)
			if again.Overall != score.Overall || !slices.Equal(again.Feedback, score.Feedback) {
				t.Fatal("evaluation is not deterministic")
			}
		}
	}
}

func TestFailed(t *testing.T) {
	s := NewScorer(nil, nil)
	f := s.Failed()
	if f.Overall != 0 || f.ToneAccuracy != 0 || f.Clarity != 0 || f.Timing != 0 {
		t.Errorf("failed score = %+v", f)
	}
	if len(f.Feedback) != 1 || f.Feedback[0] != feedback.Default().AnalysisFailed() {
		t.Errorf("failed feedback = %q", f.Feedback)
	}
}

func TestEvaluate_PartialCatalogueFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.toml")
	if err := os.WriteFile(path, []byte("[en]\npraise = \"nice\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	messages, err := feedback.Load("en", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := NewScorer(nil, messages)

	score, _ := s.Evaluate(nil, tone.Rising)
	failed := s.Failed()
	for _, lines := range [][]string{score.Feedback, failed.Feedback} {
		if len(lines) == 0 {
			t.Fatal("feedback is empty")
		}
		for i, line := range lines {
			if line == "" {
				t.Errorf("feedback line %d is blank in %q", i, lines)
			}
		}
	}
	if failed.Feedback[0] != feedback.Default().AnalysisFailed() {
		t.Errorf("failed feedback = %q", failed.Feedback)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	s := NewScorer(nil, nil)
	contour := ramp(40, 120, 300)
	for b.Loop() {
		s.Evaluate(contour, tone.Rising)
	}
}
