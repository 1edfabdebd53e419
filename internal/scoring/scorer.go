// SPDX-License-Identifier: MIT

// Package scoring turns a pitch contour into a pronunciation score with
// feedback.
package scoring

import (
	"math"

	"tonecoach/internal/feedback"
	"tonecoach/internal/log"
	"tonecoach/internal/pitch"
	"tonecoach/internal/tone"
)

// Weights of the overall score, in tenths.
const (
	toneWeight    = 5
	clarityWeight = 3
	timingWeight  = 2
)

const (
	mismatchPenalty = 0.3 // Subtracted from confidence when the tone is wrong.
	clarityRegister = 0.3 // Expected pitch excursion as a fraction of the mean.

	// Expected syllable duration window, in seconds.
	minDuration = 0.3
	maxDuration = 0.8
	// Timing never drops below this for long utterances.
	slowFloor = 0.3
	slowDecay = 0.5

	lowThreshold    = 0.6
	praiseThreshold = 0.8
)

// PitchRange is the span of a contour in Hz.
type PitchRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Analysis describes a contour independently of any target.
type Analysis struct {
	Contour          pitch.Contour `json:"contour"`
	AverageFrequency float64       `json:"average_frequency"`
	PitchRange       PitchRange    `json:"pitch_range"`
	Duration         float64       `json:"duration"`
	Tone             tone.Tone     `json:"tone"`
	Confidence       float64       `json:"confidence"`
}

// Score is a graded attempt. All components are integer percentages.
type Score struct {
	Overall      int      `json:"overall"`
	ToneAccuracy int      `json:"tone_accuracy"`
	Clarity      int      `json:"clarity"`
	Timing       int      `json:"timing"`
	Feedback     []string `json:"feedback"`
}

// Scorer grades contours. It is stateless apart from its configuration and
// safe for concurrent use.
type Scorer struct {
	classifier tone.Classifier
	messages   *feedback.Catalogue
}

// NewScorer returns a Scorer. Nil arguments select the segment classifier
// and the built-in English messages.
func NewScorer(classifier tone.Classifier, messages *feedback.Catalogue) *Scorer {
	if classifier == nil {
		classifier = tone.SegmentClassifier{}
	}
	if messages == nil {
		messages = feedback.Default()
	}
	return &Scorer{classifier: classifier, messages: messages}
}

// Analyze classifies contour and summarises its pitch.
func (s *Scorer) Analyze(contour pitch.Contour) Analysis {
	freqs := contour.Frequencies()
	detected := s.classifier.Classify(freqs)
	lo, hi := contour.Range()

	return Analysis{
		Contour:          contour,
		AverageFrequency: contour.Mean(),
		PitchRange:       PitchRange{Min: lo, Max: hi},
		Duration:         contour.Duration(),
		Tone:             detected,
		Confidence:       tone.Confidence(freqs, detected, s.classifier),
	}
}

// Evaluate grades contour against expected. tone.None grades the contour on
// its own merits.
func (s *Scorer) Evaluate(contour pitch.Contour, expected tone.Tone) (Score, Analysis) {
	a := s.Analyze(contour)

	toneAcc := a.Confidence
	if expected != tone.None && expected != a.Tone {
		toneAcc = max(0, a.Confidence-mismatchPenalty)
	}
	clarity := clarityScore(a)
	timing := timingScore(len(contour), a.Duration)

	score := Score{
		ToneAccuracy: percent(toneAcc),
		Clarity:      percent(clarity),
		Timing:       percent(timing),
	}
	score.Overall = Overall(score.ToneAccuracy, score.Clarity, score.Timing)

	hintTone := expected
	if hintTone == tone.None {
		hintTone = a.Tone
	}
	score.Feedback = s.feedback(toneAcc, clarity, timing, a.Duration, hintTone)

	log.Debugf("Scoring: detected=%v expected=%v conf=%.3f tone=%d clarity=%d timing=%d overall=%d",
		a.Tone, expected, a.Confidence, score.ToneAccuracy, score.Clarity, score.Timing, score.Overall)
	return score, a
}

// Failed is the score reported when an attempt could not be analysed.
func (s *Scorer) Failed() Score {
	return Score{Feedback: []string{s.messages.AnalysisFailed()}}
}

func (s *Scorer) feedback(toneAcc, clarity, timing, duration float64, hintTone tone.Tone) []string {
	var lines []string
	if toneAcc < lowThreshold {
		lines = append(lines, s.messages.ToneHint(hintTone))
	}
	if toneAcc >= praiseThreshold {
		lines = append(lines, s.messages.Praise())
	}
	if clarity < lowThreshold {
		lines = append(lines, s.messages.Articulation())
	}
	if timing < lowThreshold {
		if duration < minDuration {
			lines = append(lines, s.messages.TooFast())
		} else {
			lines = append(lines, s.messages.TooSlow())
		}
	}
	if len(lines) == 0 {
		lines = append(lines, s.messages.Encouragement())
	}
	return lines
}

// clarityScore rewards a pitch excursion proportional to the speaker's
// register, scaled by confidence.
func clarityScore(a Analysis) float64 {
	if len(a.Contour) == 0 || a.AverageFrequency <= 0 {
		return 0
	}
	excursion := a.PitchRange.Max - a.PitchRange.Min
	return min(1, excursion/(a.AverageFrequency*clarityRegister)*a.Confidence)
}

func timingScore(samples int, d float64) float64 {
	switch {
	case samples == 0:
		return 0
	case d < minDuration:
		return d / minDuration
	case d <= maxDuration:
		return 1
	default:
		return max(slowFloor, 1-(d-maxDuration)*slowDecay)
	}
}

// percent converts a [0, 1] component to a rounded integer percentage.
func percent(v float64) int {
	return int(math.Round(max(0, min(1, v)) * 100))
}

// Overall combines rounded component percentages 50/30/20, rounding half up.
func Overall(toneAcc, clarity, timing int) int {
	return (toneWeight*toneAcc + clarityWeight*clarity + timingWeight*timing + 5) / 10
}
