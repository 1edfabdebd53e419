// SPDX-License-Identifier: MIT

// Package feedback holds the localised lines attached to pronunciation
// scores. Messages live in a TOML catalogue; a built-in copy is embedded and
// can be replaced by a file on disk.
package feedback

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"tonecoach/internal/log"
	"tonecoach/internal/tone"
)

// FallbackLanguage is used for any key the selected locale lacks.
const FallbackLanguage = "en"

//go:embed messages.toml
var builtin string

// Messages is one locale's set of feedback lines.
type Messages struct {
	Praise         string            `toml:"praise"`
	Articulation   string            `toml:"articulation"`
	TooFast        string            `toml:"too_fast"`
	TooSlow        string            `toml:"too_slow"`
	Encouragement  string            `toml:"encouragement"`
	AnalysisFailed string            `toml:"analysis_failed"`
	ToneHints      map[string]string `toml:"tone_hints"`
}

// Catalogue resolves feedback lines for one language.
type Catalogue struct {
	lang     string
	selected Messages
	fallback Messages
}

// Parse decodes a catalogue document into its locales.
func Parse(doc string) (map[string]Messages, error) {
	locales := make(map[string]Messages)
	md, err := toml.Decode(doc, &locales)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feedback catalogue: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warnf("Feedback: ignoring unknown catalogue keys %v", undecoded)
	}
	return locales, nil
}

// Default returns the built-in English catalogue.
func Default() *Catalogue {
	c, err := Load(FallbackLanguage, "")
	if err != nil {
		panic(fmt.Sprintf("feedback: built-in catalogue is invalid: %v", err))
	}
	return c
}

// Load builds a catalogue for lang. When path is non-empty the file's
// locales are layered over the built-in ones, so keys the file leaves out
// keep their built-in text. Unknown languages fall back to English with a
// warning.
func Load(lang, path string) (*Catalogue, error) {
	locales, err := Parse(builtin)
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback catalogue: %w", err)
		}
		overrides, err := Parse(string(data))
		if err != nil {
			return nil, err
		}
		for name, m := range overrides {
			locales[name] = locales[name].overlay(m)
		}
		log.Debugf("Feedback: loaded %d locale(s) from %s", len(overrides), path)
	}

	fallback, ok := locales[FallbackLanguage]
	if !ok {
		return nil, fmt.Errorf("feedback catalogue has no %q locale", FallbackLanguage)
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	selected, ok := locales[lang]
	if !ok {
		log.Warnf("Feedback: no %q locale, using %q", lang, FallbackLanguage)
		lang, selected = FallbackLanguage, fallback
	}

	return &Catalogue{lang: lang, selected: selected, fallback: fallback}, nil
}

// overlay returns m with every non-empty line of o replacing its own.
func (m Messages) overlay(o Messages) Messages {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&m.Praise, o.Praise)
	set(&m.Articulation, o.Articulation)
	set(&m.TooFast, o.TooFast)
	set(&m.TooSlow, o.TooSlow)
	set(&m.Encouragement, o.Encouragement)
	set(&m.AnalysisFailed, o.AnalysisFailed)

	hints := make(map[string]string, len(m.ToneHints)+len(o.ToneHints))
	maps.Copy(hints, m.ToneHints)
	for k, v := range o.ToneHints {
		if v != "" {
			hints[k] = v
		}
	}
	m.ToneHints = hints
	return m
}

// Language returns the locale actually in use.
func (c *Catalogue) Language() string {
	return c.lang
}

func (c *Catalogue) pick(selected, fallback string) string {
	if selected != "" {
		return selected
	}
	return fallback
}

// ToneHint returns the correction hint for producing t.
func (c *Catalogue) ToneHint(t tone.Tone) string {
	key := t.String()
	return c.pick(c.selected.ToneHints[key], c.fallback.ToneHints[key])
}

// Praise is shown when the tone was produced well.
func (c *Catalogue) Praise() string {
	return c.pick(c.selected.Praise, c.fallback.Praise)
}

// Articulation asks for clearer pitch movement.
func (c *Catalogue) Articulation() string {
	return c.pick(c.selected.Articulation, c.fallback.Articulation)
}

// TooFast asks the learner to lengthen the syllable.
func (c *Catalogue) TooFast() string {
	return c.pick(c.selected.TooFast, c.fallback.TooFast)
}

// TooSlow asks the learner to say the syllable more briskly.
func (c *Catalogue) TooSlow() string {
	return c.pick(c.selected.TooSlow, c.fallback.TooSlow)
}

// Encouragement is shown when no other line applies.
func (c *Catalogue) Encouragement() string {
	return c.pick(c.selected.Encouragement, c.fallback.Encouragement)
}

// AnalysisFailed is the single line of a failed evaluation.
func (c *Catalogue) AnalysisFailed() string {
	return c.pick(c.selected.AnalysisFailed, c.fallback.AnalysisFailed)
}
