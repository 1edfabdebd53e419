// SPDX-License-Identifier: MIT

// Package tone classifies pitch contours into the five Thai lexical tones
// and scores how confidently a contour fits its class.
package tone

import (
	"fmt"
	"strings"
)

// Tone is a Thai lexical tone. The zero value None means "no target".
type Tone uint8

const (
	None Tone = iota
	Middle
	Low
	Falling
	High
	Rising
)

// All lists the five tones in their conventional order.
var All = []Tone{Middle, Low, Falling, High, Rising}

var toneNames = map[Tone]string{
	None:    "none",
	Middle:  "middle",
	Low:     "low",
	Falling: "falling",
	High:    "high",
	Rising:  "rising",
}

// Thai tone names, plus a few common English aliases.
var toneAliases = map[string]Tone{
	"mid":   Middle,
	"สามัญ": Middle,
	"เอก":   Low,
	"โท":    Falling,
	"ตรี":   High,
	"จัตวา": Rising,
}

func (t Tone) String() string {
	if name, ok := toneNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tone(%d)", uint8(t))
}

// Valid reports whether t is one of the five tones.
func (t Tone) Valid() bool {
	return t >= Middle && t <= Rising
}

// Parse converts an English or Thai tone name. The empty string and "none"
// parse to None.
func Parse(s string) (Tone, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return None, nil
	}
	for t, name := range toneNames {
		if key == name {
			return t, nil
		}
	}
	if t, ok := toneAliases[key]; ok {
		return t, nil
	}
	return None, fmt.Errorf("unknown tone %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tone) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
