// SPDX-License-Identifier: MIT
package analysis

import "math"

// BandLevel is the mean power of one frequency band in dB.
type BandLevel struct {
	Name    string  `json:"name"`
	LowHz   float64 `json:"low_hz"`
	HighHz  float64 `json:"high_hz"`
	Decibel float64 `json:"db"`
}

// VoiceBands split the spectrum where a speaking voice has its energy: the
// pitch fundamental, the first formants, and consonant presence.
var VoiceBands = []BandLevel{
	{Name: "pitch", LowHz: 70, HighHz: 400},
	{Name: "formant", LowHz: 400, HighHz: 2000},
	{Name: "presence", LowHz: 2000, HighHz: 5000},
}

// silenceDecibel is reported for bands with no energy or no bins.
const silenceDecibel = -120.0

// BandMeter summarises a SpectrumProvider into band levels.
type BandMeter struct {
	provider SpectrumProvider
	bands    []BandLevel
}

// NewBandMeter returns a meter over bands, or VoiceBands when bands is nil.
func NewBandMeter(provider SpectrumProvider, bands []BandLevel) *BandMeter {
	if bands == nil {
		bands = VoiceBands
	}
	return &BandMeter{provider: provider, bands: bands}
}

// Measure returns the current level of every band.
func (m *BandMeter) Measure() []BandLevel {
	mags := m.provider.Magnitudes()
	out := make([]BandLevel, len(m.bands))
	copy(out, m.bands)

	for i := range out {
		var power float64
		bins := 0
		for bin, mag := range mags {
			freq := m.provider.FrequencyForBin(bin)
			if freq >= out[i].LowHz && freq < out[i].HighHz {
				power += mag * mag
				bins++
			}
		}
		out[i].Decibel = silenceDecibel
		if bins > 0 && power > 0 {
			out[i].Decibel = max(silenceDecibel, 10*math.Log10(power/float64(bins)))
		}
	}
	return out
}
