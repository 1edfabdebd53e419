// SPDX-License-Identifier: MIT
package config

// Defaults and hard limits for the capture and analysis pipeline. The YAML
// loader starts from these values before reading any file.
const (
	DefaultDeviceID        = MinDeviceID
	DefaultSampleRate      = 44100
	DefaultChannels        = 1
	DefaultFramesPerBuffer = 512
	DefaultLogLevel        = "info"

	DefaultWindowSize           = 2048
	DefaultHopSize              = 512
	DefaultSilenceThreshold     = 0.01
	DefaultCorrelationThreshold = 0.9
	DefaultClassifier           = ClassifierSegment

	DefaultFFTSize     = 2048
	DefaultFFTWindow   = "Blackman"
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	DefaultRecordingDir      = "./recordings"
	DefaultRecordingBitDepth = 16

	DefaultLanguage = "en"

	DefaultSnapshotIntervalMs = 50
	DefaultWebSocketAddress   = "127.0.0.1:8080"
	DefaultUDPTargetAddress   = "127.0.0.1:9090"

	DefaultHistoryPath = "tonecoach.db"

	MinDeviceID   = -1     // -1 selects the host default input
	MinSampleRate = 8000   // Hz
	MaxSampleRate = 192000 // Hz
	MaxFFTSize    = 16384
)

// Tone classifier names accepted by analysis.classifier.
const (
	ClassifierSegment = "segment"
	ClassifierDTW     = "dtw"
)
