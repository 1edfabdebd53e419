// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tonecoach/internal/log"
	"tonecoach/pkg/bitint"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Live      LiveConfig      `yaml:"live"`
	Recording RecordingConfig `yaml:"recording"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Transport TransportConfig `yaml:"transport"`
	History   HistoryConfig   `yaml:"history"`
}

// AudioConfig holds the capture device settings.
type AudioConfig struct {
	InputDevice      int           `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate       float64       `yaml:"sample_rate"`       // Capture rate in Hz.
	InputChannels    int           `yaml:"input_channels"`    // Only mono capture is supported.
	FramesPerBuffer  int           `yaml:"frames_per_buffer"` // Frames delivered per stream callback.
	LowLatency       bool          `yaml:"low_latency"`       // Request the device's low input latency.
	EchoCancellation bool          `yaml:"echo_cancellation"`
	NoiseSuppression bool          `yaml:"noise_suppression"`
	AutoGainControl  bool          `yaml:"auto_gain_control"`
	MaxDuration      time.Duration `yaml:"max_duration"` // 0 for unlimited.
}

// AnalysisConfig tunes pitch extraction and tone classification.
type AnalysisConfig struct {
	WindowSize           int     `yaml:"window_size"`
	HopSize              int     `yaml:"hop_size"`
	SilenceThreshold     float64 `yaml:"silence_threshold"`     // RMS below which a window is skipped.
	CorrelationThreshold float64 `yaml:"correlation_threshold"` // Minimum correlation for a pitch candidate.
	Classifier           string  `yaml:"classifier"`            // "segment" or "dtw".
}

// LiveConfig holds settings for the live spectrum shown while recording.
type LiveConfig struct {
	FFTSize     int     `yaml:"fft_size"`
	FFTWindow   string  `yaml:"fft_window"`
	Smoothing   float64 `yaml:"smoothing"`
	MinDecibels float64 `yaml:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels"`
}

// RecordingConfig controls saving captured attempts to disk.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"`
}

// FeedbackConfig selects the feedback message catalogue.
type FeedbackConfig struct {
	Language  string `yaml:"language"`
	Catalogue string `yaml:"catalogue"` // Optional TOML file replacing the built-in messages.
}

// TransportConfig holds settings for publishing live snapshots and scores.
type TransportConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	LogEnabled       bool          `yaml:"log_enabled"`
}

// HistoryConfig controls the score history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:      DefaultDeviceID,
			SampleRate:       DefaultSampleRate,
			InputChannels:    DefaultChannels,
			FramesPerBuffer:  DefaultFramesPerBuffer,
			EchoCancellation: true,
			NoiseSuppression: true,
			AutoGainControl:  true,
		},
		Analysis: AnalysisConfig{
			WindowSize:           DefaultWindowSize,
			HopSize:              DefaultHopSize,
			SilenceThreshold:     DefaultSilenceThreshold,
			CorrelationThreshold: DefaultCorrelationThreshold,
			Classifier:           DefaultClassifier,
		},
		Live: LiveConfig{
			FFTSize:     DefaultFFTSize,
			FFTWindow:   DefaultFFTWindow,
			Smoothing:   DefaultSmoothing,
			MinDecibels: DefaultMinDecibels,
			MaxDecibels: DefaultMaxDecibels,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultRecordingBitDepth,
		},
		Feedback: FeedbackConfig{
			Language: DefaultLanguage,
		},
		Transport: TransportConfig{
			SnapshotInterval: DefaultSnapshotIntervalMs * time.Millisecond,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
		History: HistoryConfig{
			Path: DefaultHistoryPath,
		},
	}
}

// configCandidates are searched in order when LoadConfig is given no path.
var configCandidates = []string{"config.yaml", "tonecoach.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, the default locations are searched and the built-in defaults are used
// when none exists. Environment overrides are applied last, then the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range configCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("Config: loaded %s", path)
	}

	cfg.applyEnvOverrides()
	cfg.roundFFTSize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not recognised", c.LogLevel))
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d", MinDeviceID))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if a.InputChannels != 1 {
		errs = append(errs, fmt.Errorf("audio.input_channels must be 1, got %d", a.InputChannels))
	}
	if a.FramesPerBuffer <= 0 {
		errs = append(errs, errors.New("audio.frames_per_buffer must be positive"))
	}
	if a.MaxDuration < 0 {
		errs = append(errs, errors.New("audio.max_duration must not be negative"))
	}

	an := c.Analysis
	if an.WindowSize < 4 {
		errs = append(errs, fmt.Errorf("analysis.window_size %d is too small", an.WindowSize))
	}
	if an.HopSize <= 0 || an.HopSize > an.WindowSize {
		errs = append(errs, fmt.Errorf("analysis.hop_size must be in [1, window_size], got %d", an.HopSize))
	}
	if an.SilenceThreshold < 0 {
		errs = append(errs, errors.New("analysis.silence_threshold must not be negative"))
	}
	if an.CorrelationThreshold <= 0 || an.CorrelationThreshold >= 1 {
		errs = append(errs, fmt.Errorf("analysis.correlation_threshold must be in (0, 1), got %g", an.CorrelationThreshold))
	}
	switch strings.ToLower(an.Classifier) {
	case ClassifierSegment, ClassifierDTW:
	default:
		errs = append(errs, fmt.Errorf("analysis.classifier %q is not one of %q, %q", an.Classifier, ClassifierSegment, ClassifierDTW))
	}

	l := c.Live
	if !bitint.IsPowerOfTwo(l.FFTSize) || l.FFTSize > MaxFFTSize {
		errs = append(errs, fmt.Errorf("live.fft_size %d must be a power of two <= %d", l.FFTSize, MaxFFTSize))
	}
	if l.Smoothing < 0 || l.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("live.smoothing must be in [0, 1), got %g", l.Smoothing))
	}
	if l.MinDecibels >= l.MaxDecibels {
		errs = append(errs, errors.New("live.min_decibels must be below live.max_decibels"))
	}

	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 8, 16, 24, 32:
		default:
			errs = append(errs, fmt.Errorf("recording.bit_depth %d is not supported", c.Recording.BitDepth))
		}
		if c.Recording.OutputDir == "" {
			errs = append(errs, errors.New("recording.output_dir must be set when recording is enabled"))
		}
	}

	if c.Feedback.Language == "" {
		errs = append(errs, errors.New("feedback.language must be set"))
	}

	t := c.Transport
	if t.WebSocketEnabled || t.UDPEnabled || t.LogEnabled {
		if t.SnapshotInterval <= 0 {
			errs = append(errs, errors.New("transport.snapshot_interval must be positive"))
		}
	}
	if t.WebSocketEnabled && !strings.Contains(t.WebSocketAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.websocket_address %q appears invalid (missing port?)", t.WebSocketAddress))
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path must be set when history is enabled"))
	}

	return errors.Join(errs...)
}

// roundFFTSize rounds a positive live.fft_size up to the next power of two.
func (c *Config) roundFFTSize() {
	if n := c.Live.FFTSize; n > 0 && !bitint.IsPowerOfTwo(n) {
		c.Live.FFTSize = bitint.NextPowerOfTwo(n)
		log.Warnf("Config: live.fft_size %d is not a power of two, using %d", n, c.Live.FFTSize)
	}
}

// applyEnvOverrides lets ENV_* variables override file values.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
			log.Debugf("Config: overriding debug from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = n
			log.Debugf("Config: overriding audio.input_device from env: %d", n)
		}
	}
	if val, ok := os.LookupEnv("ENV_CLASSIFIER"); ok {
		c.Analysis.Classifier = strings.ToLower(val)
	}
	if val, ok := os.LookupEnv("ENV_LANGUAGE"); ok {
		c.Feedback.Language = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocketEnabled = b
		}
	}
	if val, ok := os.LookupEnv("ENV_SNAPSHOT_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.SnapshotInterval = d
		}
	}
	if val, ok := os.LookupEnv("ENV_HISTORY_PATH"); ok {
		c.History.Path = val
		c.History.Enabled = val != ""
	}
}
