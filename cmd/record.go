// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tonecoach/internal/audio"
	"tonecoach/internal/config"
	"tonecoach/internal/tui"
)

func (a *app) newRecordCommand() *cobra.Command {
	var (
		opts     attemptOptions
		duration time.Duration
		deviceID int
		save     string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one attempt from the microphone and score it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := parseTone(opts.tone)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				a.cfg.Audio.InputDevice = deviceID
			}
			if duration > 0 {
				a.cfg.Audio.MaxDuration = duration
			}

			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			s, err := openSession(a.cfg)
			if err != nil {
				return err
			}
			defer s.close()

			capture, err := s.engine.StartCapture()
			if err != nil {
				return err
			}
			if s.publisher != nil {
				s.publisher.Start(capture)
			}

			cancelled, err := tui.RunRecorder(opts.target, func() (*audio.LiveSnapshot, bool) {
				return s.engine.LiveSnapshot(capture)
			}, a.cfg.Audio.MaxDuration, a.cfg.Transport.SnapshotInterval)
			if s.publisher != nil {
				s.publisher.Stop()
			}
			if err != nil || cancelled {
				s.engine.ReleaseCapture(capture)
				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Attempt cancelled.")
				}
				return err
			}

			buf, err := s.engine.StopCapture(capture)
			if err != nil {
				return err
			}

			score, analysis := s.engine.Evaluate(buf, opts.target, expected)
			s.publishScore(opts.target, expected, score, analysis)

			if path := recordingPath(a.cfg.Recording, save, capture.StartedAt); path != "" {
				if err := audio.SaveWAV(path, buf, a.cfg.Recording.BitDepth); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording saved to: %s\n", path)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderScore(opts.target, expected, score, analysis))
			return err
		},
	}
	opts.register(cmd)
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop automatically after this long (default: audio.max_duration)")
	cmd.Flags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	cmd.Flags().StringVarP(&save, "save", "o", "", "Save the attempt to this WAV file")
	return cmd
}

// recordingPath resolves where to save an attempt. An explicit path always
// wins. Otherwise a timestamped file is written only when recording is
// enabled in config.
func recordingPath(rc config.RecordingConfig, explicit string, started time.Time) string {
	if explicit != "" {
		return explicit
	}
	if !rc.Enabled {
		return ""
	}
	return filepath.Join(rc.OutputDir, "attempt-"+started.UTC().Format("02-01-2006-150405")+".wav")
}
