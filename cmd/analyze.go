// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tonecoach/internal/audio"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tui"
)

type attemptOptions struct {
	target string
	tone   string
}

func (o *attemptOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.target, "target", "t", "", "Word or syllable being practised")
	cmd.Flags().StringVar(&o.tone, "tone", "", "Expected tone (middle, low, falling, high, rising or the Thai name)")
}

// analysisReport is the --json output.
type analysisReport struct {
	Target   string           `json:"target,omitempty"`
	Score    scoring.Score    `json:"score"`
	Analysis scoring.Analysis `json:"analysis"`
}

func (a *app) newAnalyzeCommand() *cobra.Command {
	var (
		opts   attemptOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Score a recorded WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := parseTone(opts.tone)
			if err != nil {
				return err
			}
			buf, err := audio.LoadWAV(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(a.cfg)
			if err != nil {
				return err
			}
			defer s.close()

			score, analysis := s.engine.Evaluate(buf, opts.target, expected)
			s.publishScore(opts.target, expected, score, analysis)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analysisReport{Target: opts.target, Score: score, Analysis: analysis})
			}
			_, err = fmt.Fprintln(out, tui.RenderScore(opts.target, expected, score, analysis))
			return err
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the score and analysis as JSON")
	return cmd
}
