// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tonecoach/internal/audio"
	"tonecoach/internal/tui"
)

func (a *app) newDevicesCommand() *cobra.Command {
	var pick bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			if !pick {
				return audio.ListDevices(cmd.OutOrStdout())
			}

			sel, ok, err := tui.PickDevice()
			if err != nil || !ok {
				return err
			}
			snippet, err := deviceSnippet(sel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s. Add this to your config file:\n\n%s", sel.Name, snippet)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "Choose an input device interactively")
	return cmd
}

type audioSelection struct {
	InputDevice int     `yaml:"input_device"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// deviceSnippet renders the audio section selecting sel.
func deviceSnippet(sel tui.Selection) (string, error) {
	out, err := yaml.Marshal(map[string]audioSelection{
		"audio": {InputDevice: sel.DeviceID, SampleRate: sel.SampleRate},
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
