// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("input device unavailable")
	ErrNotRecording      = errors.New("session is not recording")
	ErrDecodeFailed      = errors.New("audio decode failed")
)

// mapError folds PortAudio and host failures into the package sentinels so
// callers can use errors.Is. Errors that already carry a sentinel, or that
// match none, are wrapped with op and returned as is.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDeviceUnavailable) || errors.Is(err, ErrPermissionDenied) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var paErr portaudio.Error
	if errors.As(err, &paErr) {
		switch paErr {
		case portaudio.DeviceUnavailable, portaudio.InvalidDevice, portaudio.NoDefaultInputDevice:
			return fmt.Errorf("%s: %w: %v", op, ErrDeviceUnavailable, err)
		}
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "denied", "not permitted"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
