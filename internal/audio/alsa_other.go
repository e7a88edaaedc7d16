//go:build !linux || !(amd64 || arm64)

package audio

import (
	"errors"
	"log/slog"
)

// DeviceResolver maps mic indices and the default output to hw:CARD,DEVICE.
type DeviceResolver interface {
	MicDevice(index int) (string, error)
	DefaultOutput() (string, error)
}

// ALSABackend is unavailable on this platform.
type ALSABackend struct {
	Resolver DeviceResolver
	Output   string
	Logger   *slog.Logger
}

// OpenDuplex always fails here.
func (b *ALSABackend) OpenDuplex(int, StreamConfig, Callback) (Stream, error) {
	return nil, errors.New("alsa audio is only supported on 64-bit linux")
}
