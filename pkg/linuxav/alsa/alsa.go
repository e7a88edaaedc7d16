//go:build linux && (amd64 || arm64)

// Package alsa provides pure Go bindings to the ALSA kernel interface for
// PCM device enumeration and interleaved read/write streaming.
//
// This package does not use cgo and talks to /dev/snd directly, so the
// "default" and plugin devices of alsa-lib are not available; devices are
// addressed as hw:CARD,DEVICE.
//
// # Device Enumeration
//
//	inputs, _ := alsa.ListDevices(alsa.StreamCapture)
//	outputs, _ := alsa.ListDevices(alsa.StreamPlayback)
//
// # Streaming
//
//	pcm, err := alsa.OpenPCM(0, 0, alsa.StreamCapture, alsa.HwParams{Rate: 44100, Channels: 1, PeriodFrames: 512})
//	buf := make([]float32, pcm.PeriodFrames())
//	n, err := pcm.ReadFloat32(buf)
package alsa
