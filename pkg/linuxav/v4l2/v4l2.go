//go:build linux && (amd64 || arm64)

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, format negotiation and memory-mapped frame capture.
//
// This package does not use cgo.
//
// # Device Enumeration
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%d %s: %s\n", dev.Index, dev.DevicePath, dev.DeviceName)
//	}
//
// # Capture
//
// A Stream owns one open device node. The requested size is a hint; drivers
// clamp it to something they support, so always read back Format():
//
//	s, err := v4l2.OpenStream("/dev/video0", v4l2.StreamOptions{Width: 896, Height: 504})
//	defer s.Close()
//	f := s.Format()
//	buf := make([]byte, f.SizeImage)
//	n, err := s.ReadFrame(buf, 100*time.Millisecond)
package v4l2
