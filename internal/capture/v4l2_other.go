//go:build !linux || !(amd64 || arm64)

package capture

import (
	"errors"
	"time"
)

// PathResolver maps a camera index to its device node.
type PathResolver interface {
	CameraPath(index int) (string, error)
}

// V4L2Opener is unavailable on this platform; Open always fails.
type V4L2Opener struct {
	Resolver     PathResolver
	FrameTimeout time.Duration
	Buffers      int
}

// Open implements Opener.
func (o *V4L2Opener) Open(int, Resolution) (Device, error) {
	return nil, errors.New("v4l2 capture is only supported on 64-bit linux")
}
