//go:build !linux || !(amd64 || arm64)

package devices

import "errors"

// SystemEnumerator has nothing to enumerate on this platform.
type SystemEnumerator struct{}

// Enumerate implements Enumerator.
func (SystemEnumerator) Enumerate() (Snapshot, error) {
	return Snapshot{}, errors.New("device enumeration is only supported on 64-bit linux")
}

// Describe implements Describer.
func (SystemEnumerator) Describe(string) (CameraDetails, error) {
	return CameraDetails{}, ErrNotSupported
}

// CameraPathByID is unsupported on this platform.
func (SystemEnumerator) CameraPathByID(string) (string, error) {
	return "", ErrNotSupported
}
