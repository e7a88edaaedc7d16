//go:build linux && (amd64 || arm64)

package v4l2

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// GetDeviceStatus returns the combined device type and ready status.
// HDMI capture cards answer VIDIOC_G_DV_TIMINGS; they are only ready
// when the source is locked.
func GetDeviceStatus(devicePath string) DeviceStatus {
	status := DeviceStatus{DeviceType: DeviceTypeUnknown}

	fd, err := open(devicePath)
	if err != nil {
		return status
	}
	defer closeFd(fd)

	cap := v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		return status
	}

	timings := v4l2DVTimings{}
	err = ioctl(fd, vidiocGDVTimings, unsafe.Pointer(&timings))
	if err == nil || errors.Is(err, unix.ENOLINK) || errors.Is(err, unix.ENOLCK) {
		status.DeviceType = DeviceTypeHDMI
		status.Ready = err == nil && timings.width() > 0 && timings.height() > 0 && timings.pixelclock() > 0
		return status
	}

	if cstr(cap.driver[:]) == "uvcvideo" {
		status.DeviceType = DeviceTypeWebcam
	}
	status.Ready = true
	return status
}

// GetDVTimings returns the current DV timings and signal status for HDMI devices.
func GetDVTimings(devicePath string) SignalStatus {
	status := SignalStatus{State: SignalStateNoDevice}

	fd, err := open(devicePath)
	if err != nil {
		return status
	}
	defer closeFd(fd)

	timings := v4l2DVTimings{}
	err = ioctl(fd, vidiocGDVTimings, unsafe.Pointer(&timings))
	if err == nil {
		if timings.width() > 0 && timings.height() > 0 && timings.pixelclock() > 0 {
			status.State = SignalStateLocked
			status.Width = timings.width()
			status.Height = timings.height()
			status.FPS = calculateFPS(&timings)
			status.Interlaced = timings.interlaced()
		} else {
			status.State = SignalStateNoSignal
		}
		return status
	}

	status.State = signalStateFromErrno(err)
	return status
}

func signalStateFromErrno(err error) SignalState {
	switch {
	case errors.Is(err, unix.ENOLINK):
		return SignalStateNoLink
	case errors.Is(err, unix.ENOLCK):
		return SignalStateUnstable
	case errors.Is(err, unix.ERANGE):
		return SignalStateOutOfRange
	case errors.Is(err, unix.ENOTTY):
		return SignalStateNotSupported
	default:
		return SignalStateNoSignal
	}
}

func calculateFPS(t *v4l2DVTimings) float64 {
	clock := t.pixelclock()
	if clock == 0 {
		return 0
	}
	totalWidth, totalHeight := t.totals()
	if t.interlaced() {
		totalHeight /= 2
	}
	if totalWidth == 0 || totalHeight == 0 {
		return 0
	}
	return float64(clock) / float64(totalWidth*totalHeight)
}

func (s SignalState) String() string {
	switch s {
	case SignalStateNoDevice:
		return "no_device"
	case SignalStateNoLink:
		return "no_link"
	case SignalStateNoSignal:
		return "no_signal"
	case SignalStateUnstable:
		return "unstable"
	case SignalStateLocked:
		return "locked"
	case SignalStateOutOfRange:
		return "out_of_range"
	case SignalStateNotSupported:
		return "not_supported"
	default:
		return "unknown"
	}
}
