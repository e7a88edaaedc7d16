//go:build linux && (amd64 || arm64)

package alsa

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ListDevices returns all PCM devices that support the given stream
// direction, in card then device order.
func ListDevices(stream int) ([]Device, error) {
	var devices []Device

	for cardNum := 0; ; cardNum++ {
		ctlPath := fmt.Sprintf("/dev/snd/controlC%d", cardNum)
		ctlFd, err := unix.Open(ctlPath, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			if os.IsNotExist(err) {
				break // No more cards
			}
			continue
		}
		devices = append(devices, listCardDevices(ctlFd, cardNum, stream)...)
		unix.Close(ctlFd)
	}

	return devices, nil
}

func listCardDevices(ctlFd, cardNum, stream int) []Device {
	cardInfo := sndCtlCardInfo{}
	if err := ioctl(ctlFd, sndrvCtlIoctlCardInfo, unsafe.Pointer(&cardInfo)); err != nil {
		return nil
	}

	var devices []Device
	deviceNum := int32(-1)
	for {
		if err := ioctl(ctlFd, sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&deviceNum)); err != nil || deviceNum < 0 {
			return devices
		}

		pcmInfo := sndPCMInfo{device: uint32(deviceNum), stream: int32(stream)}
		if err := ioctl(ctlFd, sndrvCtlIoctlPCMInfo, unsafe.Pointer(&pcmInfo)); err != nil {
			continue // Device doesn't support this direction
		}

		device := Device{
			CardNumber:   cardNum,
			CardID:       cstr(cardInfo.id[:]),
			CardName:     cstr(cardInfo.longname[:]),
			DeviceNumber: int(deviceNum),
			DeviceName:   cstr(pcmInfo.name[:]),
			Stream:       stream,
			Type:         StreamName(stream),
			ALSADevice:   FormatALSADevice(cardNum, int(deviceNum)),
		}

		if caps, err := queryCapabilities(cardNum, int(deviceNum), stream); err == nil {
			device.SupportedRates = caps.rates
			device.MinChannels = caps.minChannels
			device.MaxChannels = caps.maxChannels
			device.SupportedFormats = caps.formats
			device.MinBufferSize = caps.minBufferSize
			device.MaxBufferSize = caps.maxBufferSize
			device.MinPeriodSize = caps.minPeriodSize
			device.MaxPeriodSize = caps.maxPeriodSize
		}

		devices = append(devices, device)
	}
}

type capabilities struct {
	rates         []int
	minChannels   int
	maxChannels   int
	formats       []string
	minBufferSize int
	maxBufferSize int
	minPeriodSize int
	maxPeriodSize int
}

// queryCapabilities refines an unconstrained hw_params against the device.
// A busy device fails to open and simply reports no capabilities.
func queryCapabilities(cardNum, deviceNum, stream int) (*capabilities, error) {
	fd, err := unix.Open(pcmPath(cardNum, deviceNum, stream), unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	hw := sndPCMHwParams{}
	hw.init()
	hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)
	if err := ioctl(fd, sndrvPCMIoctlHwRefine, unsafe.Pointer(&hw)); err != nil {
		return nil, err
	}

	caps := &capabilities{}

	minCh, maxCh := hw.getInterval(sndrvPCMHwParamChannels)
	caps.minChannels = int(minCh)
	caps.maxChannels = int(maxCh)

	minRate, maxRate := hw.getInterval(sndrvPCMHwParamRate)
	for _, rate := range CommonSampleRates {
		if uint32(rate) >= minRate && uint32(rate) <= maxRate {
			caps.rates = append(caps.rates, rate)
		}
	}

	for _, format := range CommonFormats {
		if hw.checkMask(sndrvPCMHwParamFormat, uint32(format)) {
			caps.formats = append(caps.formats, FormatName(format))
		}
	}

	minBuf, maxBuf := hw.getInterval(sndrvPCMHwParamBufferSize)
	caps.minBufferSize = int(minBuf)
	caps.maxBufferSize = int(maxBuf)

	minPer, maxPer := hw.getInterval(sndrvPCMHwParamPeriodSize)
	caps.minPeriodSize = int(minPer)
	caps.maxPeriodSize = int(maxPer)

	return caps, nil
}

func pcmPath(cardNum, deviceNum, stream int) string {
	suffix := "p"
	if stream == StreamCapture {
		suffix = "c"
	}
	return fmt.Sprintf("/dev/snd/pcmC%dD%d%s", cardNum, deviceNum, suffix)
}
