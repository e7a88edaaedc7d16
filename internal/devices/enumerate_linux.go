//go:build linux && (amd64 || arm64)

package devices

import (
	"github.com/smazurov/vitaview/pkg/linuxav/alsa"
	"github.com/smazurov/vitaview/pkg/linuxav/v4l2"
)

// SystemEnumerator reads V4L2 nodes from sysfs and PCMs from /dev/snd.
type SystemEnumerator struct{}

// Enumerate implements Enumerator.
func (SystemEnumerator) Enumerate() (Snapshot, error) {
	var snap Snapshot

	cams, err := v4l2.FindDevices()
	if err != nil {
		return snap, err
	}
	for i, c := range cams {
		snap.Cameras = append(snap.Cameras, Camera{Index: i, Path: c.DevicePath, Name: c.DeviceName, ID: c.DeviceID})
	}

	if snap.Mics, err = listPCMs(alsa.StreamCapture); err != nil {
		return snap, err
	}
	if snap.Outputs, err = listPCMs(alsa.StreamPlayback); err != nil {
		return snap, err
	}
	return snap, nil
}

func listPCMs(stream int) ([]PCM, error) {
	devs, err := alsa.ListDevices(stream)
	if err != nil {
		return nil, err
	}
	pcms := make([]PCM, len(devs))
	for i, d := range devs {
		pcms[i] = PCM{Index: i, Device: d.ALSADevice, Card: d.CardName, Name: d.DeviceName}
	}
	return pcms, nil
}

// Describe implements Describer. HDMI cards also report their DV timings.
func (SystemEnumerator) Describe(path string) (CameraDetails, error) {
	st := v4l2.GetDeviceStatus(path)
	details := CameraDetails{Type: st.DeviceType.String(), Ready: st.Ready}
	if st.DeviceType == v4l2.DeviceTypeHDMI {
		sig := v4l2.GetDVTimings(path)
		details.Signal = &Signal{State: sig.State.String(), Width: sig.Width, Height: sig.Height, FPS: sig.FPS}
	}

	formats, err := v4l2.GetFormats(path)
	if err != nil {
		return details, err
	}
	for _, f := range formats {
		format := Format{FourCC: v4l2.FormatFourCC(f.PixelFormat), Name: f.FormatName, Emulated: f.Emulated}
		sizes, err := v4l2.GetResolutions(path, f.PixelFormat)
		if err != nil {
			return details, err
		}
		for _, s := range sizes {
			size := FrameSize{Width: s.Width, Height: s.Height}
			rates, err := v4l2.GetFramerates(path, f.PixelFormat, s.Width, s.Height)
			if err != nil {
				return details, err
			}
			for _, r := range rates {
				size.FPS = append(size.FPS, r.FPS())
			}
			format.Sizes = append(format.Sizes, size)
		}
		details.Formats = append(details.Formats, format)
	}
	return details, nil
}

// CameraPathByID resolves a stable /dev/v4l/by-id name to its node.
func (SystemEnumerator) CameraPathByID(id string) (string, error) {
	return v4l2.GetDevicePathByID(id)
}
