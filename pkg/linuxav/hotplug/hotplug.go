//go:build linux

// Package hotplug listens for kernel uevents on a netlink socket so the
// viewer can notice capture cards and audio interfaces coming and going.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"

	"golang.org/x/sys/unix"
)

// Uevent actions the viewer reacts to. Others are passed through verbatim.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
)

// Subsystems carrying capture and PCM nodes.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemSound       = "sound"
)

const (
	netlinkKobjectUEvent = 15
	kernelGroup          = 1
	pollInterval         = 250 // ms
)

// Event is one parsed kernel uevent.
type Event struct {
	Action    string
	KObj      string
	Subsystem string
	DevName   string // relative to /dev, e.g. "video0" or "snd/pcmC1D0c"
	Env       map[string]string
}

// Node returns the /dev path of the event's device node, or "" when the
// uevent is not about a node (e.g. a sound card kobject).
func (e Event) Node() string {
	if e.DevName == "" {
		return ""
	}
	return path.Join("/dev", e.DevName)
}

// Monitor reads uevents from the kernel broadcast group.
type Monitor struct {
	fd         int
	subsystems []string
}

// NewMonitor opens the netlink socket. With no subsystems given every
// event is delivered.
func NewMonitor(subsystems ...string) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, netlinkKobjectUEvent)
	if err != nil {
		return nil, fmt.Errorf("netlink socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: kernelGroup}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netlink bind: %w", err)
	}
	return &Monitor{fd: fd, subsystems: subsystems}, nil
}

// Close releases the socket.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers matching events until ctx is done. The channel is closed on return.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	buf := make([]byte, 16384)
	fds := []unix.PollFd{{Fd: int32(m.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, pollInterval)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll netlink: %w", err)
		}
		if n == 0 {
			continue
		}

		n, _, err = unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) || errors.Is(err, unix.ENOBUFS) {
				continue
			}
			return fmt.Errorf("read netlink: %w", err)
		}

		ev, ok := Parse(buf[:n])
		if !ok || !m.wants(ev.Subsystem) {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) wants(subsystem string) bool {
	return len(m.subsystems) == 0 || slices.Contains(m.subsystems, subsystem)
}

// Parse decodes a kernel uevent datagram of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". Messages re-broadcast by udev carry a
// binary "libudev" header and are rejected.
func Parse(data []byte) (Event, bool) {
	if bytes.HasPrefix(data, []byte("libudev")) {
		return Event{}, false
	}

	fields := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})
	action, kobj, found := bytes.Cut(fields[0], []byte("@"))
	if !found || len(action) == 0 {
		return Event{}, false
	}

	ev := Event{
		Action: string(action),
		KObj:   string(kobj),
		Env:    make(map[string]string, len(fields)-1),
	}
	for _, f := range fields[1:] {
		key, value, found := bytes.Cut(f, []byte("="))
		if !found || len(key) == 0 {
			continue
		}
		ev.Env[string(key)] = string(value)
	}
	ev.Subsystem = ev.Env["SUBSYSTEM"]
	ev.DevName = ev.Env["DEVNAME"]
	return ev, true
}
