package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/vitaview/internal/devices"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var byID string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture and audio devices with their key bindings",
		Long: `Enumerates V4L2 capture nodes and ALSA PCMs. Cameras are numbered in /dev/videoN ` +
			`order and selected with keys 1-5; mics are numbered in enumeration order and selected ` +
			`with keys 6-8. Each camera is listed with its pixel formats, frame sizes and, for HDMI ` +
			`cards, the input signal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enum := devices.SystemEnumerator{}
			if byID != "" {
				path, err := enum.CameraPathByID(byID)
				if err != nil {
					return err
				}
				details, err := enum.Describe(path)
				if err != nil {
					return fmt.Errorf("describe %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, byID)
				printDetails(cmd.OutOrStdout(), details, "  ")
				return nil
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			reg := devices.NewRegistry(enum, logger)
			if err := reg.Refresh(); err != nil {
				return err
			}
			printDevices(cmd.OutOrStdout(), reg.Snapshot(), reg.Describe)
			return nil
		},
	}
	cmd.Flags().StringVar(&byID, "id", "", "Describe only the camera with this /dev/v4l/by-id name")
	return cmd
}

func printDevices(w io.Writer, snap devices.Snapshot, describe func(int) (devices.CameraDetails, error)) {
	section := func(title string, empty bool) {
		fmt.Fprintln(w, title)
		if empty {
			fmt.Fprintln(w, "  (none)")
		}
	}

	section("Cameras:", len(snap.Cameras) == 0)
	for _, c := range snap.Cameras {
		key := "-"
		if c.Index < 5 {
			key = fmt.Sprint(c.Index + 1)
		}
		fmt.Fprintf(w, "  [%s] %s\n", key, c)
		if c.ID != "" {
			fmt.Fprintf(w, "      id: %s\n", c.ID)
		}
		if describe == nil {
			continue
		}
		details, err := describe(c.Index)
		if err != nil {
			fmt.Fprintf(w, "      error: %v\n", err)
			continue
		}
		printDetails(w, details, "      ")
	}

	section("Mics:", len(snap.Mics) == 0)
	for _, m := range snap.Mics {
		key := "-"
		if m.Index < 3 {
			key = fmt.Sprint(m.Index + 6)
		}
		fmt.Fprintf(w, "  [%s] %s\n", key, m)
	}

	section("Outputs:", len(snap.Outputs) == 0)
	for i, o := range snap.Outputs {
		mark := ""
		if i == 0 {
			mark = " (default)"
		}
		fmt.Fprintf(w, "      %s%s\n", o, mark)
	}
}

func printDetails(w io.Writer, d devices.CameraDetails, indent string) {
	ready := "ready"
	if !d.Ready {
		ready = "not ready"
	}
	fmt.Fprintf(w, "%stype: %s, %s\n", indent, d.Type, ready)
	if s := d.Signal; s != nil {
		fmt.Fprintf(w, "%ssignal: %s", indent, s.State)
		if s.Width > 0 {
			fmt.Fprintf(w, " %dx%d@%.2f", s.Width, s.Height, s.FPS)
		}
		fmt.Fprintln(w)
	}
	for _, f := range d.Formats {
		name := f.Name
		if f.Emulated {
			name += ", emulated"
		}
		sizes := make([]string, len(f.Sizes))
		for i, s := range f.Sizes {
			sizes[i] = s.String() + fpsList(s.FPS)
		}
		fmt.Fprintf(w, "%s%s (%s): %s\n", indent, f.FourCC, name, strings.Join(sizes, " "))
	}
}

func fpsList(fps []float64) string {
	if len(fps) == 0 {
		return ""
	}
	parts := make([]string, len(fps))
	for i, f := range fps {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "@" + strings.Join(parts, "/")
}
