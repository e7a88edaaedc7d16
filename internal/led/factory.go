package led

import (
	"os"
	"strings"

	"github.com/smazurov/vitaview/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// RoleStatus is the LED that mirrors capture state.
const RoleStatus = "status"

// boards maps a device-tree model substring to the LED used for RoleStatus.
var boards = []struct {
	model string
	led   string
}{
	{"NanoPC-T6", "sys_led"},
	{"Orange Pi", "green_led"},
	{"Raspberry Pi", "ACT"},
}

// New picks a controller for the board this runs on and falls back to a
// no-op controller when the board is unknown.
func New(logger logging.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger logging.Logger) Controller {
	for _, b := range boards {
		if strings.Contains(model, b.model) {
			logger.Info("Using sysfs LED controller", "board_model", model, "led", b.led)
			return newSysfs(root, map[string]string{RoleStatus: b.led})
		}
	}
	logger.Debug("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	// Device tree strings are NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
