package led

import "github.com/smazurov/vitaview/internal/logging"

// noop implements Controller for machines without usable LEDs.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Set(role string, enabled bool, pattern string) error {
	n.logger.Debug("LED control not available (no-op)",
		"role", role,
		"enabled", enabled,
		"pattern", pattern)
	return nil
}

func (n *noop) Available() []string { return []string{} }
func (n *noop) Patterns() []string  { return []string{} }
