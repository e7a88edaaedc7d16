package led

// Patterns understood by every Controller.
const (
	PatternSolid = "solid"
	PatternBlink = "blink"
)

// Controller abstracts board LEDs. Implementations map a role such as
// "status" onto the board's own LED name.
type Controller interface {
	// Set switches the LED for role on or off. pattern is PatternSolid,
	// PatternBlink or empty to leave the trigger alone.
	Set(role string, enabled bool, pattern string) error

	// Available returns the roles this board can drive.
	Available() []string

	// Patterns returns the supported patterns.
	Patterns() []string
}
