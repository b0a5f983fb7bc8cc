package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DisplayIDPrefix leads every human-facing ticket identifier.
	DisplayIDPrefix = "TKT-"
	displayIDWidth  = 5
)

// NextDisplayID derives the next human-readable ticket identifier from
// the display id of the most recently created ticket. An empty or
// malformed previous id restarts the sequence at 1; the second return
// value is false in that case so the caller can log a warning. The
// read-increment-write sequence is not atomic: two concurrent creations
// can observe the same last ticket and mint the same id. That race is
// documented behavior, not a uniqueness guarantee.
func NextDisplayID(lastDisplayID string) (string, bool) {
	seq := 1
	ok := lastDisplayID == ""
	if suffix, found := strings.CutPrefix(lastDisplayID, DisplayIDPrefix); found {
		if n, err := strconv.Atoi(suffix); err == nil && n > 0 {
			seq = n + 1
			ok = true
		}
	}
	return fmt.Sprintf("%s%0*d", DisplayIDPrefix, displayIDWidth, seq), ok
}
