//go:build haldebug

package posix

import (
	"fmt"

	"github.com/bft-labs/halport/pkg/hal"
)

// checkLifetime fails loudly when a timer fires with user data that was
// released while the timer was still armed.
func checkLifetime(name string, data any) {
	if l, ok := data.(hal.Lifetime); ok && !l.Alive() {
		panic(fmt.Sprintf("posix: timer %q fired with released user data", name))
	}
}
