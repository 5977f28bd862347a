package haltest

import "testing"

// RunTesting runs every case as a subtest, each against a fresh target from
// newTarget. Targets are closed through t.Cleanup by the caller or through
// Target.Close.
func RunTesting(t *testing.T, newTarget func(t *testing.T) *Target) {
	t.Helper()
	for _, c := range Cases() {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			tg := newTarget(t)
			if tg.Close != nil {
				t.Cleanup(tg.Close)
			}
			c.Run(t, tg)
		})
	}
}
