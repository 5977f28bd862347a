// Package haltest is a conformance suite for hal.Platform backends.
//
// Each Case checks one contract property against a fresh Target. The suite
// runs from go test through RunTesting, or from a binary through Runner,
// which is how halctl selftest checks a device in the field.
//
//	func TestConformance(t *testing.T) {
//	    haltest.RunTesting(t, func(t *testing.T) *haltest.Target {
//	        return newTarget(t)
//	    })
//	}
package haltest
