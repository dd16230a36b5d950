package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls how failed scripted assertions are handled.
type AssertionMode string

const (
	// AssertionStrict stops the run on the first failed assertion.
	AssertionStrict AssertionMode = "strict"
	// AssertionWarn logs failed assertions and keeps running. Hard
	// failures (bad scripts, unexpected errors) still stop the run.
	AssertionWarn AssertionMode = "warn"
)

// Assertions evaluates scripted expectations under the configured mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf reports a hard failure that always stops the run.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf reports a failed expectation. Strict mode turns it into an error;
// warn mode logs and continues.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionWarn {
		if a.Logger != nil {
			a.Logger.Printf("assertion failed: "+format, args...)
		}
		return nil
	}
	return fmt.Errorf(format, args...)
}
