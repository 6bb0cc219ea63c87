// Package exitcodes defines the standard exit codes used by smokehouse.
package exitcodes

// Exit code constants used by smokehouse:
//
// * Success (0): every smoke test passed after any retries
// * TestFailure (1): at least one smoke test still fails after retries
// * RuntimeErr (2): structural errors such as a malformed manifest or a
//   backing server that could not be started
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
