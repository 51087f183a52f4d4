package strategies

// Noop never trades. Useful as a baseline: a run with it must end with
// the starting cash untouched.
type Noop struct {
	Base
}
