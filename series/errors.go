package series

import "fmt"

// OverwriteError reports an attempt to set a column that is already
// populated on the current row. It always signals a bug in a transformer
// or in the code feeding the series, so callers should treat it as fatal.
type OverwriteError struct {
	Key string
}

func (e *OverwriteError) Error() string {
	return fmt.Sprintf("series: column %q already set on current row", e.Key)
}

// MissingOutputKeyError reports a transformer that produced a field its
// output mapping has no destination for.
type MissingOutputKeyError struct {
	Field string
}

func (e *MissingOutputKeyError) Error() string {
	return fmt.Sprintf("series: transformer output field %q has no destination key", e.Field)
}

// ValidationError reports a malformed transformer registration.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "series: " + e.Reason
}
