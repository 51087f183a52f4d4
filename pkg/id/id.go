// Package id generates run identifiers.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. ULIDs sort lexicographically by generation
// time, which keeps journal tables naturally ordered by run.
func New() string {
	return ulid.Make().String()
}
