// Package id generates ULID identifiers for orders and trades. ULIDs sort
// lexicographically by creation time, so journal rows need no separate
// sequence column.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = &ulid.LockedMonotonicReader{
	MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(seed())), 0),
}

// seed draws the PRNG seed from crypto/rand, falling back to the wall clock
// if the system source fails.
func seed() int64 {
	var s int64
	if err := binary.Read(cryptoRand.Reader, binary.LittleEndian, &s); err != nil || s == 0 {
		s = time.Now().UnixNano()
	}
	return s
}

// New returns a fresh ULID string. IDs minted within the same millisecond
// stay strictly increasing.
func New() string {
	return ulid.MustNew(ulid.Now(), entropy).String()
}
