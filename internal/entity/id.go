package entity

import (
	"math/rand"
	"strconv"
)

// newEntityID draws a persistent identifier from the 32-bit space.
// Collisions among live entities are statistically accepted rather than
// actively prevented; sessions hold far fewer entities than 2^32.
// TODO: switch to a monotonic counter once saved levels no longer depend
// on the random scheme.
func newEntityID(rng *rand.Rand) uint64 {
	for {
		id := rng.Uint64() & 0xffffffff
		if id != 0 {
			return id
		}
	}
}

// FormatEntityID renders an ID the way scripts see it: lowercase hex.
func FormatEntityID(id uint64) string {
	return strconv.FormatUint(id, 16)
}

// ParseEntityID parses a script-provided ID string. Returns false for
// anything that is not valid hex; callers treat that as "not found".
func ParseEntityID(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
