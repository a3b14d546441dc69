package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator mints opaque identifiers for event series. It is injectable so
// that tests can assert on deterministic ids instead of random UUIDs.
type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (g UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceIDGenerator returns "prefix-1", "prefix-2", ... in mint order.
type SequenceIDGenerator struct {
	Prefix string
	next   int
}

func (g *SequenceIDGenerator) NewID() string {
	g.next++
	return fmt.Sprintf("%s-%d", g.Prefix, g.next)
}
