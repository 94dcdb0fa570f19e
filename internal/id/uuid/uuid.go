// Package uuid generates identifiers for redirect rules, contact submissions
// and request IDs.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered UUIDv7 identifiers.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7. Rows keyed by it sort roughly by creation time.
func (Generator) NewID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}

// NewRequestID returns a random string ID for correlating log lines. It falls
// back to a v4 UUID if the v7 generator fails.
func (g Generator) NewRequestID() string {
	if id, err := g.NewID(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
