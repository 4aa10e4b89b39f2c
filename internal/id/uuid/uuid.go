// Package uuid generates time-ordered crawl run identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

// Generator creates UUIDv7 run ids, so ids sort by run start.
type Generator struct {
	newV7 func() (uuid.UUID, error)
}

var _ crawler.IDGenerator = (*Generator)(nil)

// New creates a Generator.
func New() *Generator {
	return &Generator{newV7: uuid.NewV7}
}

// NewID returns a UUIDv7 string.
func (g *Generator) NewID() (string, error) {
	id, err := g.newV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
