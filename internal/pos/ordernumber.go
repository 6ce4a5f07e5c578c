package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberGenerator produces unique, human-readable order numbers.
// Injectable so tests can pin identifiers.
type OrderNumberGenerator interface {
	Next() string
}

// ClockRandomGenerator builds numbers like ORD-1714400000000-9F3A21BC from a
// wall-clock millisecond component plus a random suffix.
type ClockRandomGenerator struct {
	Now func() time.Time
}

func NewOrderNumberGenerator() *ClockRandomGenerator {
	return &ClockRandomGenerator{Now: time.Now}
}

func (g *ClockRandomGenerator) Next() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", g.Now().UnixMilli(), suffix)
}
