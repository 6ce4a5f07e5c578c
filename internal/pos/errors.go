package pos

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrSyncInProgress = errors.New("sync already in progress")
)

// InsufficientStockError names the product that could not cover a requested
// quantity. Order creation leaves no trace when it is returned.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}
