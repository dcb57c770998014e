package catalog

import (
	"errors"
	"fmt"
)

// ErrStore marks failures reported by the catalog database, including
// constraint violations such as a duplicate path.
var ErrStore = errors.New("catalog store error")

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
