package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsWrap(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrStatusNotFound,
		ErrConcurrentModification,
		ErrActiveRepairExists,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("asset abc: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("Expected wrapped error to match %v", sentinel)
		}
		for _, other := range sentinels {
			if other != sentinel && errors.Is(wrapped, other) {
				t.Errorf("Did not expect %v to match %v", sentinel, other)
			}
		}
	}
}
