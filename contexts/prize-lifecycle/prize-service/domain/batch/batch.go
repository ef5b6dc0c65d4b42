// Package batch applies work to a contiguous window of an ordered list under a
// server-side cursor. Windows must start exactly at the cursor and fit in the
// remaining items, so repeated or skipped ranges are rejected instead of being
// silently truncated.
package batch

import (
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
)

// Window validates [start, start+count) against cursor and total and returns
// the end index.
func Window(cursor int, start int, count int, total int) (int, error) {
	if count <= 0 {
		return 0, domainerrors.New(domainerrors.ErrInvalidInput, "count", count)
	}
	if start != cursor {
		return 0, domainerrors.New(domainerrors.ErrOutOfOrderBatch, "expected_start", cursor, "start", start)
	}
	remaining := total - cursor
	if count > remaining {
		return 0, domainerrors.New(domainerrors.ErrBatchSizeExceedsAvailable, "remaining", remaining, "requested", count)
	}
	return start + count, nil
}

// Run calls fn for every item in the window and returns the advanced cursor.
// A failing fn aborts the batch; callers discard partial work.
func Run[T any](items []T, cursor int, start int, count int, fn func(index int, item T) error) (int, error) {
	end, err := Window(cursor, start, count, len(items))
	if err != nil {
		return cursor, err
	}
	for index := start; index < end; index++ {
		if err := fn(index, items[index]); err != nil {
			return cursor, err
		}
	}
	return end, nil
}

// Done reports whether the cursor has covered every item.
func Done(cursor int, total int) bool {
	return cursor >= total
}
