package batch

import (
	"errors"
	"testing"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"

	"github.com/google/go-cmp/cmp"
)

func TestRunAdvancesCursor(t *testing.T) {
	items := []string{"a", "b", "c"}
	var seen []string
	cursor, err := Run(items, 0, 0, 2, func(_ int, item string) error {
		seen = append(seen, item)
		return nil
	})
	if err != nil {
		t.Fatalf("first batch failed: %v", err)
	}
	cursor, err = Run(items, cursor, 2, 1, func(_ int, item string) error {
		seen = append(seen, item)
		return nil
	})
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}
	if cursor != 3 || !Done(cursor, len(items)) {
		t.Fatalf("expected cursor 3 and done, got %d", cursor)
	}
	if diff := cmp.Diff(items, seen); diff != "" {
		t.Fatalf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWindowRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name   string
		cursor int
		start  int
		count  int
		want   error
	}{
		{name: "zero count", cursor: 0, start: 0, count: 0, want: domainerrors.ErrInvalidInput},
		{name: "replay", cursor: 2, start: 0, count: 1, want: domainerrors.ErrOutOfOrderBatch},
		{name: "skip", cursor: 0, start: 1, count: 1, want: domainerrors.ErrOutOfOrderBatch},
		{name: "too large", cursor: 1, start: 1, count: 5, want: domainerrors.ErrBatchSizeExceedsAvailable},
	}
	for _, tc := range cases {
		if _, err := Window(tc.cursor, tc.start, tc.count, 3); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRunKeepsCursorOnFailure(t *testing.T) {
	boom := errors.New("boom")
	cursor, err := Run([]int{1, 2, 3}, 0, 0, 3, func(index int, _ int) error {
		if index == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || cursor != 0 {
		t.Fatalf("expected cursor 0 and boom, got %d %v", cursor, err)
	}
}
