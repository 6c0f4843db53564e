package uid

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestNew(t *testing.T) {
	id := New()
	check.True(t, IsValid(id))
	check.NotEqual(t, id, New())
}

func TestIsValid(t *testing.T) {
	check.False(t, IsValid(""))
	check.False(t, IsValid("not-a-uuid"))
}

func TestNewSortable_MonotonicWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	prev := NewSortable(now)
	for i := 0; i < 100; i++ {
		next := NewSortable(now)
		check.True(t, next > prev)
		prev = next
	}
}

func TestNewSortable_OrdersByTime(t *testing.T) {
	earlier := NewSortable(time.UnixMilli(1_700_000_000_000))
	later := NewSortable(time.UnixMilli(1_700_000_000_001))
	check.True(t, earlier < later)
}
