package clock

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestFixed_AdvanceAndToday(t *testing.T) {
	c := NewFixed(time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC))

	if got := Today(c); got != (civil.Date{Year: 2026, Month: time.January, Day: 5}) {
		t.Errorf("Today() = %v, want 2026-01-05", got)
	}

	c.Advance(time.Hour)
	if got := Today(c); got.String() != "2026-01-06" {
		t.Errorf("Today() after Advance = %v, want 2026-01-06", got)
	}

	c.Set(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
	if got := c.Now().Year(); got != 2027 {
		t.Errorf("Now().Year() = %d, want 2027", got)
	}
}
