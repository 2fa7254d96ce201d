package utils

import (
	"testing"
	"time"
)

func TestAvailableSeats(t *testing.T) {
	cases := []struct {
		seater, occupants, want int64
	}{
		{3, 0, 3},
		{3, 2, 1},
		{3, 3, 0},
		{2, 5, -3}, // arithmetic does not clamp; callers filter
	}
	for _, c := range cases {
		if got := AvailableSeats(c.seater, c.occupants); got != c.want {
			t.Errorf("AvailableSeats(%d, %d) = %d, want %d", c.seater, c.occupants, got, c.want)
		}
	}
}

func TestPendingAmount(t *testing.T) {
	if got := PendingAmount(5000, 3000); got != 2000 {
		t.Errorf("PendingAmount = %v, want 2000", got)
	}
	// Overpayment yields a negative balance, not zero.
	if got := PendingAmount(5000, 6000); got != -1000 {
		t.Errorf("PendingAmount = %v, want -1000", got)
	}
}

func TestVisitDurationRounds(t *testing.T) {
	entry := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		seconds int
		want    int64
	}{
		{0, 0},
		{29, 0},
		{30, 1},
		{60, 1},
		{125, 2}, // 2m05s rounds down
		{150, 3}, // 2m30s rounds up
		{3600, 60},
	}
	for _, c := range cases {
		exit := entry.Add(time.Duration(c.seconds) * time.Second)
		if got := VisitDuration(entry, exit); got != c.want {
			t.Errorf("VisitDuration(+%ds) = %d, want %d", c.seconds, got, c.want)
		}
	}
}

func TestReceiptNumberFormat(t *testing.T) {
	day := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)

	if got := ReceiptPrefix(day); got != "RCPT20260105" {
		t.Errorf("ReceiptPrefix = %q, want RCPT20260105", got)
	}
	if got := ReceiptNumber(day, 1); got != "RCPT202601050001" {
		t.Errorf("ReceiptNumber = %q, want RCPT202601050001", got)
	}
	if got := ReceiptNumber(day, 123); got != "RCPT202601050123" {
		t.Errorf("ReceiptNumber = %q, want RCPT202601050123", got)
	}
	// The sequence field is fixed-width only up to 9999.
	if got := ReceiptNumber(day, 10000); got != "RCPT2026010510000" {
		t.Errorf("ReceiptNumber = %q, want RCPT2026010510000", got)
	}
}
