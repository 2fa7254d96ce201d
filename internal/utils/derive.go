// Package utils holds small pure helpers shared by repositories and
// handlers: derived-value arithmetic, password hashing and token issuing.
package utils

import (
	"fmt"
	"math"
	"time"
)

// AvailableSeats returns a room's free capacity: seating capacity minus the
// count of active occupants. It can go negative when data quality slips
// (more active students than seats); callers reading rooms through the
// HAVING > 0 queries never see that, but the raw arithmetic does not clamp.
func AvailableSeats(seater, occupants int64) int64 {
	return seater - occupants
}

// PendingAmount returns a student's outstanding balance: the room's monthly
// fee minus everything paid so far. The model is a single perpetual balance
// per student, not period-aware billing.
func PendingAmount(monthlyFee, totalPaid float64) float64 {
	return monthlyFee - totalPaid
}

// VisitDuration returns the length of a visit in whole minutes, rounded to
// nearest. It is computed once at exit time and persisted.
func VisitDuration(entry, exit time.Time) int64 {
	return int64(math.Round(exit.Sub(entry).Seconds() / 60))
}

// ReceiptPrefix returns the shared receipt-number prefix for one day:
// "RCPT" + YYYYMMDD.
func ReceiptPrefix(day time.Time) string {
	return "RCPT" + day.Format("20060102")
}

// ReceiptNumber renders a human-readable receipt identifier for the given
// day and per-day sequence: the day prefix plus a zero-padded sequence.
// RCPT202608300007 is the seventh receipt of 2026-08-30.
func ReceiptNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", ReceiptPrefix(day), seq)
}
