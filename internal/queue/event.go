// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentRecordedEvent is published when a fee payment is successfully
// recorded. It carries enough information for downstream consumers to log,
// notify, or feed accounting without querying the primary database.
type PaymentRecordedEvent struct {
	PaymentID     int64   `json:"payment_id"`
	StudentID     int64   `json:"student_id"`
	StudentName   string  `json:"student_name"`
	ReceiptNo     string  `json:"receipt_no"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"payment_type"`
	PaymentMethod string  `json:"payment_method"`
	PaymentDate   string  `json:"payment_date"`
	RecordedBy    int64   `json:"recorded_by"`
	RecordedAt    string  `json:"recorded_at"`
}

// VisitorEntryEvent is published when security records a visitor entering the
// hostel, so the gate audit trail is built outside the request path.
type VisitorEntryEvent struct {
	VisitID     int64  `json:"visit_id"`
	VisitorName string `json:"visitor_name"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	Relation    string `json:"relation"`
	IDProofType string `json:"id_proof_type"`
	EntryTime   string `json:"entry_time"`
	RecordedBy  int64  `json:"recorded_by"`
}
