package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/queue"
	"github.com/navpurush/hostelms/internal/repository"
	queue_publisher "github.com/navpurush/hostelms/internal/service"
)

// FeeHandler covers fee payments, receipts and collection reports.
type FeeHandler struct {
	Fees *repository.FeeRepo
}

func NewFeeHandler(f *repository.FeeRepo) *FeeHandler {
	return &FeeHandler{Fees: f}
}

type recordPaymentReq struct {
	StudentID     int64   `json:"student_id"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"payment_type"`
	PaymentMethod string  `json:"payment_method"`
	PaymentDate   string  `json:"payment_date"`
	MonthFor      string  `json:"month_for"`
	Remarks       string  `json:"remarks"`
}

// Record inserts a payment and publishes it to the audit queue. The receipt
// number is synthesized from the day's sequence; a collision from a
// concurrent insert surfaces as a conflict the client can retry.
func (h *FeeHandler) Record(c echo.Context) error {
	var req recordPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.StudentID < 1 || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id and positive amount required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fields := map[string]any{
		"student_id":  req.StudentID,
		"amount":      req.Amount,
		"recorded_by": adminIDFrom(c),
	}
	if req.PaymentType != "" {
		fields["payment_type"] = req.PaymentType
	}
	if req.PaymentMethod != "" {
		fields["payment_method"] = req.PaymentMethod
	}
	if req.PaymentDate != "" {
		fields["payment_date"] = req.PaymentDate
	}
	if req.MonthFor != "" {
		fields["month_for"] = req.MonthFor
	}
	if req.Remarks != "" {
		fields["remarks"] = req.Remarks
	}

	id, err := h.Fees.RecordPayment(ctx, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "receipt number collision, retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}

	payment, err := h.Fees.PaymentWithDetails(ctx, id)
	if err != nil {
		// Insert succeeded; return the id even if the read-back failed.
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}

	ev := queue.PaymentRecordedEvent{
		PaymentID:     id,
		StudentID:     payment.Int64("student_id"),
		StudentName:   strings.TrimSpace(payment.String("first_name") + " " + payment.String("last_name")),
		ReceiptNo:     payment.String("receipt_no"),
		Amount:        payment.Float64("amount"),
		PaymentType:   payment.String("payment_type"),
		PaymentMethod: payment.String("payment_method"),
		PaymentDate:   payment.String("payment_date"),
		RecordedBy:    adminIDFrom(c),
		RecordedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishPaymentRecorded(pubCtx, ev)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "payment": payment})
}

// List returns payments with student details, filtered by the query params.
func (h *FeeHandler) List(c echo.Context) error {
	f := repository.FeeFilter{
		StudentID:   queryInt64(c, "student_id"),
		PaymentType: strings.TrimSpace(c.QueryParam("payment_type")),
		Status:      strings.TrimSpace(c.QueryParam("status")),
		DateFrom:    strings.TrimSpace(c.QueryParam("from")),
		DateTo:      strings.TrimSpace(c.QueryParam("to")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Fees.ListPayments(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": rows})
}

// Get returns one payment with student details.
func (h *FeeHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Fees.PaymentWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch payment failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// ByReceipt looks a payment up by receipt number.
func (h *FeeHandler) ByReceipt(c echo.Context) error {
	receipt := strings.TrimSpace(c.Param("receipt"))
	if receipt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Fees.PaymentByReceipt(ctx, receipt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receipt not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch payment failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// StudentSummary returns a student's fee position: total paid, derived
// pending amount and payment count.
func (h *FeeHandler) StudentSummary(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Fees.StudentFeeSummary(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch summary failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// StudentHistory lists all of a student's payments.
func (h *FeeHandler) StudentHistory(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Fees.PaymentHistory(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": rows})
}

// PendingReport lists active students with their balance classification.
func (h *FeeHandler) PendingReport(c echo.Context) error {
	f := repository.PendingFilter{
		CourseID:      queryInt64(c, "course_id"),
		RoomID:        queryInt64(c, "room_id"),
		PaymentStatus: strings.TrimSpace(c.QueryParam("payment_status")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Fees.PendingFeesReport(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch report failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// UpdateStatus changes a payment's status, e.g. to reverse a bounced cheque.
func (h *FeeHandler) UpdateStatus(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Fees.UpdatePaymentStatus(ctx, id, strings.TrimSpace(req.Status))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// Overdue lists students past the configured staying threshold with unpaid
// balances.
func (h *FeeHandler) Overdue(c echo.Context) error {
	days := queryInt(c, "days", 30)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Fees.OverduePayments(ctx, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch overdue failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// MethodStats breaks collections down by payment mode.
func (h *FeeHandler) MethodStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Fees.PaymentMethodStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch stats failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"methods": rows})
}

// CollectionStats returns totals, per-type breakdown and the monthly trend
// for the optional date range.
func (h *FeeHandler) CollectionStats(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Fees.CollectionStatistics(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
