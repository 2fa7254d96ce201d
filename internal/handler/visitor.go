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

// VisitorHandler covers the gate register: entries, exits and the security
// reports built on them.
type VisitorHandler struct {
	Visitors *repository.VisitorRepo
	Students *repository.StudentRepo
}

func NewVisitorHandler(v *repository.VisitorRepo, s *repository.StudentRepo) *VisitorHandler {
	return &VisitorHandler{Visitors: v, Students: s}
}

type recordEntryReq struct {
	VisitorName string `json:"visitor_name"`
	StudentID   int64  `json:"student_id"`
	Relation    string `json:"relation"`
	ContactNo   string `json:"contact_no"`
	IDProofType string `json:"id_proof_type"`
	IDProofNo   string `json:"id_proof_no"`
	Purpose     string `json:"purpose"`
}

// Entry records a visitor arriving at the gate and publishes the event to
// the audit queue.
func (h *VisitorHandler) Entry(c echo.Context) error {
	var req recordEntryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	if req.VisitorName == "" || req.StudentID < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visitor_name and student_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	student, err := h.Students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record entry failed"})
	}

	fields := map[string]any{
		"visitor_name": req.VisitorName,
		"student_id":   req.StudentID,
		"recorded_by":  adminIDFrom(c),
	}
	if req.Relation != "" {
		fields["relation"] = req.Relation
	}
	if req.ContactNo != "" {
		fields["visitor_phone"] = req.ContactNo
	}
	if req.IDProofType != "" {
		fields["visitor_id_proof"] = req.IDProofType
	}
	if req.IDProofNo != "" {
		fields["visitor_id_number"] = req.IDProofNo
	}
	if req.Purpose != "" {
		fields["purpose"] = req.Purpose
	}

	id, err := h.Visitors.RecordEntry(ctx, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record entry failed"})
	}

	ev := queue.VisitorEntryEvent{
		VisitID:     id,
		VisitorName: req.VisitorName,
		StudentID:   req.StudentID,
		StudentName: strings.TrimSpace(student.String("first_name") + " " + student.String("last_name")),
		Relation:    req.Relation,
		IDProofType: req.IDProofType,
		EntryTime:   time.Now().UTC().Format(time.RFC3339),
		RecordedBy:  adminIDFrom(c),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishVisitorEntry(pubCtx, ev)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Exit closes an open visit: stamps the exit time, derives the duration in
// minutes and flips the status.
func (h *VisitorHandler) Exit(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Remarks string `json:"security_remarks"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Visitors.RecordExit(ctx, id, time.Now().UTC(), strings.TrimSpace(req.Remarks))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record exit failed"})
	}
	if !updated {
		return c.JSON(http.StatusConflict, echo.Map{"error": "visit already closed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "exit recorded"})
}

// UpdateStatus overrides a visit's status without touching exit bookkeeping.
func (h *VisitorHandler) UpdateStatus(c echo.Context) error {
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

	updated, err := h.Visitors.UpdateStatus(ctx, id, strings.TrimSpace(req.Status))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// List returns visits with student details, filtered by the query params.
func (h *VisitorHandler) List(c echo.Context) error {
	f := repository.VisitorFilter{
		StudentID: queryInt64(c, "student_id"),
		Status:    strings.TrimSpace(c.QueryParam("status")),
		DateFrom:  strings.TrimSpace(c.QueryParam("from")),
		DateTo:    strings.TrimSpace(c.QueryParam("to")),
		Name:      strings.TrimSpace(c.QueryParam("name")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list visits failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": rows})
}

// Get returns one visit with student details.
func (h *VisitorHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Visitors.WithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch visit failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// Current lists visitors still inside.
func (h *VisitorHandler) Current(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.CurrentVisitors(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list visitors failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visitors": rows})
}

// ByStudent lists all visits to one student.
func (h *VisitorHandler) ByStudent(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.ByStudent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list visits failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": rows})
}

// Search matches the term against visitor and student names.
func (h *VisitorHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": rows})
}

// ByIDProof finds prior visits by the presented identity document.
func (h *VisitorHandler) ByIDProof(c echo.Context) error {
	proofType := strings.TrimSpace(c.QueryParam("type"))
	proofNo := strings.TrimSpace(c.QueryParam("number"))
	if proofType == "" || proofNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type and number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.ByIDProof(ctx, proofType, proofNo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": rows})
}

// Alerts lists visitors inside for longer than the threshold hours.
func (h *VisitorHandler) Alerts(c echo.Context) error {
	hours := queryInt(c, "hours", 8)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.SecurityAlerts(ctx, hours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch alerts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"alerts": rows})
}

// Report lists visits in a date range.
func (h *VisitorHandler) Report(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.ReportByDateRange(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch report failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": rows})
}

// Counts aggregates visits by hour, day or month.
func (h *VisitorHandler) Counts(c echo.Context) error {
	period := strings.TrimSpace(c.QueryParam("period"))
	if period == "" {
		period = "daily"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.CountByPeriod(ctx, period)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch counts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": rows})
}

// Frequent lists the most frequent visitors.
func (h *VisitorHandler) Frequent(c echo.Context) error {
	limit := queryInt(c, "limit", 10)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Visitors.FrequentVisitors(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch visitors failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visitors": rows})
}

// Statistics returns gate totals for the optional date range.
func (h *VisitorHandler) Statistics(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Visitors.Statistics(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
