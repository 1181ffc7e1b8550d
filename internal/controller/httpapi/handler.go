package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	scheduling *service.SchedulingService
	cleanup    *service.CleanupService
	booking    *service.BookingService
	absence    *service.AbsenceService
	query      *service.QueryService
	loc        *time.Location
}

func NewHandler(
	scheduling *service.SchedulingService,
	cleanup *service.CleanupService,
	booking *service.BookingService,
	absence *service.AbsenceService,
	query *service.QueryService,
	loc *time.Location,
) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		scheduling: scheduling,
		cleanup:    cleanup,
		booking:    booking,
		absence:    absence,
		query:      query,
		loc:        loc,
	}
}

// bindOptional разбирает JSON тело; пустое тело допустимо
func bindOptional(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("malformed request body: %v", err)
	}
	return nil
}

func (h *Handler) GenerateInstances(c *gin.Context) {
	report, err := h.scheduling.GenerateInstances(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Instances generated", report)
}

type pruneExpiredReq struct {
	CutoffDate string `json:"cutoff_date"`
}

func (h *Handler) PruneExpired(c *gin.Context) {
	var req pruneExpiredReq
	if err := bindOptional(c, &req); err != nil {
		fail(c, err)
		return
	}

	var cutoff time.Time
	if s := strings.TrimSpace(req.CutoffDate); s != "" {
		parsed, err := time.ParseInLocation(model.DateLayout, s, h.loc)
		if err != nil {
			fail(c, apperr.Validation("cutoff_date must be YYYY-MM-DD, got %q", s))
			return
		}
		cutoff = parsed
	}

	report, err := h.cleanup.PruneExpired(c.Request.Context(), cutoff)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Expired instances pruned", report)
}

type pruneVacantReq struct {
	Threshold int `json:"threshold"`
}

func (h *Handler) PruneExcessVacant(c *gin.Context) {
	var req pruneVacantReq
	if err := bindOptional(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.Threshold < 0 {
		fail(c, apperr.Validation("threshold must not be negative"))
		return
	}

	report, err := h.cleanup.PruneExcessVacant(c.Request.Context(), req.Threshold)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Excess vacant instances pruned", report)
}

func (h *Handler) Book(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("malformed request body: %v", err))
		return
	}

	res, err := h.booking.Book(c.Request.Context(), requesterFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Slot booked", res)
}

func (h *Handler) Cancel(c *gin.Context) {
	res, err := h.booking.Cancel(c.Request.Context(), requesterFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking cancelled", res)
}

type absenceReq struct {
	TeacherName string `json:"teacher_name"`
}

func (h *Handler) ReportAbsence(c *gin.Context) {
	var req absenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validation("malformed request body: %v", err))
		return
	}

	res, err := h.absence.ReportAbsence(c.Request.Context(), requesterFrom(c), c.Param("id"), req.TeacherName)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Absence reported"
	if res.AlreadyReported {
		message = "Absence already reported"
	}
	respond(c, http.StatusOK, message, res)
}

func (h *Handler) AvailableInstances(c *gin.Context) {
	instances, err := h.query.AvailableInstances(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if instances == nil {
		instances = []*model.ScheduleInstance{}
	}
	respond(c, http.StatusOK, "", instances)
}

func (h *Handler) Templates(c *gin.Context) {
	listing, err := h.query.Templates(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", listing)
}

func (h *Handler) Booking(c *gin.Context) {
	booking, err := h.query.Booking(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", booking)
}
