package appointment

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodyworks/scheduler-api/internal/model"
	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/errors"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *scheduler.Service
}

func NewHandler(service *scheduler.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.BookAppointment)
		appointments.POST("/recurring", h.CreateRecurringSeries)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/conflict", h.CheckConflict)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/reschedule", h.RescheduleAppointment)
		appointments.POST("/:id/confirm", h.ConfirmAppointment)
		appointments.POST("/:id/start", h.StartAppointment)
		appointments.POST("/:id/complete", h.CompleteAppointment)
		appointments.POST("/:id/paid", h.MarkPaid)
		appointments.POST("/:id/reminder-sent", h.MarkReminderSent)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) CreateRecurringSeries(c *gin.Context) {
	var req model.CreateRecurringSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	series, err := h.service.CreateRecurringSeries(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, series)
}

// ListAppointments serves both the single-day and the ranged queries:
// ?date=YYYY-MM-DD or ?from=RFC3339&to=RFC3339.
func (h *Handler) ListAppointments(c *gin.Context) {
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid date format", err))
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, h.service.AppointmentsOn(date))
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid or missing from timestamp", err))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid or missing to timestamp", err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, h.service.AppointmentsBetween(from, to))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), id, req.NewStart)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

func (h *Handler) StartAppointment(c *gin.Context) {
	h.transition(c, h.service.Start)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

func (h *Handler) MarkReminderSent(c *gin.Context) {
	h.transition(c, h.service.MarkReminderSent)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), id, *req.ShowedUp)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

// CheckConflict answers the display-only conflict query:
// ?start=RFC3339&duration_minutes=60[&exclude=<id>].
func (h *Handler) CheckConflict(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid or missing start timestamp", err))
		return
	}
	minutes, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || minutes <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("duration_minutes must be a positive integer", err))
		return
	}

	var exclude *uuid.UUID
	if raw := c.Query("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid exclude ID", err))
			return
		}
		exclude = &id
	}

	conflict := h.service.HasConflict(start, time.Duration(minutes)*time.Minute, exclude)
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"conflict": conflict})
}

// transition handles the body-less status transitions that share the
// same id-parse/respond shape.
func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*model.Appointment, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := fn(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}
