package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/errors"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
)

type Handler struct {
	service *scheduler.Service
}

func NewHandler(service *scheduler.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	availability := r.Group("/availability")
	{
		availability.GET("/slots", h.GetAvailableSlots)
	}
}

// GetAvailableSlots lists unconflicted slots:
// ?date=YYYY-MM-DD&duration_minutes=60.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid or missing date", err))
		return
	}
	minutes, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || minutes <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("duration_minutes must be a positive integer", err))
		return
	}

	slots := h.service.AvailableSlots(date, time.Duration(minutes)*time.Minute)
	httputil.RespondWithSuccess(c, http.StatusOK, slots)
}
