package report

import (
	"net/http"
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
	reports := r.Group("/reports")
	{
		reports.GET("/summary", h.GetSummary)
	}
}

// GetSummary aggregates the window ?from=RFC3339&to=RFC3339.
func (h *Handler) GetSummary(c *gin.Context) {
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

	httputil.RespondWithSuccess(c, http.StatusOK, h.service.Statistics(from, to))
}
