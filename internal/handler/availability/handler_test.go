package availability

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodyworks/scheduler-api/internal/model"
	"github.com/bodyworks/scheduler-api/internal/repository/memory"
	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
)

// Monday through Friday 9-17, no break.
func testAvailability() *model.WeeklyAvailability {
	day := model.DaySchedule{
		Working: true,
		Start:   model.ClockTime{Hour: 9},
		End:     model.ClockTime{Hour: 17},
	}
	return &model.WeeklyAvailability{
		Days: map[time.Weekday]model.DaySchedule{
			time.Monday:    day,
			time.Tuesday:   day,
			time.Wednesday: day,
			time.Thursday:  day,
			time.Friday:    day,
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := scheduler.NewService(memory.NewStore(), testAvailability(), nil, nil)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetAvailableSlots(t *testing.T) {
	r := newTestRouter(t)

	// Monday: 8 hourly slots.
	w := get(t, r, "/availability/slots?date=2026-03-02&duration_minutes=60")
	require.Equal(t, http.StatusOK, w.Code)
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	slots, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, slots, 8)

	// Sunday: closed.
	w = get(t, r, "/availability/slots?date=2026-03-01&duration_minutes=60")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data)
}

func TestGetAvailableSlotsValidation(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/availability/slots?duration_minutes=60",
		"/availability/slots?date=monday&duration_minutes=60",
		"/availability/slots?date=2026-03-02",
		fmt.Sprintf("/availability/slots?date=2026-03-02&duration_minutes=%d", -30),
	} {
		w := get(t, r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
