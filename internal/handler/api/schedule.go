package api

import (
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	q queries.BookingQueries
}

func NewScheduleHandler(q queries.BookingQueries) *ScheduleHandler {
	return &ScheduleHandler{q: q}
}

// @Summary Get schedule
// @Description Day grid over the resource's operating window, one bucket per granularity step
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param date query string true "Day in the resource time zone (YYYY-MM-DD)"
// @Param granularity query int false "Bucket size in minutes" default(60)
// @Success 200 {object} resdto.ScheduleResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /resources/{id}/schedule [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var query reqdto.ScheduleQuery
	if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid query", bindErr.Error())
		return
	}
	day, err := query.Day()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", err.Error())
		return
	}

	grid, err := h.q.GetSchedule(c.Request.Context(), resourceID, day, query.GranularityMinutes())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromGrid(grid))
}
