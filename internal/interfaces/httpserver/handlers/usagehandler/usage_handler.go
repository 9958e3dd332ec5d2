package usagehandler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/domain/usage"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/middlewares"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const defaultUsageWindow = 30 * 24 * time.Hour

// UsageHandler serves per-user token usage summaries.
type UsageHandler struct {
	usage *usage.Service
}

func NewUsageHandler(service *usage.Service) *UsageHandler {
	return &UsageHandler{usage: service}
}

type usageQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// GetMyUsage handles GET /v1/usage. The window defaults to the last 30 days.
func (h *UsageHandler) GetMyUsage(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "e72a9c45-8d1b-4f6e-a3c7-5b2d0e9f8a63")
		return
	}

	var query usageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid query parameters", "2b7e4f9a-c3d1-48a5-9e6b-0f8c7d2a1e54")
		return
	}

	endDate := time.Now().UTC()
	startDate := endDate.Add(-defaultUsageWindow)
	if query.StartDate != "" {
		startDate, _ = time.Parse("2006-01-02", query.StartDate)
	}
	if query.EndDate != "" {
		parsed, _ := time.Parse("2006-01-02", query.EndDate)
		// include the full end day
		endDate = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if endDate.Before(startDate) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "end_date must not precede start_date", "6d3f8a1c-e5b9-4c72-8f0d-9a4e2b7c6d15")
		return
	}

	result, err := h.usage.GetMyUsage(c.Request.Context(), principal.UserID, startDate, endDate)
	if err != nil {
		responses.HandleError(c, err, "failed to query usage")
		return
	}

	c.JSON(http.StatusOK, result)
}
