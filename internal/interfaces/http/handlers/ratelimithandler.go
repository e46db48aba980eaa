package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusportal/admission/internal/application/ratelimit/dto"
	"github.com/campusportal/admission/internal/shared/constants"
	"github.com/campusportal/admission/internal/shared/errors"
	"github.com/campusportal/admission/internal/shared/logger"
	"github.com/campusportal/admission/internal/shared/utils"
)

// RateLimitAdminService is the admin surface of admission control.
type RateLimitAdminService interface {
	ListRecentAbuseAlerts(ctx context.Context, limit int) *dto.AbuseAlertListResponse
	ClearLimit(ctx context.Context, identifier, endpoint string) (*dto.ClearRateLimitResult, error)
}

type RateLimitAdminHandler struct {
	service RateLimitAdminService
	logger  logger.Interface
}

func NewRateLimitAdminHandler(service RateLimitAdminService, logger logger.Interface) *RateLimitAdminHandler {
	return &RateLimitAdminHandler{
		service: service,
		logger:  logger,
	}
}

type ListAbuseAlertsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=10000"`
}

type ClearRateLimitRequest struct {
	Endpoint string `form:"endpoint" validate:"omitempty,max=128"`
}

// ListAbuseAlerts handles GET /api/admin/rate-limits/alerts
func (h *RateLimitAdminHandler) ListAbuseAlerts(c *gin.Context) {
	var req ListAbuseAlertsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warnw("invalid list abuse alerts request", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("limit must be a number", err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result := h.service.ListRecentAbuseAlerts(c.Request.Context(), req.Limit)
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ClearRateLimit handles DELETE /api/admin/rate-limits/:identifier
func (h *RateLimitAdminHandler) ClearRateLimit(c *gin.Context) {
	var req ClearRateLimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid endpoint", err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	identifier := c.Param("identifier")
	result, err := h.service.ClearLimit(c.Request.Context(), identifier, req.Endpoint)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("rate limit cleared by admin",
		"admin_id", c.GetString(constants.ContextKeyUserID),
		"identifier", result.Identifier,
		"endpoint", result.Endpoint,
	)
	utils.SuccessResponse(c, http.StatusOK, "rate limit cleared", result)
}
