package usecases

import (
	"context"

	dto "github.com/campusportal/admission/internal/application/ratelimit/dto"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

const (
	DefaultAlertListLimit = 100
	MaxAlertListLimit     = 10000
)

// AlertReader reads persisted abuse alerts newest first.
type AlertReader interface {
	Recent(ctx context.Context, n int) ([]domain.AbuseAlert, error)
}

// ListAbuseAlertsUseCase handles listing recent abuse alerts.
type ListAbuseAlertsUseCase struct {
	alerts AlertReader
	logger logger.Interface
}

// NewListAbuseAlertsUseCase creates a new ListAbuseAlertsUseCase.
func NewListAbuseAlertsUseCase(alerts AlertReader, log logger.Interface) *ListAbuseAlertsUseCase {
	return &ListAbuseAlertsUseCase{
		alerts: alerts,
		logger: log,
	}
}

// Execute returns up to limit alerts, newest first. A non-positive limit
// means DefaultAlertListLimit. When the store cannot be read the list is
// empty rather than an error.
func (uc *ListAbuseAlertsUseCase) Execute(ctx context.Context, limit int) *dto.AbuseAlertListResponse {
	if limit <= 0 {
		limit = DefaultAlertListLimit
	}
	limit = min(limit, MaxAlertListLimit)

	alerts, err := uc.alerts.Recent(ctx, limit)
	if err != nil {
		uc.logger.Warnw("failed to read abuse alerts, returning empty list",
			"limit", limit,
			"error", err,
		)
		return dto.ToAbuseAlertListResponse(nil)
	}

	return dto.ToAbuseAlertListResponse(alerts)
}
