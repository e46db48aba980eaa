package ratelimit

import (
	"context"

	dto "github.com/campusportal/admission/internal/application/ratelimit/dto"
	"github.com/campusportal/admission/internal/application/ratelimit/usecases"
)

// AdminService is the admin interface to admission control, shared by the
// HTTP admin routes and the CLI.
type AdminService struct {
	listAlerts *usecases.ListAbuseAlertsUseCase
	clearLimit *usecases.ClearRateLimitUseCase
}

func NewAdminService(listAlerts *usecases.ListAbuseAlertsUseCase, clearLimit *usecases.ClearRateLimitUseCase) *AdminService {
	return &AdminService{
		listAlerts: listAlerts,
		clearLimit: clearLimit,
	}
}

// ListRecentAbuseAlerts returns up to limit alerts, newest first.
func (s *AdminService) ListRecentAbuseAlerts(ctx context.Context, limit int) *dto.AbuseAlertListResponse {
	return s.listAlerts.Execute(ctx, limit)
}

// ClearLimit resets identifier on one endpoint, or on all of them when endpoint is empty.
func (s *AdminService) ClearLimit(ctx context.Context, identifier, endpoint string) (*dto.ClearRateLimitResult, error) {
	return s.clearLimit.Execute(ctx, usecases.ClearRateLimitCommand{
		Identifier: identifier,
		Endpoint:   endpoint,
	})
}
