package dto

import (
	"time"

	domain "github.com/campusportal/admission/internal/domain/ratelimit"
)

// AbuseAlertDTO is the admin view of one abuse alert.
type AbuseAlertDTO struct {
	Identifier string    `json:"identifier" yaml:"identifier"`
	Endpoint   string    `json:"endpoint" yaml:"endpoint"`
	Requests   int       `json:"requests" yaml:"requests"`
	Limit      int       `json:"limit" yaml:"limit"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Severity   string    `json:"severity" yaml:"severity"`
}

// AbuseAlertListResponse lists alerts newest first.
type AbuseAlertListResponse struct {
	Alerts []AbuseAlertDTO `json:"alerts" yaml:"alerts"`
	Count  int             `json:"count" yaml:"count"`
}

// ClearRateLimitResult reports what a reset removed.
type ClearRateLimitResult struct {
	Identifier       string `json:"identifier" yaml:"identifier"`
	Endpoint         string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	DistributedKeys  int    `json:"distributed_keys" yaml:"distributed_keys"`
	LocalKeys        int    `json:"local_keys" yaml:"local_keys"`
	CooldownsCleared int    `json:"cooldowns_cleared" yaml:"cooldowns_cleared"`
}

func ToAbuseAlertDTO(alert domain.AbuseAlert) AbuseAlertDTO {
	return AbuseAlertDTO{
		Identifier: alert.Identifier,
		Endpoint:   alert.Endpoint,
		Requests:   alert.Requests,
		Limit:      alert.Limit,
		Timestamp:  alert.Timestamp,
		Severity:   string(alert.Severity),
	}
}

func ToAbuseAlertListResponse(alerts []domain.AbuseAlert) *AbuseAlertListResponse {
	items := make([]AbuseAlertDTO, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, ToAbuseAlertDTO(alert))
	}
	return &AbuseAlertListResponse{
		Alerts: items,
		Count:  len(items),
	}
}
