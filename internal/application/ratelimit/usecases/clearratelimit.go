package usecases

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	dto "github.com/campusportal/admission/internal/application/ratelimit/dto"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/shared/errors"
	"github.com/campusportal/admission/internal/shared/logger"
)

// WindowResetter deletes the sliding windows of an identifier.
type WindowResetter interface {
	ResetIdentifier(ctx context.Context, identifier domain.Identifier, endpoint string) (int, error)
}

// CooldownClearer drops alert cooldowns held for an identifier.
type CooldownClearer interface {
	ClearIdentifier(ctx context.Context, identifier string) (int, error)
}

// ClearRateLimitCommand names what to reset. An empty Endpoint resets every
// endpoint of the identifier.
type ClearRateLimitCommand struct {
	Identifier string
	Endpoint   string
}

// ClearRateLimitUseCase handles admin resets of rate limit windows.
type ClearRateLimitUseCase struct {
	distributed WindowResetter
	local       WindowResetter
	cooldowns   CooldownClearer
	logger      logger.Interface
}

// NewClearRateLimitUseCase creates a new ClearRateLimitUseCase. cooldowns may be nil.
func NewClearRateLimitUseCase(
	distributed WindowResetter,
	local WindowResetter,
	cooldowns CooldownClearer,
	log logger.Interface,
) *ClearRateLimitUseCase {
	return &ClearRateLimitUseCase{
		distributed: distributed,
		local:       local,
		cooldowns:   cooldowns,
		logger:      log,
	}
}

// Execute resets the windows of cmd.Identifier in both stores. The local
// store is always reset; a distributed store failure is reported as
// service unavailable.
func (uc *ClearRateLimitUseCase) Execute(ctx context.Context, cmd ClearRateLimitCommand) (*dto.ClearRateLimitResult, error) {
	identifier, err := domain.ParseIdentifier(cmd.Identifier)
	if err != nil {
		return nil, errors.NewValidationError("identifier must look like user:<id> or ip:<address>", err.Error())
	}
	endpoint := strings.TrimSpace(cmd.Endpoint)

	result := &dto.ClearRateLimitResult{
		Identifier: identifier.String(),
		Endpoint:   endpoint,
	}

	localKeys, err := uc.local.ResetIdentifier(ctx, identifier, endpoint)
	if err != nil {
		uc.logger.Warnw("failed to reset local rate limit windows", "identifier", result.Identifier, "error", err)
	}
	result.LocalKeys = localKeys

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		removed, err := uc.distributed.ResetIdentifier(gctx, identifier, endpoint)
		result.DistributedKeys = removed
		return err
	})
	if uc.cooldowns != nil && endpoint == "" {
		g.Go(func() error {
			cleared, err := uc.cooldowns.ClearIdentifier(gctx, identifier.String())
			if err != nil {
				uc.logger.Warnw("failed to clear abuse alert cooldowns", "identifier", result.Identifier, "error", err)
				return nil
			}
			result.CooldownsCleared = cleared
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		uc.logger.Errorw("failed to clear distributed rate limit",
			"identifier", result.Identifier,
			"endpoint", endpoint,
			"error", err,
		)
		return nil, errors.NewServiceUnavailableError("rate limit store unavailable, limit not cleared").WithCause(err)
	}

	uc.logger.Infow("rate limit cleared",
		"identifier", result.Identifier,
		"endpoint", endpoint,
		"distributed_keys", result.DistributedKeys,
		"local_keys", result.LocalKeys,
	)
	return result, nil
}
