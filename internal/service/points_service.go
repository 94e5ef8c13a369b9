package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

type AdjustPointsRequest struct {
	Phone     string `json:"phone" binding:"required"`
	Points    int    `json:"points" binding:"required,gt=0"`
	Operation string `json:"operation" binding:"required,oneof=add subtract"`
	Reason    string `json:"reason"`
}

type AdjustPointsResponse struct {
	UserID     string `json:"user_id"`
	Phone      string `json:"phone"`
	NewBalance int    `json:"new_balance"`
}

type PointsConfigRequest struct {
	Action      string `json:"action" binding:"required,oneof=HOURLY_BOOKING DAILY_BOOKING MONTHLY_BOOKING HOURLY_RENEWAL DAILY_RENEWAL MONTHLY_RENEWAL"`
	Points      int    `json:"points" binding:"required,gte=0"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// --- Interface ---

// PointsService is the loyalty ledger: it resolves how many points an action
// is worth and applies manual cashier adjustments. Booking and redemption
// flows mutate balances through their own transactions but resolve awards
// here.
type PointsService interface {
	PointsForAction(ctx context.Context, action string) int
	UpsertConfig(ctx context.Context, req PointsConfigRequest) (*model.PointsConfig, error)
	ListConfigs(ctx context.Context) ([]model.PointsConfig, error)
	AdjustPoints(ctx context.Context, cashierID string, req AdjustPointsRequest) (*AdjustPointsResponse, error)
}

type pointsService struct {
	configRepo repository.PointsConfigRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewPointsService(
	configRepo repository.PointsConfigRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PointsService {
	return &pointsService{
		configRepo: configRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// ActionForDuration builds the ledger action key for a confirmed booking:
// {DURATION}_{BOOKING|RENEWAL}.
func ActionForDuration(duration string, isRenewal bool) string {
	suffix := "BOOKING"
	if isRenewal {
		suffix = "RENEWAL"
	}
	switch duration {
	case model.DurationDaily:
		return "DAILY_" + suffix
	case model.DurationMonthly:
		return "MONTHLY_" + suffix
	default:
		return "HOURLY_" + suffix
	}
}

// PointsForAction looks up the configured award for an action, honoring only
// active rows, and falls back to the static default table. Unknown actions
// award zero.
func (s *pointsService) PointsForAction(ctx context.Context, action string) int {
	config, err := s.configRepo.FindByAction(ctx, action)
	if err == nil && config.IsActive {
		return config.Points
	}
	return model.DefaultPoints[action]
}

func (s *pointsService) UpsertConfig(ctx context.Context, req PointsConfigRequest) (*model.PointsConfig, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	config := &model.PointsConfig{
		Action:      req.Action,
		Points:      req.Points,
		Description: req.Description,
		IsActive:    isActive,
	}
	if err := s.configRepo.Upsert(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to save points config: %w", err)
	}
	return config, nil
}

func (s *pointsService) ListConfigs(ctx context.Context) ([]model.PointsConfig, error) {
	return s.configRepo.List(ctx)
}

// AdjustPoints is the cashier's manual add/subtract by client phone.
// Subtraction clamps at zero instead of failing.
func (s *pointsService) AdjustPoints(ctx context.Context, cashierID string, req AdjustPointsRequest) (*AdjustPointsResponse, error) {
	user, err := s.userRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("no client with phone %s", req.Phone)
		}
		return nil, err
	}
	if user.Role != model.RoleClient {
		return nil, validationErr("points can only be adjusted for clients")
	}

	var adjusted *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The clamp lives in the UPDATE itself, not in a balance read
		// here, so concurrent subtracts cannot race below zero.
		if req.Operation == "subtract" {
			if err := s.userRepo.DeductPointsClamped(txCtx, user.ID, req.Points); err != nil {
				return err
			}
		} else if err := s.userRepo.AddPoints(txCtx, user.ID, req.Points); err != nil {
			return err
		}

		var findErr error
		adjusted, findErr = s.userRepo.FindByID(txCtx, user.ID)
		if findErr != nil {
			return findErr
		}

		writeAudit(txCtx, s.auditRepo, cashierID, model.ActionAdjustPoints, user.ID.String(), user.DisplayName(), map[string]interface{}{
			"operation":   req.Operation,
			"points":      req.Points,
			"reason":      req.Reason,
			"new_balance": adjusted.LoyaltyPoints,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AdjustPointsResponse{
		UserID:     adjusted.ID.String(),
		Phone:      adjusted.PhoneOrEmpty(),
		NewBalance: adjusted.LoyaltyPoints,
	}, nil
}
