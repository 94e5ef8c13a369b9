package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RedeemRequest struct {
	RewardID string `json:"reward_id" binding:"required"`
}

// QRPayload is what gets encoded into the physical-reward QR code. Plain
// JSON, exactly what the cashier app decodes back.
type QRPayload struct {
	Phone           string `json:"phone"`
	Reward          string `json:"reward"`
	PointsUsed      int    `json:"points_used"`
	ExpiryTimestamp int64  `json:"expiry_timestamp"` // unix milliseconds
}

type RedeemResponse struct {
	Type           string                `json:"type"` // PHYSICAL or TIME_EXTENSION
	RedemptionID   string                `json:"redemption_id"`
	RedemptionCode string                `json:"redemption_code,omitempty"` // PHYSICAL
	QRCodeData     string                `json:"qr_code_data,omitempty"`    // PHYSICAL
	ExpiresAt      string                `json:"expires_at,omitempty"`      // PHYSICAL
	Subscription   *SubscriptionResponse `json:"subscription,omitempty"`    // TIME_EXTENSION
	TimeAdded      string                `json:"time_added,omitempty"`      // TIME_EXTENSION
	PointsUsed     int                   `json:"points_used"`
	NewBalance     int                   `json:"new_balance"`
}

type RedemptionConfirmation struct {
	RedemptionID string `json:"redemption_id"`
	RewardName   string `json:"reward_name"`
	ClientName   string `json:"client_name"`
	ClientPhone  string `json:"client_phone"`
	PointsUsed   int    `json:"points_used"`
	RedeemedAt   string `json:"redeemed_at"`
}

type RewardListing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PointsCost  int     `json:"points_cost"`
	Type        string  `json:"type"`
	TimeValue   *int    `json:"time_value,omitempty"`
	TimeUnit    *string `json:"time_unit,omitempty"`
}

// --- Interface ---

// RedemptionService converts loyalty points into rewards. Physical rewards
// go through a time-boxed cashier confirmation; time extensions apply to the
// active subscription immediately. Points are spent on claim, not on pickup:
// an expired physical claim has already cost its points, matching the
// original platform behavior.
type RedemptionService interface {
	ListRewards(ctx context.Context) ([]RewardListing, error)
	Redeem(ctx context.Context, userID string, req RedeemRequest) (*RedeemResponse, error)
	ConfirmPhysical(ctx context.Context, cashierID string, redemptionID string) (*RedemptionConfirmation, error)
	SweepExpired(ctx context.Context, actorID string) (int64, error)
}

type redemptionService struct {
	redemptionRepo repository.RedemptionRepository
	rewardRepo     repository.RewardRepository
	userRepo       repository.UserRepository
	subRepo        repository.SubscriptionRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	hub            *websocket.Hub
}

func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	rewardRepo repository.RewardRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) RedemptionService {
	return &redemptionService{
		redemptionRepo: redemptionRepo,
		rewardRepo:     rewardRepo,
		userRepo:       userRepo,
		subRepo:        subRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		hub:            hub,
	}
}

// --- Implementation ---

func (s *redemptionService) ListRewards(ctx context.Context) ([]RewardListing, error) {
	rewards, err := s.rewardRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	listings := make([]RewardListing, 0, len(rewards))
	for _, r := range rewards {
		listings = append(listings, RewardListing{
			ID:          r.ID.String(),
			Name:        r.Name,
			Description: r.Description,
			PointsCost:  r.PointsCost,
			Type:        r.Type,
			TimeValue:   r.TimeValue,
			TimeUnit:    r.TimeUnit,
		})
	}
	return listings, nil
}

func (s *redemptionService) Redeem(ctx context.Context, userID string, req RedeemRequest) (*RedeemResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, validationErr("invalid user id: %s", userID)
	}
	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		return nil, validationErr("invalid reward id: %s", req.RewardID)
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("user not found")
		}
		return nil, err
	}

	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("reward not found")
		}
		return nil, err
	}
	if !reward.IsActive {
		return nil, conflictErr("reward is no longer available")
	}
	if user.LoyaltyPoints < reward.PointsCost {
		return nil, insufficientErr("insufficient loyalty points: have %d, need %d", user.LoyaltyPoints, reward.PointsCost)
	}

	switch reward.Type {
	case model.RewardPhysical:
		return s.redeemPhysical(ctx, user, reward)
	case model.RewardTimeExtension:
		return s.redeemTimeExtension(ctx, user, reward)
	}
	return nil, validationErr("unknown reward type %q", reward.Type)
}

// redeemPhysical issues a 3-minute QR code and spends the points right away.
// The guarded decrement inside the transaction keeps a racing second claim
// from driving the balance negative.
func (s *redemptionService) redeemPhysical(ctx context.Context, user *model.User, reward *model.LoyaltyReward) (*RedeemResponse, error) {
	expiry := time.Now().Add(model.RedemptionCodeTTL)
	payload, err := json.Marshal(QRPayload{
		Phone:           user.PhoneOrEmpty(),
		Reward:          reward.Name,
		PointsUsed:      reward.PointsCost,
		ExpiryTimestamp: expiry.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	qrCode := string(payload)

	redemption := &model.Redemption{
		UserID:       user.ID,
		RewardID:     reward.ID,
		PointsUsed:   reward.PointsCost,
		Status:       model.RedemptionPending,
		QRCode:       &qrCode,
		QRCodeExpiry: &expiry,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ok, spendErr := s.userRepo.SpendPoints(txCtx, user.ID, reward.PointsCost)
		if spendErr != nil {
			return spendErr
		}
		if !ok {
			return insufficientErr("insufficient loyalty points")
		}
		if createErr := s.redemptionRepo.Create(txCtx, redemption); createErr != nil {
			return createErr
		}
		writeAudit(txCtx, s.auditRepo, user.ID.String(), model.ActionCreateRedemption, redemption.ID.String(), reward.Name, map[string]interface{}{
			"type":        reward.Type,
			"points_used": reward.PointsCost,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Notify(websocket.EventRedemptionPending, map[string]interface{}{
		"redemption_id": redemption.ID.String(),
		"code":          redemption.ShortCode(),
		"reward":        reward.Name,
	})

	return &RedeemResponse{
		Type:           model.RewardPhysical,
		RedemptionID:   redemption.ID.String(),
		RedemptionCode: redemption.ShortCode(),
		QRCodeData:     qrCode,
		ExpiresAt:      expiry.Format(time.RFC3339),
		PointsUsed:     reward.PointsCost,
		NewBalance:     user.LoyaltyPoints - reward.PointsCost,
	}, nil
}

// redeemTimeExtension applies the reward straight to the client's active
// subscription: extend, deduct, and record the redemption as one unit.
func (s *redemptionService) redeemTimeExtension(ctx context.Context, user *model.User, reward *model.LoyaltyReward) (*RedeemResponse, error) {
	delta := reward.ExtensionDelta()
	if delta <= 0 {
		return nil, validationErr("reward %q has no valid time value", reward.Name)
	}

	var redemption *model.Redemption
	var extended *model.Subscription
	now := time.Now()

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sub, subErr := s.subRepo.FindActiveForUserForUpdate(txCtx, user.ID, now)
		if subErr != nil {
			if errors.Is(subErr, gorm.ErrRecordNotFound) {
				return conflictErr("no active subscription to extend")
			}
			return subErr
		}

		newEnd := sub.EndDate.Add(delta)
		if extErr := s.subRepo.ExtendEndDate(txCtx, sub.ID, newEnd); extErr != nil {
			return extErr
		}

		ok, spendErr := s.userRepo.SpendPoints(txCtx, user.ID, reward.PointsCost)
		if spendErr != nil {
			return spendErr
		}
		if !ok {
			return insufficientErr("insufficient loyalty points")
		}

		redeemedAt := now
		redemption = &model.Redemption{
			UserID:     user.ID,
			RewardID:   reward.ID,
			PointsUsed: reward.PointsCost,
			Status:     model.RedemptionRedeemed,
			RedeemedAt: &redeemedAt,
		}
		if createErr := s.redemptionRepo.Create(txCtx, redemption); createErr != nil {
			return createErr
		}

		sub.EndDate = newEnd
		extended = sub

		writeAudit(txCtx, s.auditRepo, user.ID.String(), model.ActionCreateRedemption, redemption.ID.String(), reward.Name, map[string]interface{}{
			"type":         reward.Type,
			"points_used":  reward.PointsCost,
			"new_end_date": newEnd.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	subResp := toSubscriptionResponse(extended)
	return &RedeemResponse{
		Type:         model.RewardTimeExtension,
		RedemptionID: redemption.ID.String(),
		Subscription: &subResp,
		TimeAdded:    delta.String(),
		PointsUsed:   reward.PointsCost,
		NewBalance:   user.LoyaltyPoints - reward.PointsCost,
	}, nil
}

// ConfirmPhysical is the cashier hand-over. Points were already spent at
// claim time, so only the status flips here.
func (s *redemptionService) ConfirmPhysical(ctx context.Context, cashierID string, redemptionID string) (*RedemptionConfirmation, error) {
	id, err := uuid.Parse(redemptionID)
	if err != nil {
		return nil, validationErr("invalid redemption id: %s", redemptionID)
	}

	redemption, err := s.redemptionRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("redemption not found")
		}
		return nil, err
	}

	if redemption.Status != model.RedemptionPending {
		return nil, stateErr("redemption has already been processed")
	}

	now := time.Now()
	if redemption.QRCodeExpiry != nil && now.After(*redemption.QRCodeExpiry) {
		return nil, expiredErr("redemption code expired")
	}

	if err := s.redemptionRepo.MarkRedeemed(ctx, id, now); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, cashierID, model.ActionConfirmRedemption, redemption.ID.String(), "", map[string]interface{}{
		"points_used": redemption.PointsUsed,
	})

	confirmation := &RedemptionConfirmation{
		RedemptionID: redemption.ID.String(),
		PointsUsed:   redemption.PointsUsed,
		RedeemedAt:   now.Format(time.RFC3339),
	}
	if redemption.Reward != nil {
		confirmation.RewardName = redemption.Reward.Name
	}
	if redemption.User != nil {
		confirmation.ClientName = redemption.User.DisplayName()
		confirmation.ClientPhone = redemption.User.PhoneOrEmpty()
	}
	return confirmation, nil
}

// SweepExpired deletes PENDING redemptions past their QR expiry. The spent
// points stay spent; there is no reversal path.
func (s *redemptionService) SweepExpired(ctx context.Context, actorID string) (int64, error) {
	deleted, err := s.redemptionRepo.DeleteExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		writeAudit(ctx, s.auditRepo, actorID, model.ActionSweepRedemptions, "", "", map[string]interface{}{
			"deleted": deleted,
		})
	}
	return deleted, nil
}
