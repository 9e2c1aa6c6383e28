package services

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/launchpad-api/internal/metrics"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WalletStore is the key-value store of user-linked wallets, keyed by
// requester identity. Lookups are read-only for the pipeline.
type WalletStore interface {
	// GetWallet returns the wallet record for fid, or (nil, nil) when no
	// usable record exists.
	GetWallet(ctx context.Context, fid int64) (*models.WalletRecord, error)
	// SetWallet upserts a wallet record with the given TTL.
	SetWallet(ctx context.Context, record *models.WalletRecord, ttl time.Duration) error
}

type gormWalletStore struct {
	db *gorm.DB
}

// NewWalletStore creates a gorm-backed WalletStore.
func NewWalletStore(db *gorm.DB) WalletStore {
	return &gormWalletStore{db: db}
}

func (s *gormWalletStore) GetWallet(ctx context.Context, fid int64) (*models.WalletRecord, error) {
	var record models.WalletRecord
	err := s.db.WithContext(ctx).
		Where("fid = ? AND expires_at > ?", fid, time.Now()).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *gormWalletStore) SetWallet(ctx context.Context, record *models.WalletRecord, ttl time.Duration) error {
	record.ExpiresAt = time.Now().Add(ttl)

	var existing models.WalletRecord
	err := s.db.WithContext(ctx).Where("fid = ?", record.Fid).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(record).Error
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"address":        record.Address,
		"enable_rewards": record.EnableRewards,
		"expires_at":     record.ExpiresAt,
	}).Error
}

// WalletService decides which admin/reward-recipient addresses a deployment
// uses: the requester's linked wallet or the operator fallback.
type WalletService interface {
	ResolveWallet(ctx context.Context, fid *int64) (*models.WalletResolution, error)
}

type walletService struct {
	store             WalletStore
	operatorAddress   string
	requireUserWallet bool
	logger            *zap.Logger
}

// NewWalletService creates a new WalletService. With requireUserWallet set,
// the resolver runs the strict creator-rewards-must-be-explicit policy:
// store failures and unusable records become fatal instead of falling back
// to the operator wallet.
func NewWalletService(store WalletStore, operatorAddress string, requireUserWallet bool, logger *zap.Logger) WalletService {
	return &walletService{
		store:             store,
		operatorAddress:   operatorAddress,
		requireUserWallet: requireUserWallet,
		logger:            logger.Named("wallet"),
	}
}

// ResolveWallet computes a fresh resolution for this request; results are
// never cached across requests.
func (s *walletService) ResolveWallet(ctx context.Context, fid *int64) (*models.WalletResolution, error) {
	if fid == nil {
		if s.requireUserWallet {
			return nil, models.NewAppError(models.ErrorKindFidRequired, "a requester fid is required when user wallets are mandatory")
		}
		// Zero-cost default path: no store lookup.
		return s.operatorResolution(), nil
	}

	record, err := s.store.GetWallet(ctx, *fid)
	if err != nil {
		metrics.WalletLookups.WithLabelValues("error").Inc()
		if s.requireUserWallet {
			// Fails closed under the strict policy.
			return nil, models.WrapError(models.ErrorKindWalletCheck, err, "wallet store lookup failed for fid %d", *fid)
		}
		s.logger.Warn("wallet store lookup failed, falling back to operator wallet",
			zap.Int64("fid", *fid), zap.Error(err))
		return s.operatorResolution(), nil
	}

	// A malformed stored address is treated the same as no record at all.
	if record != nil && !common.IsHexAddress(record.Address) {
		s.logger.Warn("stored wallet address is malformed, ignoring record",
			zap.Int64("fid", *fid), zap.String("address", record.Address))
		record = nil
	}

	if record == nil {
		metrics.WalletLookups.WithLabelValues("miss").Inc()
		if s.requireUserWallet {
			return nil, models.NewAppError(models.ErrorKindWalletRequirement, "no linked wallet found for fid %d", *fid)
		}
		return s.operatorResolution(), nil
	}

	if !record.EnableRewards {
		metrics.WalletLookups.WithLabelValues("rewards_disabled").Inc()
		if s.requireUserWallet {
			return nil, models.NewAppError(models.ErrorKindWalletRequirement, "creator rewards are not enabled for fid %d", *fid)
		}
		return s.operatorResolution(), nil
	}

	metrics.WalletLookups.WithLabelValues("hit").Inc()
	return &models.WalletResolution{
		AdminAddress:           record.Address,
		RewardRecipientAddress: record.Address,
		Source:                 models.WalletSourceUserWallet,
	}, nil
}

func (s *walletService) operatorResolution() *models.WalletResolution {
	return &models.WalletResolution{
		AdminAddress:           s.operatorAddress,
		RewardRecipientAddress: s.operatorAddress,
		Source:                 models.WalletSourceOperatorDefault,
	}
}
