package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionService tracks successful deployments. All of its writes run
// after the token already exists on-chain, so every persistence step is
// best-effort: failures are logged and swallowed, never surfaced as a
// failure of the deployment itself.
type TransactionService interface {
	// TrackDeployment builds the transaction record for a successful
	// deployment and persists it plus its side indexes. The returned record
	// is valid even when persistence fails.
	TrackDeployment(ctx context.Context, req *models.DeploymentRequest, network *models.NetworkConfig, result *models.DeploymentResult, imageURL string) *models.TokenTransaction
	GetTransactionByID(id string) (*models.TokenTransaction, error)
	GetTransactionByTokenAddress(tokenAddress string) (*models.TokenTransaction, error)
	ListTransactionsByFid(fid int64) ([]models.TokenTransaction, error)
}

type transactionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(db *gorm.DB, logger *zap.Logger) TransactionService {
	return &transactionService{db: db, logger: logger.Named("tx")}
}

func (s *transactionService) TrackDeployment(ctx context.Context, req *models.DeploymentRequest, network *models.NetworkConfig, result *models.DeploymentResult, imageURL string) *models.TokenTransaction {
	record := &models.TokenTransaction{
		ID:            uuid.New().String(),
		TokenAddress:  result.TokenAddress,
		TxHash:        result.TxHash,
		Fid:           req.Fid,
		Name:          req.Name,
		Symbol:        req.Symbol,
		ImageURL:      imageURL,
		FeePercentage: req.FeePercentage,
		ChainID:       network.ChainID,
		Network:       network.Name,
		CreatedAt:     time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error("failed to persist transaction record",
			zap.String("token_address", record.TokenAddress), zap.Error(err))
	}

	if req.Fid != nil {
		userToken := &models.UserToken{
			Fid:           *req.Fid,
			TokenAddress:  result.TokenAddress,
			TransactionID: record.ID,
		}
		if err := s.db.WithContext(ctx).Create(userToken).Error; err != nil {
			s.logger.Error("failed to index token for requester",
				zap.Int64("fid", *req.Fid),
				zap.String("token_address", result.TokenAddress), zap.Error(err))
		}
	}

	if req.CastContext != nil {
		s.attachCastContext(ctx, record, req.CastContext)
	}

	return record
}

// attachCastContext stores the optional social reference on the record.
func (s *transactionService) attachCastContext(ctx context.Context, record *models.TokenTransaction, cast *models.CastContext) {
	payload := models.JSON{
		"type": string(cast.Type),
		"hash": cast.Hash,
	}
	if cast.ParentHash != "" {
		payload["parentHash"] = cast.ParentHash
	}
	if cast.Author != nil {
		payload["author"] = map[string]interface{}{
			"fid":      cast.Author.Fid,
			"username": cast.Author.Username,
		}
	}

	err := s.db.WithContext(ctx).Model(&models.TokenTransaction{}).
		Where("id = ?", record.ID).
		Update("cast_context", payload).Error
	if err != nil {
		s.logger.Error("failed to attach cast context",
			zap.String("transaction_id", record.ID), zap.Error(err))
		return
	}
	record.CastContext = payload
}

// GetTransactionByID returns the transaction record by its id
func (s *transactionService) GetTransactionByID(id string) (*models.TokenTransaction, error) {
	var record models.TokenTransaction
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTransactionByTokenAddress returns the transaction record for a token
func (s *transactionService) GetTransactionByTokenAddress(tokenAddress string) (*models.TokenTransaction, error) {
	var record models.TokenTransaction
	err := s.db.Where("token_address = ?", tokenAddress).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTransactionsByFid returns all transaction records for a requester
func (s *transactionService) ListTransactionsByFid(fid int64) ([]models.TokenTransaction, error) {
	var records []models.TokenTransaction
	err := s.db.Where("fid = ?", fid).Order("created_at desc").Find(&records).Error
	return records, err
}
