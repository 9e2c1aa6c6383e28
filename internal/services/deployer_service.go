package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/launchpad-api/internal/metrics"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"github.com/rxtech-lab/launchpad-api/internal/retry"
	"github.com/rxtech-lab/launchpad-api/internal/utils"
	"go.uber.org/zap"
)

// creationScanLookback bounds the block scan used to recover a transaction
// hash the deployment service did not report.
const creationScanLookback = 50

const defaultConfirmTimeout = 2 * time.Minute

// DeployParams is the canonical request shape sent to the external
// deployment service.
type DeployParams struct {
	Name                     string `json:"name"`
	Symbol                   string `json:"symbol"`
	ImageURI                 string `json:"imageUri,omitempty"`
	ChainID                  int64  `json:"chainId"`
	TokenAdmin               string `json:"tokenAdmin"`
	RewardRecipient          string `json:"rewardRecipient"`
	CreatorFeePercentage     int    `json:"creatorFeePercentage"`
	InterfaceAdmin           string `json:"interfaceAdmin"`
	InterfaceRewardRecipient string `json:"interfaceRewardRecipient"`
	InitialPoolSize          string `json:"initialPoolSize"`
	CastHash                 string `json:"castHash,omitempty"`
}

// SubmitResult is the normalized response of the deployment service. TxHash
// is empty when the service did not report one synchronously.
type SubmitResult struct {
	TokenAddress string
	TxHash       string
}

// TokenDeployer is the external blockchain-deployment service.
type TokenDeployer interface {
	SubmitDeployment(ctx context.Context, params DeployParams) (*SubmitResult, error)
}

// ChainClient reads receipts and blocks from the target chain.
type ChainClient interface {
	WaitForReceipt(ctx context.Context, txHash string, pollInterval time.Duration) (*utils.TransactionReceipt, error)
	FindContractCreationReceipt(ctx context.Context, contractAddress string, lookback uint64) (*utils.TransactionReceipt, error)
}

// DeployerService drives the external deployment service under the bounded
// retry policy and waits for on-chain confirmation.
type DeployerService interface {
	Deploy(ctx context.Context, req *models.DeploymentRequest, network *models.NetworkConfig, wallet *models.WalletResolution) (*models.DeploymentResult, error)
}

type deployerService struct {
	deployer       TokenDeployer
	chain          ChainClient
	policy         retry.Policy
	interfaceAdmin string
	interfaceRwd   string
	poolSize       string
	confirmTimeout time.Duration
	logger         *zap.Logger
}

// NewDeployerService creates a new DeployerService.
func NewDeployerService(deployer TokenDeployer, chain ChainClient, policy retry.Policy, interfaceAdmin, interfaceRewardRecipient, initialPoolSize string, logger *zap.Logger) DeployerService {
	return &deployerService{
		deployer:       deployer,
		chain:          chain,
		policy:         policy,
		interfaceAdmin: interfaceAdmin,
		interfaceRwd:   interfaceRewardRecipient,
		poolSize:       initialPoolSize,
		confirmTimeout: defaultConfirmTimeout,
		logger:         logger.Named("deployer"),
	}
}

// Deploy submits the deployment, retrying transport and service failures up
// to the attempt bound with exponential backoff. Attempts are strictly
// sequential. Once the bound is exhausted the last failure is surfaced as a
// terminal SDK_DEPLOYMENT_ERROR.
func (s *deployerService) Deploy(ctx context.Context, req *models.DeploymentRequest, network *models.NetworkConfig, wallet *models.WalletResolution) (*models.DeploymentResult, error) {
	// Zero operator interface addresses are a configuration fault; abort
	// before the first attempt.
	if err := s.checkInterfaceAddresses(); err != nil {
		return nil, err
	}

	params := DeployParams{
		Name:                     req.Name,
		Symbol:                   req.Symbol,
		ChainID:                  network.ChainID,
		TokenAdmin:               wallet.AdminAddress,
		RewardRecipient:          wallet.RewardRecipientAddress,
		CreatorFeePercentage:     req.FeePercentage,
		InterfaceAdmin:           s.interfaceAdmin,
		InterfaceRewardRecipient: s.interfaceRwd,
		InitialPoolSize:          s.poolSize,
	}
	if req.CastContext != nil {
		params.CastHash = req.CastContext.Hash
	}

	started := time.Now()
	attempts := make([]models.DeploymentAttempt, 0, s.policy.MaxAttempts)
	var submitted SubmitResult

	err := retry.Do(ctx, s.policy, models.IsRetryable, func(ctx context.Context, attempt int) error {
		metrics.DeploymentAttempts.WithLabelValues(network.Name).Inc()
		if attempt > 1 {
			metrics.DeploymentRetries.WithLabelValues(network.Name).Inc()
		}

		attemptStart := time.Now()
		res, err := s.runAttempt(ctx, params)
		if err != nil {
			appErr := models.AsAppError(err)
			attempts = append(attempts, models.DeploymentAttempt{
				AttemptNumber: attempt,
				StartedAt:     attemptStart,
				Outcome:       models.AttemptOutcomeRetryableFailure,
				Err:           appErr,
			})
			s.logger.Warn("deployment attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.policy.MaxAttempts),
				zap.String("symbol", req.Symbol),
				zap.Error(appErr))
			return appErr
		}

		attempts = append(attempts, models.DeploymentAttempt{
			AttemptNumber: attempt,
			StartedAt:     attemptStart,
			Outcome:       models.AttemptOutcomeSuccess,
		})
		submitted = *res
		return nil
	})

	if err != nil {
		attempts[len(attempts)-1].Outcome = models.AttemptOutcomeTerminalFailure
		terminal := s.terminalError(err, len(attempts))
		metrics.DeploymentFailures.WithLabelValues(network.Name, string(terminal.Kind)).Inc()
		return nil, terminal
	}

	result := &models.DeploymentResult{
		TokenAddress: submitted.TokenAddress,
		Attempts:     attempts,
	}
	if submitted.TxHash != "" {
		hash := submitted.TxHash
		result.TxHash = &hash
	} else if hash, ok := s.recoverTxHash(ctx, submitted.TokenAddress); ok {
		result.TxHash = &hash
	}

	metrics.DeploymentsCompleted.WithLabelValues(network.Name).Inc()
	metrics.DeploymentDuration.WithLabelValues(network.Name).Observe(time.Since(started).Seconds())
	s.logger.Info("token deployed",
		zap.String("token_address", result.TokenAddress),
		zap.String("symbol", req.Symbol),
		zap.Int("attempts", len(attempts)))
	return result, nil
}

// runAttempt performs one submission and, when a transaction hash is
// available, blocks until the chain reports a receipt.
func (s *deployerService) runAttempt(ctx context.Context, params DeployParams) (*SubmitResult, error) {
	res, err := s.deployer.SubmitDeployment(ctx, params)
	if err != nil {
		if models.KindOf(err) != models.ErrorKindUnknown {
			return nil, err
		}
		return nil, models.WrapError(models.ErrorKindNetwork, err, "deployment service call failed")
	}
	if res == nil || res.TokenAddress == "" {
		return nil, models.NewAppError(models.ErrorKindNetwork, "deployment service returned no token address")
	}

	if res.TxHash != "" {
		confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()

		receipt, err := s.chain.WaitForReceipt(confirmCtx, res.TxHash, 0)
		if err != nil {
			return nil, models.WrapError(models.ErrorKindNetwork, err, "confirmation wait failed for %s", res.TxHash)
		}
		// A reverted receipt fails this attempt; it is retried like any
		// other failure.
		if !receipt.Succeeded() {
			return nil, models.NewAppError(models.ErrorKindNetwork, "transaction %s reverted on-chain", res.TxHash)
		}
	}

	return res, nil
}

// recoverTxHash scans recent blocks for the contract-creation receipt of
// tokenAddress. The hash is never synthesized; when the scan fails the
// record simply carries no hash.
func (s *deployerService) recoverTxHash(ctx context.Context, tokenAddress string) (string, bool) {
	scanCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	receipt, err := s.chain.FindContractCreationReceipt(scanCtx, tokenAddress, creationScanLookback)
	if err != nil {
		s.logger.Warn("could not recover transaction hash from chain",
			zap.String("token_address", tokenAddress), zap.Error(err))
		return "", false
	}
	return receipt.TransactionHash, true
}

func (s *deployerService) checkInterfaceAddresses() error {
	for _, addr := range []string{s.interfaceAdmin, s.interfaceRwd} {
		if !common.IsHexAddress(addr) {
			return models.NewAppError(models.ErrorKindConfiguration, "operator interface address %q is not a valid address", addr)
		}
		if common.HexToAddress(addr) == (common.Address{}) {
			return models.NewAppError(models.ErrorKindConfiguration, "operator interface address is the zero address")
		}
	}
	return nil
}

// terminalError converts an exhausted retryable failure into the
// SDK_DEPLOYMENT_ERROR surfaced to callers, preserving the underlying code
// and message for diagnostics. Non-retryable kinds pass through unchanged.
func (s *deployerService) terminalError(err error, attemptCount int) *models.AppError {
	appErr := models.AsAppError(err)
	switch appErr.Kind {
	case models.ErrorKindNetwork, models.ErrorKindUnknown:
		return &models.AppError{
			Kind:    models.ErrorKindSDKDeployment,
			Message: fmt.Sprintf("deployment failed after %d attempts: %s", attemptCount, appErr.Message),
			Code:    appErr.Code,
			Cause:   appErr,
		}
	default:
		return appErr
	}
}
