package server

import (
	"github.com/rxtech-lab/launchpad-api/internal/config"
	"github.com/rxtech-lab/launchpad-api/internal/retry"
	"github.com/rxtech-lab/launchpad-api/internal/services"
	"github.com/rxtech-lab/launchpad-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the wired pipeline for the entry point.
type Services struct {
	Validation  services.ValidationService
	Network     services.NetworkService
	Wallet      services.WalletService
	Deployer    services.DeployerService
	Transaction services.TransactionService
	Pipeline    services.PipelineService
	Queue       services.QueueService
}

// InitializeServices constructs the full pipeline with explicitly injected
// collaborators; no service holds hidden global state.
func InitializeServices(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*Services, error) {
	operatorAddress, err := cfg.OperatorAddress()
	if err != nil {
		return nil, err
	}

	networkService := services.NewNetworkService(cfg.Network)
	network, err := networkService.ResolveNetwork()
	if err != nil {
		return nil, err
	}

	var uploader services.ImageUploader
	if cfg.UploadEndpoint != "" {
		uploader = services.NewHTTPImageUploader(cfg.UploadEndpoint)
	} else {
		uploader = services.NewNoopImageUploader(logger)
	}

	walletStore := services.NewWalletStore(db)
	walletService := services.NewWalletService(walletStore, operatorAddress.Hex(), cfg.RequireUserWallet, logger)

	policy := retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    retry.DefaultPolicy().MaxDelay,
	}
	deployer := services.NewHTTPTokenDeployer(cfg.DeployerEndpoint, cfg.DeployerAPIKey)
	chainClient := utils.NewRPCClient(network.RPC)
	deployerService := services.NewDeployerService(deployer, chainClient, policy,
		cfg.InterfaceAdminAddress, cfg.InterfaceRewardRecipient, cfg.DefaultInitialPoolSize, logger)

	txService := services.NewTransactionService(db, logger)
	pipeline := services.NewPipelineService(networkService, uploader, walletService, deployerService, txService, logger)
	queue := services.NewQueueService(db, pipeline, logger)

	return &Services{
		Validation:  services.NewValidationService(cfg.DefaultCreatorFeePct, logger),
		Network:     networkService,
		Wallet:      walletService,
		Deployer:    deployerService,
		Transaction: txService,
		Pipeline:    pipeline,
		Queue:       queue,
	}, nil
}
