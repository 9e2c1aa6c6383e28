package services

import (
	"context"

	"github.com/rxtech-lab/launchpad-api/internal/models"
	"go.uber.org/zap"
)

// PipelineService runs a validated deployment request through the full
// pipeline: network selection, image upload, wallet resolution, deployment
// and tracking. It is the unit of work the queue defers.
type PipelineService interface {
	Execute(ctx context.Context, req *models.DeploymentRequest) (*models.TokenTransaction, error)
}

type pipelineService struct {
	network  NetworkService
	uploader ImageUploader
	wallet   WalletService
	deployer DeployerService
	tracker  TransactionService
	logger   *zap.Logger
}

// NewPipelineService wires the pipeline stages together.
func NewPipelineService(network NetworkService, uploader ImageUploader, wallet WalletService, deployer DeployerService, tracker TransactionService, logger *zap.Logger) PipelineService {
	return &pipelineService{
		network:  network,
		uploader: uploader,
		wallet:   wallet,
		deployer: deployer,
		tracker:  tracker,
		logger:   logger.Named("pipeline"),
	}
}

func (s *pipelineService) Execute(ctx context.Context, req *models.DeploymentRequest) (*models.TokenTransaction, error) {
	network, err := s.network.ResolveNetwork()
	if err != nil {
		return nil, err
	}

	imageURL, err := s.uploader.Upload(ctx, req.ImageData, req.ImageMime)
	if err != nil {
		return nil, models.WrapError(models.ErrorKindUnknown, err, "image upload failed")
	}

	wallet, err := s.wallet.ResolveWallet(ctx, req.Fid)
	if err != nil {
		return nil, err
	}

	result, err := s.deployer.Deploy(ctx, req, network, wallet)
	if err != nil {
		return nil, err
	}

	// The token exists on-chain from here on; tracking is best-effort and
	// cannot fail the deployment.
	record := s.tracker.TrackDeployment(ctx, req, network, result, imageURL)
	return record, nil
}
