package services

import (
	"github.com/rxtech-lab/launchpad-api/internal/config"
	"github.com/rxtech-lab/launchpad-api/internal/models"
)

// NetworkService resolves which target chain a deployment goes to.
type NetworkService interface {
	ResolveNetwork() (*models.NetworkConfig, error)
}

type networkService struct {
	network string
}

// NewNetworkService creates a new NetworkService for the configured network
// selector value.
func NewNetworkService(network string) NetworkService {
	return &networkService{network: network}
}

// ResolveNetwork maps the configured selector to a fixed chain identity.
// An unset selector resolves to the test chain so that misconfiguration can
// never reach mainnet. An unrecognized selector is a configuration fault.
func (s *networkService) ResolveNetwork() (*models.NetworkConfig, error) {
	switch s.network {
	case config.NetworkBase:
		return &models.NetworkConfig{
			ChainID:   config.BaseMainnetChainID,
			Name:      config.NetworkBase,
			IsMainnet: true,
			RPC:       config.GetEnvRPCURL(config.NetworkBase),
		}, nil
	case config.NetworkBaseSepolia, "":
		return &models.NetworkConfig{
			ChainID:   config.BaseSepoliaChainID,
			Name:      config.NetworkBaseSepolia,
			IsMainnet: false,
			RPC:       config.GetEnvRPCURL(config.NetworkBaseSepolia),
		}, nil
	default:
		return nil, models.NewAppError(models.ErrorKindConfiguration, "unrecognized network %q", s.network)
	}
}
