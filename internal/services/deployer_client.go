package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rxtech-lab/launchpad-api/internal/models"
)

const defaultSubmitTimeout = 60 * time.Second

// httpTokenDeployer talks to the external deployment service over HTTP.
type httpTokenDeployer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPTokenDeployer creates a TokenDeployer that POSTs deployment
// parameters to the given endpoint.
func NewHTTPTokenDeployer(endpoint, apiKey string) TokenDeployer {
	return &httpTokenDeployer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultSubmitTimeout},
	}
}

// submitResponse accepts the service's heterogeneous response shapes; the
// token address and hash have appeared under several field names across
// service versions. Normalization into SubmitResult happens here, at the
// boundary, so the pipeline only ever sees the canonical shape.
type submitResponse struct {
	TokenAddress    string `json:"tokenAddress"`
	Address         string `json:"address"`
	ContractAddress string `json:"contractAddress"`
	TxHash          string `json:"txHash"`
	TransactionHash string `json:"transactionHash"`
	Hash            string `json:"hash"`
	Error           string `json:"error"`
	Code            string `json:"code"`
}

func (r *submitResponse) tokenAddress() string {
	for _, v := range []string{r.TokenAddress, r.Address, r.ContractAddress} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r *submitResponse) txHash() string {
	for _, v := range []string{r.TxHash, r.TransactionHash, r.Hash} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (d *httpTokenDeployer) SubmitDeployment(ctx context.Context, params DeployParams) (*SubmitResult, error) {
	if d.endpoint == "" {
		return nil, models.NewAppError(models.ErrorKindConfiguration, "DEPLOYER_ENDPOINT is not set")
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deploy params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, models.WrapError(models.ErrorKindNetwork, err, "deployment service request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.WrapError(models.ErrorKindNetwork, err, "failed to read deployment service response")
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, models.WrapError(models.ErrorKindNetwork, err, "failed to decode deployment service response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := &models.AppError{
			Kind:    models.ErrorKindNetwork,
			Message: fmt.Sprintf("deployment service returned status %d", resp.StatusCode),
			Code:    parsed.Code,
		}
		if parsed.Error != "" {
			appErr.Message = parsed.Error
		}
		return nil, appErr
	}

	return &SubmitResult{
		TokenAddress: parsed.tokenAddress(),
		TxHash:       parsed.txHash(),
	}, nil
}
