package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ImageUploader stores a token image and returns its content URI. The
// actual storage backend (IPFS pinning, object store) lives behind this
// interface.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, mime string) (string, error)
}

type httpImageUploader struct {
	endpoint string
	client   *http.Client
}

// NewHTTPImageUploader creates an ImageUploader that POSTs the binary blob
// to the configured upload endpoint and reads back `{"uri": "..."}`.
func NewHTTPImageUploader(endpoint string) ImageUploader {
	return &httpImageUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *httpImageUploader) Upload(ctx context.Context, data []byte, mime string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mime)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image upload returned status %d", resp.StatusCode)
	}

	var parsed struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.URI == "" {
		return "", fmt.Errorf("upload response carried no uri")
	}
	return parsed.URI, nil
}

type noopImageUploader struct {
	logger *zap.Logger
}

// NewNoopImageUploader returns an uploader used when no upload endpoint is
// configured; deployments proceed with an empty image URL.
func NewNoopImageUploader(logger *zap.Logger) ImageUploader {
	return &noopImageUploader{logger: logger.Named("uploader")}
}

func (u *noopImageUploader) Upload(ctx context.Context, data []byte, mime string) (string, error) {
	u.logger.Warn("no upload endpoint configured, skipping image upload", zap.Int("size", len(data)))
	return "", nil
}
