package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxtech-lab/launchpad-api/internal/config"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"github.com/rxtech-lab/launchpad-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testTokenAddress = "0x5555555555555555555555555555555555555555"

type fakePipeline struct {
	record  *models.TokenTransaction
	err     error
	lastReq *models.DeploymentRequest
}

func (f *fakePipeline) Execute(ctx context.Context, req *models.DeploymentRequest) (*models.TokenTransaction, error) {
	f.lastReq = req
	return f.record, f.err
}

type fakeQueue struct {
	jobs    map[string]*models.QueuedJob
	nextID  string
	err     error
	lastReq *models.DeploymentRequest
}

func (f *fakeQueue) Enqueue(ctx context.Context, req *models.DeploymentRequest, priority models.JobPriority) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.nextID, nil
}

func (f *fakeQueue) GetJob(jobID string) (*models.QueuedJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return job, nil
}

func (f *fakeQueue) ProcessJob(ctx context.Context, jobID string) error { return nil }
func (f *fakeQueue) Start(ctx context.Context)                          {}
func (f *fakeQueue) Stop()                                              {}

type fakeTxService struct {
	record *models.TokenTransaction
}

func (f *fakeTxService) TrackDeployment(ctx context.Context, req *models.DeploymentRequest, network *models.NetworkConfig, result *models.DeploymentResult, imageURL string) *models.TokenTransaction {
	return f.record
}

func (f *fakeTxService) GetTransactionByID(id string) (*models.TokenTransaction, error) {
	if f.record == nil || f.record.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.record, nil
}

func (f *fakeTxService) GetTransactionByTokenAddress(tokenAddress string) (*models.TokenTransaction, error) {
	if f.record == nil || f.record.TokenAddress != tokenAddress {
		return nil, gorm.ErrRecordNotFound
	}
	return f.record, nil
}

func (f *fakeTxService) ListTransactionsByFid(fid int64) ([]models.TokenTransaction, error) {
	return nil, nil
}

type serverFixture struct {
	server   *APIServer
	pipeline *fakePipeline
	queue    *fakeQueue
	tx       *fakeTxService
}

func newTestServer(t *testing.T, origins []string) *serverFixture {
	t.Helper()
	cfg := &config.Config{
		Network:              config.NetworkBaseSepolia,
		DefaultCreatorFeePct: 40,
		AllowedOrigins:       origins,
	}

	logger := zap.NewNop()
	fixture := &serverFixture{
		pipeline: &fakePipeline{},
		queue:    &fakeQueue{jobs: map[string]*models.QueuedJob{}},
		tx:       &fakeTxService{},
	}
	fixture.server = NewAPIServer(cfg,
		services.NewValidationService(cfg.DefaultCreatorFeePct, logger),
		services.NewNetworkService(cfg.Network),
		fixture.pipeline,
		fixture.queue,
		fixture.tx,
		logger)
	return fixture
}

type formField struct{ key, value string }

func deployForm(t *testing.T, withImage bool, fields ...formField) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range fields {
		require.NoError(t, writer.WriteField(f.key, f.value))
	}
	if withImage {
		part, err := writer.CreatePart(map[string][]string{
			"Content-Disposition": {`form-data; name="image"; filename="token.png"`},
			"Content-Type":        {"image/png"},
		})
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postDeploy(t *testing.T, fixture *serverFixture, withImage bool, fields ...formField) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, contentType := deployForm(t, withImage, fields...)
	req := httptest.NewRequest(http.MethodPost, "/api/deploy", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := fixture.server.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	return resp, parsed
}

func validFields() []formField {
	return []formField{
		{"name", "My Token"},
		{"symbol", "MTK"},
	}
}

func TestHandleDeploy(t *testing.T) {
	t.Run("successful deployment returns the record", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		hash := "0xhash"
		fixture.pipeline.record = &models.TokenTransaction{
			ID:           "tx-1",
			TokenAddress: testTokenAddress,
			TxHash:       &hash,
			ImageURL:     "https://img.example/t.png",
			Network:      "base-sepolia",
			ChainID:      84532,
		}

		resp, body := postDeploy(t, fixture, true, validFields()...)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, testTokenAddress, body["tokenAddress"])
		assert.Equal(t, "0xhash", body["txHash"])
		assert.Equal(t, "base-sepolia", body["network"])
		assert.Equal(t, float64(84532), body["chainId"])
	})

	t.Run("missing fields are reported together", func(t *testing.T) {
		fixture := newTestServer(t, nil)

		resp, body := postDeploy(t, fixture, false)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "name")
		assert.Contains(t, body["error"], "symbol")
		assert.Contains(t, body["error"], "image")

		details := body["errorDetails"].(map[string]interface{})
		assert.Equal(t, string(models.ErrorKindValidation), details["type"])
	})

	t.Run("rejected requests never reach the pipeline", func(t *testing.T) {
		fixture := newTestServer(t, nil)

		postDeploy(t, fixture, false)
		assert.Nil(t, fixture.pipeline.lastReq)
	})

	t.Run("wallet requirement failures map to 400", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		fixture.pipeline.err = models.NewAppError(models.ErrorKindWalletRequirement, "wallet does not have creator rewards enabled")

		resp, body := postDeploy(t, fixture, true, validFields()...)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		details := body["errorDetails"].(map[string]interface{})
		assert.Equal(t, string(models.ErrorKindWalletRequirement), details["type"])
		assert.NotEmpty(t, details["userMessage"])
	})

	t.Run("deployment failures map to 500", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		fixture.pipeline.err = &models.AppError{
			Kind:    models.ErrorKindSDKDeployment,
			Message: "deployment failed after 3 attempts",
			Code:    "ECONNREFUSED",
		}

		resp, body := postDeploy(t, fixture, true, validFields()...)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		details := body["errorDetails"].(map[string]interface{})
		assert.Equal(t, string(models.ErrorKindSDKDeployment), details["type"])
		assert.Equal(t, "ECONNREFUSED", details["code"])
	})

	t.Run("async submission enqueues and returns a status url", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		fixture.queue.nextID = "job-1"

		fields := append(validFields(), formField{"async", "true"}, formField{"fid", "42"})
		resp, body := postDeploy(t, fixture, true, fields...)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "job-1", body["transactionId"])
		assert.Equal(t, "/api/deploy/status/job-1", body["statusUrl"])

		// The queued request is the validated one, not the raw form.
		require.NotNil(t, fixture.queue.lastReq)
		require.NotNil(t, fixture.queue.lastReq.Fid)
		assert.Equal(t, int64(42), *fixture.queue.lastReq.Fid)
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		fixture := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/deploy", nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHandleDeployStatus(t *testing.T) {
	t.Run("completed job reports its outcome", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		hash := "0xhash"
		fixture.queue.jobs["job-1"] = &models.QueuedJob{
			ID:            "job-1",
			State:         models.JobStateCompleted,
			Priority:      models.JobPriorityNormal,
			TokenAddress:  testTokenAddress,
			TxHash:        &hash,
			TransactionID: "tx-1",
		}

		req := httptest.NewRequest(http.MethodGet, "/api/deploy/status/job-1", nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "completed", body["state"])
		assert.Equal(t, testTokenAddress, body["tokenAddress"])
		assert.Equal(t, "tx-1", body["transactionId"])
	})

	t.Run("failed job carries its error classification", func(t *testing.T) {
		fixture := newTestServer(t, nil)
		fixture.queue.jobs["job-2"] = &models.QueuedJob{
			ID:           "job-2",
			State:        models.JobStateFailed,
			ErrorKind:    string(models.ErrorKindSDKDeployment),
			ErrorMessage: "deployment failed after 3 attempts",
		}

		req := httptest.NewRequest(http.MethodGet, "/api/deploy/status/job-2", nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "failed", body["state"])
		assert.Contains(t, body["error"], "3 attempts")
		details := body["errorDetails"].(map[string]interface{})
		assert.Equal(t, string(models.ErrorKindSDKDeployment), details["type"])
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		fixture := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/deploy/status/nope", nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleTokenLookup(t *testing.T) {
	fixture := newTestServer(t, nil)
	fixture.tx.record = &models.TokenTransaction{ID: "tx-1", TokenAddress: testTokenAddress, Symbol: "MTK"}

	t.Run("known token returns the record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tokens/"+testTokenAddress, nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "MTK", body["symbol"])
	})

	t.Run("unknown token returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tokens/0x0000000000000000000000000000000000000001", nil)
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCORS(t *testing.T) {
	t.Run("allow-listed origin is echoed on preflight", func(t *testing.T) {
		fixture := newTestServer(t, []string{"https://app.example.com"})

		req := httptest.NewRequest(http.MethodOptions, "/api/deploy", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		fixture := newTestServer(t, []string{"https://app.example.com"})

		req := httptest.NewRequest(http.MethodOptions, "/api/deploy", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard applies only when configured", func(t *testing.T) {
		fixture := newTestServer(t, []string{"*"})

		req := httptest.NewRequest(http.MethodOptions, "/api/deploy", nil)
		req.Header.Set("Origin", "https://anything.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty allow-list disables cross-origin access", func(t *testing.T) {
		fixture := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodOptions, "/api/deploy", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := fixture.server.App().Test(req)
		require.NoError(t, err)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
