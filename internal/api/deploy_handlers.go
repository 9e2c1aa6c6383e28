package api

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"github.com/rxtech-lab/launchpad-api/internal/services"
	"go.uber.org/zap"
)

type deployResponse struct {
	Success       bool    `json:"success"`
	TokenAddress  string  `json:"tokenAddress,omitempty"`
	TxHash        *string `json:"txHash"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	Network       string  `json:"network"`
	ChainID       int64   `json:"chainId"`
	TransactionID string  `json:"transactionId,omitempty"`
	StatusURL     string  `json:"statusUrl,omitempty"`
}

type errorDetails struct {
	Type        models.ErrorKind `json:"type"`
	UserMessage string           `json:"userMessage,omitempty"`
	Code        string           `json:"code,omitempty"`
}

type errorResponse struct {
	Success      bool          `json:"success"`
	Error        string        `json:"error"`
	ErrorDetails *errorDetails `json:"errorDetails,omitempty"`
}

// handleDeploy accepts the multipart deployment form, validates it and
// either runs the pipeline inline or defers it onto the queue when async
// submission is requested.
func (s *APIServer) handleDeploy(c *fiber.Ctx) error {
	raw := services.RawDeployRequest{
		Name:                 c.FormValue("name"),
		Symbol:               c.FormValue("symbol"),
		Fid:                  c.FormValue("fid"),
		CastContext:          c.FormValue("castContext"),
		CreatorFeePercentage: c.FormValue("creatorFeePercentage"),
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return s.respondError(c, models.WrapError(models.ErrorKindValidation, err, "could not read image upload"))
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return s.respondError(c, models.WrapError(models.ErrorKindValidation, err, "could not read image upload"))
		}
		raw.ImageData = data
		raw.ImageMime = fileHeader.Header.Get("Content-Type")
	}

	req, err := s.validation.ValidateDeployRequest(raw)
	if err != nil {
		return s.respondError(c, err)
	}

	network, err := s.network.ResolveNetwork()
	if err != nil {
		return s.respondError(c, err)
	}

	if c.FormValue("async") == "true" {
		priority := models.JobPriorityNormal
		if c.FormValue("priority") == "high" {
			priority = models.JobPriorityHigh
		}

		jobID, err := s.queue.Enqueue(c.UserContext(), req, priority)
		if err != nil {
			return s.respondError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(deployResponse{
			Success:       true,
			Network:       network.Name,
			ChainID:       network.ChainID,
			TransactionID: jobID,
			StatusURL:     "/api/deploy/status/" + jobID,
		})
	}

	record, err := s.pipeline.Execute(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(deployResponse{
		Success:      true,
		TokenAddress: record.TokenAddress,
		TxHash:       record.TxHash,
		ImageURL:     record.ImageURL,
		Network:      record.Network,
		ChainID:      record.ChainID,
	})
}

// handleDeployStatus lets callers poll a queued job by its id.
func (s *APIServer) handleDeployStatus(c *fiber.Ctx) error {
	job, err := s.queue.GetJob(c.Params("job_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Success: false,
			Error:   "job not found",
		})
	}

	body := fiber.Map{
		"success":    true,
		"jobId":      job.ID,
		"state":      job.State,
		"priority":   job.Priority,
		"enqueuedAt": job.EnqueuedAt,
	}
	switch job.State {
	case models.JobStateCompleted:
		body["tokenAddress"] = job.TokenAddress
		body["txHash"] = job.TxHash
		body["transactionId"] = job.TransactionID
	case models.JobStateFailed:
		body["error"] = job.ErrorMessage
		body["errorDetails"] = errorDetails{Type: models.ErrorKind(job.ErrorKind)}
	}

	return c.Status(fiber.StatusOK).JSON(body)
}

// handleTokenLookup returns the tracked transaction record for a token
// address.
func (s *APIServer) handleTokenLookup(c *fiber.Ctx) error {
	record, err := s.txService.GetTransactionByTokenAddress(c.Params("address"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Success: false,
			Error:   "token not found",
		})
	}
	return c.Status(fiber.StatusOK).JSON(record)
}

func (s *APIServer) respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	s.logger.Error("deployment request failed",
		zap.String("kind", string(appErr.Kind)),
		zap.Error(appErr))

	return c.Status(statusForKind(appErr.Kind)).JSON(errorResponse{
		Success: false,
		Error:   appErr.Message,
		ErrorDetails: &errorDetails{
			Type:        appErr.Kind,
			UserMessage: userMessageForKind(appErr.Kind),
			Code:        appErr.Code,
		},
	})
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindValidation, models.ErrorKindWalletRequirement, models.ErrorKindFidRequired:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func userMessageForKind(kind models.ErrorKind) string {
	switch kind {
	case models.ErrorKindValidation:
		return "Please check the token name, symbol and image and try again."
	case models.ErrorKindWalletRequirement:
		return "Link a wallet with creator rewards enabled before deploying."
	case models.ErrorKindFidRequired:
		return "A Farcaster account is required to deploy a token."
	case models.ErrorKindWalletCheck:
		return "We could not verify your wallet right now. Please try again later."
	case models.ErrorKindSDKDeployment, models.ErrorKindNetwork:
		return "The deployment could not be completed. Please try again later."
	case models.ErrorKindQueue:
		return "The deployment could not be scheduled. Please try again later."
	default:
		return "Something went wrong. Please try again later."
	}
}
