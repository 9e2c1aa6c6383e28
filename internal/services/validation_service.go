package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"github.com/rxtech-lab/launchpad-api/internal/utils"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted token image (10 MiB).
const MaxImageSize = 10 << 20

// MaxNameLength and the symbol bounds apply after sanitization.
const (
	MaxNameLength   = 32
	MinSymbolLength = 3
	MaxSymbolLength = 8
)

var allowedImageMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// RawDeployRequest is the unvalidated inbound form payload.
type RawDeployRequest struct {
	Name                 string
	Symbol               string
	ImageData            []byte
	ImageMime            string
	Fid                  string
	CastContext          string
	CreatorFeePercentage string
}

type ValidationService interface {
	ValidateDeployRequest(raw RawDeployRequest) (*models.DeploymentRequest, error)
}

type validationService struct {
	validator     *validator.Validate
	defaultFeePct int
	logger        *zap.Logger
}

// NewValidationService creates a new ValidationService. defaultFeePct is
// the creator reward percentage substituted for missing or unusable fee
// inputs.
func NewValidationService(defaultFeePct int, logger *zap.Logger) ValidationService {
	return &validationService{
		validator:     validator.New(),
		defaultFeePct: defaultFeePct,
		logger:        logger.Named("validation"),
	}
}

// ValidateDeployRequest normalizes and validates a raw deployment request.
// It runs before any network call is made; a rejected request has zero side
// effects.
func (s *validationService) ValidateDeployRequest(raw RawDeployRequest) (*models.DeploymentRequest, error) {
	// Missing required fields are reported together, not one at a time.
	var missing []string
	if strings.TrimSpace(raw.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(raw.Symbol) == "" {
		missing = append(missing, "symbol")
	}
	if len(raw.ImageData) == 0 {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return nil, models.NewAppError(models.ErrorKindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}

	name := utils.SanitizeTokenText(raw.Name)
	if name == "" || len(name) > MaxNameLength {
		return nil, models.NewAppError(models.ErrorKindValidation, "name must be between 1 and %d characters after sanitization", MaxNameLength)
	}

	symbol := utils.SanitizeTokenText(raw.Symbol)
	if len(symbol) < MinSymbolLength || len(symbol) > MaxSymbolLength {
		return nil, models.NewAppError(models.ErrorKindValidation, "symbol must be between %d and %d characters", MinSymbolLength, MaxSymbolLength)
	}

	if len(raw.ImageData) > MaxImageSize {
		return nil, models.NewAppError(models.ErrorKindValidation, "image exceeds maximum size of %d bytes", MaxImageSize)
	}
	mime := strings.ToLower(strings.TrimSpace(raw.ImageMime))
	if !allowedImageMimes[mime] {
		return nil, models.NewAppError(models.ErrorKindValidation, "unsupported image type %q", raw.ImageMime)
	}

	var fid *int64
	if strings.TrimSpace(raw.Fid) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(raw.Fid), 10, 64)
		if err != nil || parsed <= 0 {
			return nil, models.NewAppError(models.ErrorKindValidation, "invalid fid %q", raw.Fid)
		}
		fid = &parsed
	}

	castContext, err := s.parseCastContext(raw.CastContext)
	if err != nil {
		return nil, err
	}

	req := &models.DeploymentRequest{
		Name:          name,
		Symbol:        symbol,
		ImageData:     raw.ImageData,
		ImageMime:     mime,
		Fid:           fid,
		CastContext:   castContext,
		FeePercentage: s.resolveFeePercentage(raw.CreatorFeePercentage),
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, models.WrapError(models.ErrorKindValidation, err, "invalid deployment request")
	}

	return req, nil
}

// parseCastContext parses the optional cast context JSON. A malformed
// payload is a hard validation error; a recognized-but-irrelevant context
// type is treated as absent; an unrecognized type is rejected.
func (s *validationService) parseCastContext(raw string) (*models.CastContext, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ctx models.CastContext
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		return nil, models.WrapError(models.ErrorKindValidation, err, "castContext is not valid JSON")
	}

	switch ctx.Type {
	case models.CastContextTypeCast:
		return &ctx, nil
	case models.CastContextTypeNotification:
		return nil, nil
	default:
		return nil, models.NewAppError(models.ErrorKindValidation, "unrecognized castContext type %q", ctx.Type)
	}
}

// resolveFeePercentage falls back to the configured default on a missing,
// non-numeric or out-of-range fee input. This permissiveness is intentional
// policy, distinct from the hard rejections above: a bad fee never fails a
// deployment.
func (s *validationService) resolveFeePercentage(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return s.defaultFeePct
	}
	pct, err := strconv.Atoi(trimmed)
	if err != nil || pct < 0 || pct > 100 {
		s.logger.Debug("falling back to default creator fee", zap.String("input", trimmed), zap.Int("default", s.defaultFeePct))
		return s.defaultFeePct
	}
	return pct
}
