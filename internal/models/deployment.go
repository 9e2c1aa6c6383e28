package models

import "time"

// CastContextType identifies the social context that originated a
// deployment request.
type CastContextType string

const (
	// CastContextTypeCast is attached to the resulting transaction record.
	CastContextTypeCast CastContextType = "cast"
	// CastContextTypeNotification is recognized but carries nothing useful
	// for deployment, so it is accepted and dropped.
	CastContextTypeNotification CastContextType = "notification"
)

// CastAuthor is the author of the cast that originated the request.
type CastAuthor struct {
	Fid      int64  `json:"fid"`
	Username string `json:"username,omitempty"`
}

// CastContext is an optional reference to the social post behind a
// deployment request. Purely informational.
type CastContext struct {
	Type       CastContextType `json:"type"`
	Hash       string          `json:"hash,omitempty"`
	ParentHash string          `json:"parentHash,omitempty"`
	Author     *CastAuthor     `json:"author,omitempty"`
}

// DeploymentRequest is a validated token deployment request. Immutable once
// produced by the validation service.
type DeploymentRequest struct {
	Name          string       `json:"name" validate:"required,max=32"`
	Symbol        string       `json:"symbol" validate:"required,min=3,max=8"`
	ImageData     []byte       `json:"image_data" validate:"required"`
	ImageMime     string       `json:"image_mime" validate:"required"`
	Fid           *int64       `json:"fid,omitempty"`
	CastContext   *CastContext `json:"cast_context,omitempty"`
	FeePercentage int          `json:"fee_percentage" validate:"gte=0,lte=100"`
}

// NetworkConfig is the resolved target chain for a deployment. Read-only
// after resolution.
type NetworkConfig struct {
	ChainID   int64  `json:"chain_id"`
	Name      string `json:"name"`
	IsMainnet bool   `json:"is_mainnet"`
	RPC       string `json:"rpc"`
}

// WalletSource records which resolution path produced the wallet addresses.
type WalletSource string

const (
	WalletSourceOperatorDefault WalletSource = "operator_default"
	WalletSourceUserWallet      WalletSource = "user_wallet"
)

// WalletResolution is the per-request admin/reward address decision. Never
// cached across requests.
type WalletResolution struct {
	AdminAddress           string       `json:"admin_address"`
	RewardRecipientAddress string       `json:"reward_recipient_address"`
	Source                 WalletSource `json:"source"`
}

// AttemptOutcome is the result of a single deployment attempt.
type AttemptOutcome string

const (
	AttemptOutcomeSuccess          AttemptOutcome = "success"
	AttemptOutcomeRetryableFailure AttemptOutcome = "retryable_failure"
	AttemptOutcomeTerminalFailure  AttemptOutcome = "terminal_failure"
)

// DeploymentAttempt is one entry in the append-only attempt sequence of a
// logical deployment. The sequence length never exceeds the retry bound.
type DeploymentAttempt struct {
	AttemptNumber int            `json:"attempt_number"`
	StartedAt     time.Time      `json:"started_at"`
	Outcome       AttemptOutcome `json:"outcome"`
	Err           *AppError      `json:"error,omitempty"`
}

// DeploymentResult is the terminal success outcome of the executor: a token
// address and, when the chain reported one, the transaction hash. TxHash is
// nil when no receipt could be located; it is never fabricated.
type DeploymentResult struct {
	TokenAddress string              `json:"token_address"`
	TxHash       *string             `json:"tx_hash,omitempty"`
	Attempts     []DeploymentAttempt `json:"attempts"`
}
