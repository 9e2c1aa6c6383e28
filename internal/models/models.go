package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSON is a custom type for JSON columns
type JSON map[string]interface{}

// Implement the driver.Valuer interface for JSON type
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Implement the sql.Scanner interface for JSON type
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		*j = nil
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}

	if len(bytes) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// WalletRecord is a user-linked wallet keyed by requester identity (fid).
// Records carry a TTL; an expired record is treated as absent.
type WalletRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Fid           int64     `gorm:"uniqueIndex;not null" json:"fid"`
	Address       string    `gorm:"not null" json:"address"`
	EnableRewards bool      `gorm:"default:false" json:"enable_rewards"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TokenTransaction is the record created after a successful deployment. A
// deployment request yields at most one of these.
type TokenTransaction struct {
	ID            string  `gorm:"primaryKey" json:"transaction_id"`
	TokenAddress  string  `gorm:"index" json:"token_address"`
	TxHash        *string `json:"tx_hash,omitempty"`
	Fid           *int64  `gorm:"index" json:"fid,omitempty"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	ImageURL      string  `json:"image_url"`
	FeePercentage int     `json:"fee_percentage"`
	ChainID       int64   `json:"chain_id"`
	Network       string  `json:"network"`
	// CastContext is the optional social reference attached after the fact;
	// attachment is best-effort.
	CastContext JSON      `gorm:"type:text" json:"cast_context,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserToken associates a deployed token with a requester's token list.
// Rows are additive, keyed by token address, never overwritten.
type UserToken struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Fid           int64     `gorm:"index;not null" json:"fid"`
	TokenAddress  string    `gorm:"index;not null" json:"token_address"`
	TransactionID string    `gorm:"not null" json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type JobState string

const (
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

type JobPriority string

const (
	JobPriorityNormal JobPriority = "normal"
	JobPriorityHigh   JobPriority = "high"
)

// QueuedJob is a deferred deployment owned exclusively by the queue.
// Workers acquire at most one active attempt per job id.
type QueuedJob struct {
	ID       string            `gorm:"primaryKey" json:"job_id"`
	Priority JobPriority       `gorm:"default:normal;index" json:"priority"`
	State    JobState          `gorm:"default:queued;index" json:"state"`
	Request  DeploymentRequest `gorm:"serializer:json" json:"request"`

	// Terminal outcome, populated when the job completes or fails.
	TokenAddress  string  `json:"token_address,omitempty"`
	TxHash        *string `json:"tx_hash,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	ErrorKind     string  `json:"error_kind,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
