package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RPCClient represents an Ethereum JSON-RPC client
type RPCClient struct {
	URL     string
	client  *http.Client
	timeout time.Duration
}

// NewRPCClient creates a new RPC client with the given URL
func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:     url,
		client:  &http.Client{},
		timeout: 30 * time.Second,
	}
}

// SetTimeout sets the timeout for RPC requests
func (r *RPCClient) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
	r.client.Timeout = timeout
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents an RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TransactionReceipt represents an Ethereum transaction receipt
type TransactionReceipt struct {
	TransactionHash   string `json:"transactionHash"`
	TransactionIndex  string `json:"transactionIndex"`
	BlockHash         string `json:"blockHash"`
	BlockNumber       string `json:"blockNumber"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	GasUsed           string `json:"gasUsed"`
	ContractAddress   string `json:"contractAddress"`
	Status            string `json:"status"`
	From              string `json:"from"`
	To                string `json:"to"`
}

// Succeeded reports whether the receipt status indicates success.
// Status "0x1" means success, "0x0" means the transaction reverted.
func (t *TransactionReceipt) Succeeded() bool {
	return t.Status == "0x1"
}

// BlockTransaction is the subset of a block transaction needed to locate
// contract creations.
type BlockTransaction struct {
	Hash string  `json:"hash"`
	To   *string `json:"to"`
}

// Block represents an Ethereum block with its transactions
type Block struct {
	Number       string             `json:"number"`
	Transactions []BlockTransaction `json:"transactions"`
}

// Call makes a JSON-RPC call
func (r *RPCClient) Call(ctx context.Context, method string, params []interface{}) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return &response, nil
}

// GetTransactionReceipt gets the transaction receipt for a given hash
func (r *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error) {
	response, err := r.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, err
	}

	if response.Result == nil {
		return nil, fmt.Errorf("transaction not found or not yet mined")
	}

	receiptData, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt data: %w", err)
	}

	var receipt TransactionReceipt
	if err := json.Unmarshal(receiptData, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}

	return &receipt, nil
}

// WaitForReceipt polls for the receipt of txHash until it is mined or the
// context is cancelled. A mined-but-reverted receipt is returned without
// error; the caller inspects Succeeded.
func (r *RPCClient) WaitForReceipt(ctx context.Context, txHash string, pollInterval time.Duration) (*TransactionReceipt, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	for {
		receipt, err := r.GetTransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for receipt of %s: %w", txHash, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// GetBlockNumber gets the current block number
func (r *RPCClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	response, err := r.Call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}

	hexNumber, ok := response.Result.(string)
	if !ok {
		return 0, fmt.Errorf("invalid block number format")
	}

	var blockNumber uint64
	if _, err := fmt.Sscanf(hexNumber, "0x%x", &blockNumber); err != nil {
		return 0, fmt.Errorf("failed to parse block number %q: %w", hexNumber, err)
	}

	return blockNumber, nil
}

// GetBlockByNumber gets a block with full transactions by its number
func (r *RPCClient) GetBlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	response, err := r.Call(ctx, "eth_getBlockByNumber", []interface{}{fmt.Sprintf("0x%x", number), true})
	if err != nil {
		return nil, err
	}

	if response.Result == nil {
		return nil, fmt.Errorf("block %d not found", number)
	}

	blockData, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal block data: %w", err)
	}

	var block Block
	if err := json.Unmarshal(blockData, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}

	return &block, nil
}

// FindContractCreationReceipt scans the most recent lookback blocks for the
// contract-creation transaction of contractAddress and returns its receipt.
// Used when the deployment service does not report a transaction hash
// synchronously; the hash is recovered from the chain rather than
// fabricated.
func (r *RPCClient) FindContractCreationReceipt(ctx context.Context, contractAddress string, lookback uint64) (*TransactionReceipt, error) {
	latest, err := r.GetBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	start := uint64(0)
	if latest > lookback {
		start = latest - lookback
	}

	want := strings.ToLower(contractAddress)
	for number := latest; number >= start; number-- {
		block, err := r.GetBlockByNumber(ctx, number)
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Transactions {
			// Contract creations have no recipient.
			if tx.To != nil {
				continue
			}
			receipt, err := r.GetTransactionReceipt(ctx, tx.Hash)
			if err != nil {
				continue
			}
			if strings.ToLower(receipt.ContractAddress) == want {
				return receipt, nil
			}
		}

		if number == 0 {
			break
		}
	}

	return nil, fmt.Errorf("no contract creation found for %s in last %d blocks", contractAddress, lookback)
}
