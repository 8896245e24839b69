package scanapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/models"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// The proxy module relays raw JSON-RPC through the indexed API. The data
// service uses these as the alternate source for single-value reads when the
// node is unreachable.

// LatestBlockNumber returns the head height via eth_blockNumber.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	const op = "proxy.eth_blockNumber"
	result, err := c.get(ctx, "proxy", "eth_blockNumber", nil)
	if err != nil {
		return 0, err
	}
	n, err := decodeHexUint(result)
	if err != nil {
		return 0, errs.Parse(op, err)
	}
	return n, nil
}

// GasPrice returns the suggested gas price via eth_gasPrice.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	const op = "proxy.eth_gasPrice"
	result, err := c.get(ctx, "proxy", "eth_gasPrice", nil)
	if err != nil {
		return nil, err
	}
	price, err := decodeHexBig(result)
	if err != nil {
		return nil, errs.Parse(op, err)
	}
	return price, nil
}

type proxyTx struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Nonce       string `json:"nonce"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
}

func (t *proxyTx) toTransaction() (*models.Transaction, error) {
	if t.Hash == "" {
		return nil, fmt.Errorf("transaction missing hash")
	}
	out := &models.Transaction{
		Hash:  t.Hash,
		From:  t.From,
		To:    t.To,
		Input: t.Input,
	}
	var err error
	if out.Value, err = hexBigOrZero(t.Value); err != nil {
		return nil, err
	}
	if out.GasPrice, err = hexBigOrZero(t.GasPrice); err != nil {
		return nil, err
	}
	if out.Nonce, err = hexUintOrZero(t.Nonce); err != nil {
		return nil, err
	}
	if out.Gas, err = hexUintOrZero(t.Gas); err != nil {
		return nil, err
	}
	// Pending transactions carry null block fields.
	if t.BlockNumber != "" {
		if out.BlockNumber, err = hexUintOrZero(t.BlockNumber); err != nil {
			return nil, err
		}
		out.BlockHash = t.BlockHash
	}
	return out, nil
}

// TransactionByHash returns a transaction via eth_getTransactionByHash.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	const op = "proxy.eth_getTransactionByHash"
	result, err := c.get(ctx, "proxy", "eth_getTransactionByHash", url.Values{"txhash": {hash}})
	if err != nil {
		return nil, err
	}
	if isJSONNull(result) {
		return nil, &errs.BlockchainError{Op: op, Message: "not found"}
	}

	var raw proxyTx
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, errs.Parse(op, err)
	}
	tx, err := raw.toTransaction()
	if err != nil {
		return nil, errs.Parse(op, err)
	}
	return tx, nil
}

type proxyReceipt struct {
	TransactionHash   string            `json:"transactionHash"`
	Status            string            `json:"status"`
	BlockNumber       string            `json:"blockNumber"`
	GasUsed           string            `json:"gasUsed"`
	EffectiveGasPrice string            `json:"effectiveGasPrice"`
	ContractAddress   string            `json:"contractAddress"`
	Logs              []json.RawMessage `json:"logs"`
}

// TransactionReceipt returns a receipt via eth_getTransactionReceipt.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	const op = "proxy.eth_getTransactionReceipt"
	result, err := c.get(ctx, "proxy", "eth_getTransactionReceipt", url.Values{"txhash": {hash}})
	if err != nil {
		return nil, err
	}
	if isJSONNull(result) {
		return nil, &errs.BlockchainError{Op: op, Message: "not found"}
	}

	var raw proxyReceipt
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, errs.Parse(op, err)
	}

	out := &models.Receipt{
		TxHash:          raw.TransactionHash,
		ContractAddress: raw.ContractAddress,
		LogCount:        len(raw.Logs),
	}
	if out.Status, err = hexUintOrZero(raw.Status); err != nil {
		return nil, errs.Parse(op, err)
	}
	if out.BlockNumber, err = hexUintOrZero(raw.BlockNumber); err != nil {
		return nil, errs.Parse(op, err)
	}
	if out.GasUsed, err = hexUintOrZero(raw.GasUsed); err != nil {
		return nil, errs.Parse(op, err)
	}
	if out.EffectiveGasPrice, err = hexBigOrZero(raw.EffectiveGasPrice); err != nil {
		return nil, errs.Parse(op, err)
	}
	return out, nil
}

type proxyBlock struct {
	Number       string    `json:"number"`
	Hash         string    `json:"hash"`
	ParentHash   string    `json:"parentHash"`
	Timestamp    string    `json:"timestamp"`
	Miner        string    `json:"miner"`
	GasUsed      string    `json:"gasUsed"`
	GasLimit     string    `json:"gasLimit"`
	BaseFee      string    `json:"baseFeePerGas"`
	Transactions []proxyTx `json:"transactions"`
}

// BlockByNumber returns a block with full bodies via eth_getBlockByNumber.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*models.Block, error) {
	const op = "proxy.eth_getBlockByNumber"
	result, err := c.get(ctx, "proxy", "eth_getBlockByNumber", url.Values{
		"tag":     {hexutil.EncodeUint64(number)},
		"boolean": {"true"},
	})
	if err != nil {
		return nil, err
	}
	if isJSONNull(result) {
		return nil, &errs.BlockchainError{Op: op, Message: "not found"}
	}

	var raw proxyBlock
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, errs.Parse(op, err)
	}

	out := &models.Block{
		Hash:       raw.Hash,
		ParentHash: raw.ParentHash,
		Miner:      raw.Miner,
		TxCount:    len(raw.Transactions),
	}
	if out.Number, err = hexUintOrZero(raw.Number); err != nil {
		return nil, errs.Parse(op, err)
	}
	if out.GasUsed, err = hexUintOrZero(raw.GasUsed); err != nil {
		return nil, errs.Parse(op, err)
	}
	if out.GasLimit, err = hexUintOrZero(raw.GasLimit); err != nil {
		return nil, errs.Parse(op, err)
	}
	if raw.BaseFee != "" {
		if out.BaseFee, err = hexBigOrZero(raw.BaseFee); err != nil {
			return nil, errs.Parse(op, err)
		}
	}
	ts, err := hexUintOrZero(raw.Timestamp)
	if err != nil {
		return nil, errs.Parse(op, err)
	}
	out.Timestamp = time.Unix(int64(ts), 0)

	for _, rawTx := range raw.Transactions {
		tx, err := rawTx.toTransaction()
		if err != nil {
			// Malformed rows are dropped, not the block.
			continue
		}
		tx.BlockNumber = out.Number
		tx.BlockHash = out.Hash
		tx.Timestamp = out.Timestamp
		out.Transactions = append(out.Transactions, *tx)
	}
	return out, nil
}

func decodeHexUint(result json.RawMessage) (uint64, error) {
	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(raw)
}

func decodeHexBig(result json.RawMessage) (*big.Int, error) {
	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, err
	}
	return hexutil.DecodeBig(raw)
}

func hexUintOrZero(s string) (uint64, error) {
	if s == "" || s == "0x" {
		return 0, nil
	}
	return hexutil.DecodeUint64(s)
}

func hexBigOrZero(s string) (*big.Int, error) {
	if s == "" || s == "0x" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig(s)
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
