// Package rpc wraps a node's JSON-RPC interface behind typed reads.
// Every call runs under the configured timeout; transport failures surface as
// errs.NetworkError, node rejections as errs.BlockchainError.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/metrics"
	"github.com/Belloabraham121/warpscan/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

const source = "rpc"

// Client is the RPC adapter. One long-lived connection is shared by the data
// service and every subscription task; the raw rpc.Client and the typed
// ethclient ride the same transport.
type Client struct {
	rawClient *gethrpc.Client
	ethClient *ethclient.Client
	endpoint  string
	timeout   time.Duration
	chainID   *big.Int
	signer    types.Signer
}

// Dial connects to the node at rpcURL. chainID drives transaction sender
// recovery and never triggers a network call here.
func Dial(ctx context.Context, rpcURL string, chainID uint64, timeout time.Duration) (*Client, error) {
	raw, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errs.Network("dial", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	id := new(big.Int).SetUint64(chainID)
	return &Client{
		rawClient: raw,
		ethClient: ethclient.NewClient(raw),
		endpoint:  rpcURL,
		timeout:   timeout,
		chainID:   id,
		signer:    types.LatestSignerForChainID(id),
	}, nil
}

// Close tears down the shared connection.
func (c *Client) Close() {
	if c.rawClient != nil {
		c.rawClient.Close()
	}
}

// SupportsSubscriptions reports whether the connection can carry push
// subscriptions (websocket or IPC endpoints; plain HTTP cannot).
func (c *Client) SupportsSubscriptions() bool {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ws", "wss":
		return true
	case "", "file":
		return strings.HasSuffix(u.Path, ".ipc")
	}
	return false
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// wrapErr classifies a call failure. JSON-RPC errors are well-formed requests
// the node rejected; everything else is transport.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	metrics.BackendErrorsTotal.WithLabelValues(source, op).Inc()
	if errors.Is(err, ethereum.NotFound) {
		return &errs.BlockchainError{Op: op, Message: "not found"}
	}
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return &errs.BlockchainError{Op: op, Message: err.Error()}
	}
	return errs.Network(op, err)
}

func observe(op string, start time.Time) {
	metrics.BackendRequestsTotal.WithLabelValues(source, op).Inc()
	metrics.BackendRequestDuration.WithLabelValues(source, op).Observe(time.Since(start).Seconds())
}

// Balance returns the wei balance of address at the latest block.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getBalance", time.Now())

	bal, err := c.ethClient.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, wrapErr("eth_getBalance", err)
	}
	return bal, nil
}

// Nonce returns the confirmed transaction count of address.
func (c *Client) Nonce(ctx context.Context, address string) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getTransactionCount", time.Now())

	nonce, err := c.ethClient.NonceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, wrapErr("eth_getTransactionCount", err)
	}
	return nonce, nil
}

// Code returns the deployed bytecode at address, empty for EOAs.
func (c *Client) Code(ctx context.Context, address string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getCode", time.Now())

	code, err := c.ethClient.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, wrapErr("eth_getCode", err)
	}
	return code, nil
}

// LatestBlockNumber returns the current head height.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_blockNumber", time.Now())

	n, err := c.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, wrapErr("eth_blockNumber", err)
	}
	return n, nil
}

// BlockByNumber returns the block at number with full transaction bodies.
// A nil number fetches the latest block.
func (c *Client) BlockByNumber(ctx context.Context, number *big.Int) (*models.Block, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getBlockByNumber", time.Now())

	block, err := c.ethClient.BlockByNumber(ctx, number)
	if err != nil {
		return nil, wrapErr("eth_getBlockByNumber", err)
	}
	return c.convertBlock(block), nil
}

// TransactionByHash returns the transaction, mined or pending.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getTransactionByHash", time.Now())

	tx, pending, err := c.ethClient.TransactionByHash(ctx, common.HexToHash(hash))
	if err != nil {
		return nil, wrapErr("eth_getTransactionByHash", err)
	}

	converted := c.convertTransaction(tx)
	if !pending {
		// Without the receipt a mined transaction would be misreported as
		// pending, so the lookup failure surfaces instead.
		receipt, err := c.ethClient.TransactionReceipt(ctx, common.HexToHash(hash))
		if err != nil {
			return nil, wrapErr("eth_getTransactionByHash", err)
		}
		converted.BlockNumber = receipt.BlockNumber.Uint64()
		converted.BlockHash = receipt.BlockHash.Hex()
		converted.Failed = receipt.Status == types.ReceiptStatusFailed
	}
	return converted, nil
}

// TransactionReceipt returns the execution outcome of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_getTransactionReceipt", time.Now())

	receipt, err := c.ethClient.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		return nil, wrapErr("eth_getTransactionReceipt", err)
	}

	out := &models.Receipt{
		TxHash:            receipt.TxHash.Hex(),
		Status:            receipt.Status,
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: receipt.EffectiveGasPrice,
		LogCount:          len(receipt.Logs),
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.ContractAddress != (common.Address{}) {
		out.ContractAddress = receipt.ContractAddress.Hex()
	}
	return out, nil
}

// GasPrice returns the node's suggested gas price.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_gasPrice", time.Now())

	price, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, wrapErr("eth_gasPrice", err)
	}
	return price, nil
}

// ChainID asks the node for its chain id.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_chainId", time.Now())

	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, wrapErr("eth_chainId", err)
	}
	return id.Uint64(), nil
}

// EstimateGas estimates the gas needed for the described call.
func (c *Client) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("eth_estimateGas", time.Now())

	msg := ethereum.CallMsg{
		From:  common.HexToAddress(from),
		Value: value,
		Data:  data,
	}
	if to != "" {
		toAddr := common.HexToAddress(to)
		msg.To = &toAddr
	}

	gas, err := c.ethClient.EstimateGas(ctx, msg)
	if err != nil {
		return 0, wrapErr("eth_estimateGas", err)
	}
	return gas, nil
}

// SubscribeNewHeads opens a push subscription for head changes. Only valid
// when SupportsSubscriptions reports true.
func (c *Client) SubscribeNewHeads(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	sub, err := c.ethClient.SubscribeNewHead(ctx, ch)
	if err != nil {
		return nil, wrapErr("eth_subscribe", err)
	}
	return sub, nil
}

func (c *Client) convertBlock(block *types.Block) *models.Block {
	out := &models.Block{
		Number:     block.NumberU64(),
		Hash:       block.Hash().Hex(),
		ParentHash: block.ParentHash().Hex(),
		Timestamp:  time.Unix(int64(block.Time()), 0),
		Miner:      block.Coinbase().Hex(),
		GasUsed:    block.GasUsed(),
		GasLimit:   block.GasLimit(),
		BaseFee:    block.BaseFee(),
		TxCount:    len(block.Transactions()),
	}
	for _, tx := range block.Transactions() {
		converted := c.convertTransaction(tx)
		converted.BlockNumber = out.Number
		converted.BlockHash = out.Hash
		converted.Timestamp = out.Timestamp
		out.Transactions = append(out.Transactions, *converted)
	}
	return out
}

func (c *Client) convertTransaction(tx *types.Transaction) *models.Transaction {
	out := &models.Transaction{
		Hash:     tx.Hash().Hex(),
		Value:    tx.Value(),
		Nonce:    tx.Nonce(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}
	if from, err := types.Sender(c.signer, tx); err == nil {
		out.From = from.Hex()
	}
	if to := tx.To(); to != nil {
		out.To = to.Hex()
	}
	if data := tx.Data(); len(data) > 0 {
		out.Input = fmt.Sprintf("0x%x", data)
	}
	return out
}
