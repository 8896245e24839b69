// Package explorer is the source-agnostic read API the front end consumes.
// It owns the cache-aside policy, source selection between the node RPC and
// the indexed API, one-shot fallback for single-value reads, and
// degrade-to-empty for list-only reads.
package explorer

import (
	"context"
	"math/big"
	"regexp"
	"strings"

	"github.com/Belloabraham121/warpscan/internal/cache"
	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/models"
	"github.com/Belloabraham121/warpscan/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

// NodeBackend is the read surface of the RPC adapter.
type NodeBackend interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	Nonce(ctx context.Context, address string) (uint64, error)
	Code(ctx context.Context, address string) ([]byte, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*models.Block, error)
	TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error)
	TransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (uint64, error)
	EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error)
	ResolveName(ctx context.Context, address string) (string, error)
}

// IndexBackend is the read surface of the indexed-API adapter. List
// operations exist only here.
type IndexBackend interface {
	Available() bool
	AddressBalance(ctx context.Context, address string) (*big.Int, error)
	AddressTransactions(ctx context.Context, address string, startBlock, endBlock uint64, limit int) ([]models.Transaction, error)
	TokenTransfers(ctx context.Context, address string, startBlock, endBlock uint64, limit int) ([]models.Transfer, error)
	InternalTransactions(ctx context.Context, address string, startBlock, endBlock uint64, limit int) ([]models.Transfer, error)
	InternalTransactionsByHash(ctx context.Context, txHash string) ([]models.Transfer, error)
	TokenBalances(ctx context.Context, address string) ([]models.TokenBalance, error)
	TransactionByHash(ctx context.Context, hash string) (*models.Transaction, error)
	TransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error)
	BlockByNumber(ctx context.Context, number uint64) (*models.Block, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Service fans reads out to the two backends through the cache.
type Service struct {
	node      NodeBackend
	index     IndexBackend
	store     *cache.Store
	logger    *logger.Logger
	chainID   uint64
	localNode bool
	listLimit int
}

// New wires the data service. The adapters are shared handles owned by the
// caller; the service never closes them.
func New(node NodeBackend, index IndexBackend, store *cache.Store, log *logger.Logger, chainID uint64, localNode bool) *Service {
	return &Service{
		node:      node,
		index:     index,
		store:     store,
		logger:    log,
		chainID:   chainID,
		localNode: localNode,
		listLimit: 50,
	}
}

// preferIndex reports whether single-value reads should hit the indexed API
// first: an API key is configured and the node is not local.
func (s *Service) preferIndex() bool {
	return s.index != nil && s.index.Available() && !s.localNode
}

func (s *Service) indexAvailable() bool {
	return s.index != nil && s.index.Available()
}

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// validateAddress rejects malformed addresses before any network call.
func validateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return &errs.ValidationError{Field: "address", Reason: "not a hex address"}
	}
	return nil
}

// validateTxHash rejects malformed transaction hashes before any network call.
func validateTxHash(hash string) error {
	if !txHashPattern.MatchString(hash) {
		return &errs.ValidationError{Field: "transaction hash", Reason: "not a 32-byte hex hash"}
	}
	return nil
}

func cacheKey(s string) string {
	return strings.ToLower(s)
}
