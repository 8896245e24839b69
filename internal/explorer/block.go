package explorer

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/Belloabraham121/warpscan/internal/cache"
	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/metrics"
	"github.com/Belloabraham121/warpscan/internal/models"
)

// GetBlockByNumber returns the block at number with full bodies, from the
// preferred source with one-shot fallback.
func (s *Service) GetBlockByNumber(ctx context.Context, number uint64) (*models.Block, error) {
	key := strconv.FormatUint(number, 10)
	if cached, ok := cache.Lookup[*models.Block](s.store, cache.KindBlock, key); ok {
		return cached, nil
	}

	block, err := s.fetchBlock(ctx, number)
	if err != nil {
		return nil, err
	}

	s.store.Put(cache.KindBlock, key, block)
	return block, nil
}

// GetLatestBlock resolves the current head and returns it with full bodies.
// The head number lookup is never cached; the block body is.
func (s *Service) GetLatestBlock(ctx context.Context) (*models.Block, error) {
	head, err := s.latestBlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetBlockByNumber(ctx, head)
}

func (s *Service) fetchBlock(ctx context.Context, number uint64) (*models.Block, error) {
	if s.preferIndex() {
		block, err := s.index.BlockByNumber(ctx, number)
		if err == nil {
			return block, nil
		}
		s.logger.Warn("index block fetch failed for %d, falling back to node: %v", number, err)
		metrics.FallbacksTotal.WithLabelValues("block").Inc()
		return s.node.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	}

	block, err := s.node.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err == nil {
		return block, nil
	}
	if !s.indexAvailable() {
		return nil, err
	}
	s.logger.Warn("node block fetch failed for %d, falling back to index: %v", number, err)
	metrics.FallbacksTotal.WithLabelValues("block").Inc()
	return s.index.BlockByNumber(ctx, number)
}

func (s *Service) latestBlockNumber(ctx context.Context) (uint64, error) {
	if s.preferIndex() {
		head, err := s.index.LatestBlockNumber(ctx)
		if err == nil {
			return head, nil
		}
		s.logger.Warn("index head lookup failed, falling back to node: %v", err)
		metrics.FallbacksTotal.WithLabelValues("head").Inc()
		return s.node.LatestBlockNumber(ctx)
	}

	head, err := s.node.LatestBlockNumber(ctx)
	if err == nil {
		return head, nil
	}
	if !s.indexAvailable() {
		return 0, err
	}
	s.logger.Warn("node head lookup failed, falling back to index: %v", err)
	metrics.FallbacksTotal.WithLabelValues("head").Inc()
	return s.index.LatestBlockNumber(ctx)
}

// EstimateGas estimates gas for the described call. Node-only; the indexed
// API cannot simulate execution.
func (s *Service) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	if err := validateAddress(from); err != nil {
		return 0, err
	}
	if to != "" {
		if err := validateAddress(to); err != nil {
			return 0, err
		}
	}
	return s.node.EstimateGas(ctx, from, to, value, data)
}

// GetGasPrices derives the three fee tiers from the suggested gas price:
// slow 90%, standard 100%, fast 120%.
func (s *Service) GetGasPrices(ctx context.Context) (*models.GasPrices, error) {
	price, err := s.fetchGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() < 0 {
		return nil, errs.Parse("gas_prices", errors.New("missing or negative price"))
	}

	scale := func(pct int64) *big.Int {
		v := new(big.Int).Mul(price, big.NewInt(pct))
		return v.Div(v, big.NewInt(100))
	}
	return &models.GasPrices{
		Slow:      scale(90),
		Standard:  new(big.Int).Set(price),
		Fast:      scale(120),
		UpdatedAt: time.Now(),
	}, nil
}

func (s *Service) fetchGasPrice(ctx context.Context) (*big.Int, error) {
	if s.preferIndex() {
		price, err := s.index.GasPrice(ctx)
		if err == nil {
			return price, nil
		}
		s.logger.Warn("index gas price failed, falling back to node: %v", err)
		metrics.FallbacksTotal.WithLabelValues("gas_price").Inc()
		return s.node.GasPrice(ctx)
	}

	price, err := s.node.GasPrice(ctx)
	if err == nil {
		return price, nil
	}
	if !s.indexAvailable() {
		return nil, err
	}
	s.logger.Warn("node gas price failed, falling back to index: %v", err)
	metrics.FallbacksTotal.WithLabelValues("gas_price").Inc()
	return s.index.GasPrice(ctx)
}

// ClearCache drops every cached entry; the UI exposes it as a manual refresh.
func (s *Service) ClearCache() {
	s.store.ClearAll()
}

// CacheStats reports the entry count per cache kind.
func (s *Service) CacheStats() map[cache.Kind]int {
	return s.store.Stats()
}
