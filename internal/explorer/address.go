package explorer

import (
	"context"
	"math/big"
	"time"

	"github.com/Belloabraham121/warpscan/internal/cache"
	"github.com/Belloabraham121/warpscan/internal/metrics"
	"github.com/Belloabraham121/warpscan/internal/models"

	"golang.org/x/sync/errgroup"
)

// GetAddressInfo assembles the composite account view. Balance, nonce and
// code probe are fetched concurrently so latency is bounded by the slowest
// call; the balance alone gets the dual-source fallback.
func (s *Service) GetAddressInfo(ctx context.Context, address string) (*models.AddressInfo, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[*models.AddressInfo](s.store, cache.KindAddress, key); ok {
		return cached, nil
	}

	info := &models.AddressInfo{Address: address}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.fetchBalance(gctx, address)
		if err != nil {
			return err
		}
		info.Balance = balance
		return nil
	})
	g.Go(func() error {
		nonce, err := s.node.Nonce(gctx, address)
		if err != nil {
			return err
		}
		info.TransactionCount = nonce
		return nil
	})
	g.Go(func() error {
		code, err := s.node.Code(gctx, address)
		if err != nil {
			return err
		}
		info.IsContract = len(code) > 0
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	info.LastUpdated = time.Now()
	s.store.Put(cache.KindAddress, key, info)
	return info, nil
}

// fetchBalance reads the balance from the preferred source, retrying once
// against the alternate on failure. The first failure is logged, not
// surfaced, unless both sources fail.
func (s *Service) fetchBalance(ctx context.Context, address string) (*big.Int, error) {
	if s.preferIndex() {
		balance, err := s.index.AddressBalance(ctx, address)
		if err == nil {
			return balance, nil
		}
		s.logger.Warn("index balance fetch failed for %s, falling back to node: %v", address, err)
		metrics.FallbacksTotal.WithLabelValues("balance").Inc()
		return s.node.Balance(ctx, address)
	}

	balance, err := s.node.Balance(ctx, address)
	if err == nil {
		return balance, nil
	}
	if !s.indexAvailable() {
		return nil, err
	}
	s.logger.Warn("node balance fetch failed for %s, falling back to index: %v", address, err)
	metrics.FallbacksTotal.WithLabelValues("balance").Inc()
	return s.index.AddressBalance(ctx, address)
}

// GetAddressTransactions lists recent transactions for address. List views
// exist only on the indexed API; on unavailability or error the result is an
// empty list, never an error.
func (s *Service) GetAddressTransactions(ctx context.Context, address string) ([]models.Transaction, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[[]models.Transaction](s.store, cache.KindAddressTxs, key); ok {
		return cached, nil
	}

	if !s.indexAvailable() {
		return []models.Transaction{}, nil
	}
	txs, err := s.index.AddressTransactions(ctx, address, 0, 0, s.listLimit)
	if err != nil {
		s.logger.Warn("address transaction list unavailable for %s: %v", address, err)
		return []models.Transaction{}, nil
	}

	s.store.Put(cache.KindAddressTxs, key, txs)
	return txs, nil
}

// GetTokenTransfers lists recent ERC-20 transfers for address, degrading to
// empty on index failure. Token metadata seen in the rows is cached for the
// token-info view as a side effect.
func (s *Service) GetTokenTransfers(ctx context.Context, address string) ([]models.Transfer, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[[]models.Transfer](s.store, cache.KindTokenTransfers, key); ok {
		return cached, nil
	}

	if !s.indexAvailable() {
		return []models.Transfer{}, nil
	}
	transfers, err := s.index.TokenTransfers(ctx, address, 0, 0, s.listLimit)
	if err != nil {
		s.logger.Warn("token transfer list unavailable for %s: %v", address, err)
		return []models.Transfer{}, nil
	}

	s.store.Put(cache.KindTokenTransfers, key, transfers)
	for _, t := range transfers {
		if t.TokenAddress == "" {
			continue
		}
		s.store.Put(cache.KindToken, cacheKey(t.TokenAddress), &models.ContractInfo{
			Address:  t.TokenAddress,
			IsERC20:  true,
			Name:     t.TokenName,
			Symbol:   t.TokenSymbol,
			Decimals: t.TokenDecimals,
		})
	}
	return transfers, nil
}

// GetInternalTransactions lists internal value transfers for address,
// degrading to empty on index failure.
func (s *Service) GetInternalTransactions(ctx context.Context, address string) ([]models.Transfer, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[[]models.Transfer](s.store, cache.KindInternalTxs, key); ok {
		return cached, nil
	}

	if !s.indexAvailable() {
		return []models.Transfer{}, nil
	}
	transfers, err := s.index.InternalTransactions(ctx, address, 0, 0, s.listLimit)
	if err != nil {
		s.logger.Warn("internal transaction list unavailable for %s: %v", address, err)
		return []models.Transfer{}, nil
	}

	s.store.Put(cache.KindInternalTxs, key, transfers)
	return transfers, nil
}

// GetTokenBalances lists the ERC-20 holdings of address, degrading to empty
// on index failure.
func (s *Service) GetTokenBalances(ctx context.Context, address string) ([]models.TokenBalance, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[[]models.TokenBalance](s.store, cache.KindTokenBalances, key); ok {
		return cached, nil
	}

	if !s.indexAvailable() {
		return []models.TokenBalance{}, nil
	}
	balances, err := s.index.TokenBalances(ctx, address)
	if err != nil {
		s.logger.Warn("token balance list unavailable for %s: %v", address, err)
		return []models.TokenBalance{}, nil
	}

	s.store.Put(cache.KindTokenBalances, key, balances)
	return balances, nil
}

// GetContractInfo probes the code at address and caches what it learns.
func (s *Service) GetContractInfo(ctx context.Context, address string) (*models.ContractInfo, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[*models.ContractInfo](s.store, cache.KindContract, key); ok {
		return cached, nil
	}

	code, err := s.node.Code(ctx, address)
	if err != nil {
		return nil, err
	}

	info := &models.ContractInfo{Address: address, CodeSize: len(code)}
	if token, ok := cache.Lookup[*models.ContractInfo](s.store, cache.KindToken, key); ok {
		info.IsERC20 = token.IsERC20
		info.Name = token.Name
		info.Symbol = token.Symbol
		info.Decimals = token.Decimals
	}
	s.store.Put(cache.KindContract, key, info)
	return info, nil
}

// ResolveName reverse-resolves address to its ENS name. Resolution only
// happens on mainnet where the registry is authoritative; on other chains it
// short-circuits to no name without a network call.
func (s *Service) ResolveName(ctx context.Context, address string) (string, error) {
	if err := validateAddress(address); err != nil {
		return "", err
	}
	if s.chainID != 1 {
		return "", nil
	}

	key := cacheKey(address)
	if cached, ok := cache.Lookup[string](s.store, cache.KindENSName, key); ok {
		return cached, nil
	}

	name, err := s.node.ResolveName(ctx, address)
	if err != nil {
		return "", err
	}
	s.store.Put(cache.KindENSName, key, name)
	return name, nil
}
