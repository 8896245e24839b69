package explorer

import (
	"context"
	"math/big"

	"github.com/Belloabraham121/warpscan/internal/cache"
	"github.com/Belloabraham121/warpscan/internal/metrics"
	"github.com/Belloabraham121/warpscan/internal/models"

	"golang.org/x/sync/errgroup"
)

// GetTransactionDetails assembles the full transaction view: base fields,
// confirmations clamped at zero, fee = gasUsed x effectiveGasPrice, and the
// ordered transfer list with the native transfer first.
func (s *Service) GetTransactionDetails(ctx context.Context, hash string) (*models.TransactionDetails, error) {
	if err := validateTxHash(hash); err != nil {
		return nil, err
	}

	key := cacheKey(hash)
	if cached, ok := cache.Lookup[*models.TransactionDetails](s.store, cache.KindTransaction, key); ok {
		return cached, nil
	}

	tx, err := s.fetchTransaction(ctx, hash)
	if err != nil {
		return nil, err
	}

	details := &models.TransactionDetails{Transaction: *tx}

	if tx.Pending() {
		details.Transfers = nativeTransferList(tx)
		// Pending state churns too fast to be worth caching.
		return details, nil
	}

	var (
		receipt *models.Receipt
		head    uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.fetchReceipt(gctx, hash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	g.Go(func() error {
		n, err := s.latestBlockNumber(gctx)
		if err != nil {
			return err
		}
		head = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details.Status = receipt.Status
	details.GasUsed = receipt.GasUsed
	details.EffectiveGasPrice = receipt.EffectiveGasPrice
	if receipt.EffectiveGasPrice != nil {
		details.Fee = new(big.Int).Mul(
			new(big.Int).SetUint64(receipt.GasUsed),
			receipt.EffectiveGasPrice,
		)
	}
	if head >= tx.BlockNumber {
		details.Confirmations = head - tx.BlockNumber
	}

	details.Transfers = s.assembleTransfers(ctx, tx)

	s.store.Put(cache.KindTransaction, key, details)
	return details, nil
}

// fetchTransaction reads the transaction from the preferred source with a
// one-shot fallback to the alternate.
func (s *Service) fetchTransaction(ctx context.Context, hash string) (*models.Transaction, error) {
	if s.preferIndex() {
		tx, err := s.index.TransactionByHash(ctx, hash)
		if err == nil {
			return tx, nil
		}
		s.logger.Warn("index transaction fetch failed for %s, falling back to node: %v", hash, err)
		metrics.FallbacksTotal.WithLabelValues("transaction").Inc()
		return s.node.TransactionByHash(ctx, hash)
	}

	tx, err := s.node.TransactionByHash(ctx, hash)
	if err == nil {
		return tx, nil
	}
	if !s.indexAvailable() {
		return nil, err
	}
	s.logger.Warn("node transaction fetch failed for %s, falling back to index: %v", hash, err)
	metrics.FallbacksTotal.WithLabelValues("transaction").Inc()
	return s.index.TransactionByHash(ctx, hash)
}

func (s *Service) fetchReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	if s.preferIndex() {
		receipt, err := s.index.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		s.logger.Warn("index receipt fetch failed for %s, falling back to node: %v", hash, err)
		metrics.FallbacksTotal.WithLabelValues("receipt").Inc()
		return s.node.TransactionReceipt(ctx, hash)
	}

	receipt, err := s.node.TransactionReceipt(ctx, hash)
	if err == nil {
		return receipt, nil
	}
	if !s.indexAvailable() {
		return nil, err
	}
	s.logger.Warn("node receipt fetch failed for %s, falling back to index: %v", hash, err)
	metrics.FallbacksTotal.WithLabelValues("receipt").Inc()
	return s.index.TransactionReceipt(ctx, hash)
}

// assembleTransfers unions the native transfer, token transfers and internal
// transfers of one transaction into a single ordered list, native first.
// Token and internal legs come from the indexed API and degrade to empty.
func (s *Service) assembleTransfers(ctx context.Context, tx *models.Transaction) []models.Transfer {
	transfers := nativeTransferList(tx)
	if !s.indexAvailable() {
		return transfers
	}

	var (
		senderTokens   []models.Transfer
		receiverTokens []models.Transfer
		internals      []models.Transfer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		senderTokens = s.tokenTransfersQuiet(gctx, tx.From)
		return nil
	})
	g.Go(func() error {
		if tx.To != "" && !equalAddress(tx.To, tx.From) {
			receiverTokens = s.tokenTransfersQuiet(gctx, tx.To)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.index.InternalTransactionsByHash(gctx, tx.Hash)
		if err != nil {
			s.logger.Warn("internal transfers unavailable for %s: %v", tx.Hash, err)
			return nil
		}
		internals = rows
		return nil
	})
	_ = g.Wait()

	seen := make(map[string]bool)
	for _, t := range append(senderTokens, receiverTokens...) {
		if !equalAddress(t.TxHash, tx.Hash) {
			continue
		}
		id := cacheKey(t.TokenAddress + "|" + t.From + "|" + t.To + "|" + t.Value.String())
		if seen[id] {
			continue
		}
		seen[id] = true
		transfers = append(transfers, t)
	}
	for _, t := range internals {
		if t.Value == nil || t.Value.Sign() == 0 {
			continue
		}
		transfers = append(transfers, t)
	}
	return transfers
}

func (s *Service) tokenTransfersQuiet(ctx context.Context, address string) []models.Transfer {
	rows, err := s.index.TokenTransfers(ctx, address, 0, 0, s.listLimit)
	if err != nil {
		s.logger.Warn("token transfers unavailable for %s: %v", address, err)
		return nil
	}
	return rows
}

// nativeTransferList returns the primary native transfer as a one-element
// list when the transaction moves value, else an empty list.
func nativeTransferList(tx *models.Transaction) []models.Transfer {
	if tx.Value == nil || tx.Value.Sign() == 0 {
		return []models.Transfer{}
	}
	return []models.Transfer{{
		Kind:   models.TransferNative,
		From:   tx.From,
		To:     tx.To,
		Value:  tx.Value,
		TxHash: tx.Hash,
	}}
}

func equalAddress(a, b string) bool {
	return cacheKey(a) == cacheKey(b)
}
