package subscription

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/Belloabraham121/warpscan/internal/models"

	"github.com/ethereum/go-ethereum/core/types"
)

// runBlocks emits one NewBlock event per observed head change.
func (m *Manager) runBlocks(ctx context.Context, id string) {
	if m.source.SupportsSubscriptions() {
		m.pushBlocks(ctx, id)
		return
	}
	m.pollBlocks(ctx, id)
}

func (m *Manager) pushBlocks(ctx context.Context, id string) {
	heads := make(chan *types.Header, 16)
	sub, err := m.source.SubscribeNewHeads(ctx, heads)
	if err != nil {
		m.fail(ctx, id, err)
		return
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				m.fail(ctx, id, err)
			}
			return
		case head := <-heads:
			m.emit(ctx, models.NewBlockEvent{
				Number: head.Number.Uint64(),
				Hash:   head.Hash().Hex(),
			})
		}
	}
}

func (m *Manager) pollBlocks(ctx context.Context, id string) {
	lastSeen, err := m.source.LatestBlockNumber(ctx)
	if err != nil {
		m.fail(ctx, id, err)
		return
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			head, err := m.source.LatestBlockNumber(ctx)
			if err != nil {
				m.fail(ctx, id, err)
				return
			}
			if head <= lastSeen {
				continue
			}
			// One event per tick: skipped heights are resynchronized, not
			// backfilled.
			block, err := m.source.BlockByNumber(ctx, new(big.Int).SetUint64(head))
			if err != nil {
				m.fail(ctx, id, err)
				return
			}
			m.emit(ctx, models.NewBlockEvent{Number: block.Number, Hash: block.Hash})
			lastSeen = head
		}
	}
}

// runAddress emits one event per transaction touching address.
func (m *Manager) runAddress(ctx context.Context, id, address string) {
	if m.source.SupportsSubscriptions() {
		m.pushAddress(ctx, id, address)
		return
	}
	m.pollAddress(ctx, id, address)
}

func (m *Manager) pushAddress(ctx context.Context, id, address string) {
	heads := make(chan *types.Header, 16)
	sub, err := m.source.SubscribeNewHeads(ctx, heads)
	if err != nil {
		m.fail(ctx, id, err)
		return
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				m.fail(ctx, id, err)
			}
			return
		case head := <-heads:
			if err := m.scanBlock(ctx, id, address, head.Number.Uint64()); err != nil {
				m.fail(ctx, id, err)
				return
			}
		}
	}
}

func (m *Manager) pollAddress(ctx context.Context, id, address string) {
	lastSeen, err := m.source.LatestBlockNumber(ctx)
	if err != nil {
		m.fail(ctx, id, err)
		return
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			head, err := m.source.LatestBlockNumber(ctx)
			if err != nil {
				m.fail(ctx, id, err)
				return
			}
			// Scan every block since the last tick so activity in skipped
			// heights is not missed. O(gap) calls per tick.
			for n := lastSeen + 1; n <= head; n++ {
				if err := m.scanBlock(ctx, id, address, n); err != nil {
					m.fail(ctx, id, err)
					return
				}
			}
			if head > lastSeen {
				lastSeen = head
			}
		}
	}
}

// scanBlock emits one event per transaction in block number where address is
// sender or recipient.
func (m *Manager) scanBlock(ctx context.Context, id, address string, number uint64) error {
	block, err := m.source.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		if !matchesAddress(&tx, address) {
			continue
		}
		m.emit(ctx, models.AddressTransactionEvent{
			Address:     address,
			Transaction: tx,
			BlockNumber: block.Number,
		})
	}
	return nil
}

func matchesAddress(tx *models.Transaction, address string) bool {
	return strings.EqualFold(tx.From, address) || strings.EqualFold(tx.To, address)
}
