package ports

import "github.com/atollwallet/coinselect/internal/core/domain"

// CoinSelector is the abstraction for any kind of service intended to return
// a subset of the given utxos covering the target amount plus fees, based on
// a specific strategy.
//
// Implementations must be safe for concurrent use, synchronizing any internal
// state of their own (like a randomness source), must treat the given
// candidate list as read-only and must never return a partial, under-funded
// selection as if it were successful.
type CoinSelector interface {
	// SelectUtxos implements a certain coin selection strategy.
	SelectUtxos(
		utxos []*domain.Utxo, ctx domain.SelectionContext,
	) (*domain.SelectionResult, error)
}
