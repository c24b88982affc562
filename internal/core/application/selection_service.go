package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/atollwallet/coinselect/internal/core/domain"
	"github.com/atollwallet/coinselect/internal/core/ports"
)

// SelectionService exposes the coin selection capability to the transaction
// builder. It is stateless between calls: every invocation validates its
// context eagerly, dispatches to the requested strategy and standardizes the
// returned result with elapsed time and strategy diagnostics.
//
// The service performs no I/O and holds no shared mutable state, so it is
// safe to invoke concurrently as long as each call receives its own
// candidate snapshot.
type SelectionService struct {
	selectors map[int]CoinSelectorFactory

	log func(format string, a ...interface{})
}

func NewSelectionService() *SelectionService {
	return NewSelectionServiceWithSelectors(coinSelectorByType)
}

// NewSelectionServiceWithSelectors returns a service dispatching to the
// given strategy registry instead of the built-in one. Strategies missing
// from the registry resolve to the built-in default.
func NewSelectionServiceWithSelectors(
	selectors map[int]CoinSelectorFactory,
) *SelectionService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("selection service: %s", format)
		log.Debugf(format, a...)
	}
	return &SelectionService{selectors, logFn}
}

// SelectUtxos runs the given coin selection strategy over the candidate
// snapshot. Unknown strategies fall back to the default one. The context is
// validated as given: callers wanting the configured default input limit
// build their context with NewSelectionContext.
func (ss *SelectionService) SelectUtxos(
	_ context.Context, utxos Utxos, sctx domain.SelectionContext,
	strategy int,
) (*domain.SelectionResult, error) {
	if err := sctx.Validate(); err != nil {
		return nil, err
	}

	coinSelector := ss.coinSelector(strategy)

	start := time.Now()
	result, err := coinSelector.SelectUtxos(utxos, sctx)
	if err != nil {
		return nil, err
	}
	result.ElapsedTime = time.Since(start)

	ss.log(
		"selected %d of %d candidate(s) with strategy %s, fee %d, change %d (%s)",
		len(result.SelectedUtxos), len(utxos), result.Strategy, result.Fee,
		result.Change, strings.Join(Utxos(result.SelectedUtxos).Hashes(), ", "),
	)
	return result, nil
}

// SelectUtxosForPreference maps a caller preference (cost, speed or privacy
// optimized) onto a concrete strategy and runs it.
func (ss *SelectionService) SelectUtxosForPreference(
	ctx context.Context, utxos Utxos, sctx domain.SelectionContext,
	preference int,
) (*domain.SelectionResult, error) {
	strategy, ok := coinSelectionStrategyByPreference[preference]
	if !ok {
		strategy = DefaultCoinSelectionStrategy
	}
	return ss.SelectUtxos(ctx, utxos, sctx, strategy)
}

func (ss *SelectionService) coinSelector(strategy int) ports.CoinSelector {
	factory, ok := ss.selectors[strategy]
	if !ok {
		factory, ok = ss.selectors[DefaultCoinSelectionStrategy]
		if !ok {
			factory = coinSelectorByType[DefaultCoinSelectionStrategy]
		}
	}
	return factory()
}
