package application

import (
	"github.com/atollwallet/coinselect/internal/config"
	"github.com/atollwallet/coinselect/internal/core/domain"
	"github.com/atollwallet/coinselect/internal/core/ports"
	bnb_selector "github.com/atollwallet/coinselect/internal/infrastructure/coin-selector/branch-and-bound"
	firstfit_selector "github.com/atollwallet/coinselect/internal/infrastructure/coin-selector/first-fit"
	random_selector "github.com/atollwallet/coinselect/internal/infrastructure/coin-selector/random"
)

const (
	CoinSelectionStrategyBranchAndBound = iota
	CoinSelectionStrategyFirstFit
	CoinSelectionStrategyRandom
)

// Caller preferences mapped onto concrete strategies.
const (
	StrategyPreferenceCostOptimized = iota
	StrategyPreferenceSpeedOptimized
	StrategyPreferencePrivacyOptimized
)

var (
	coinSelectorByType = map[int]CoinSelectorFactory{
		CoinSelectionStrategyBranchAndBound: func() ports.CoinSelector {
			return bnb_selector.NewBranchAndBoundCoinSelector(
				config.GetFeeModel(), config.GetSearchBudget(),
			)
		},
		CoinSelectionStrategyFirstFit: func() ports.CoinSelector {
			return firstfit_selector.NewFirstFitCoinSelector(config.GetFeeModel())
		},
		CoinSelectionStrategyRandom: func() ports.CoinSelector {
			return random_selector.NewRandomCoinSelector(
				config.GetFeeModel(), config.GetExtraUtxoProbability(), nil,
			)
		},
	}

	coinSelectionStrategyByPreference = map[int]int{
		StrategyPreferenceCostOptimized:    CoinSelectionStrategyBranchAndBound,
		StrategyPreferenceSpeedOptimized:   CoinSelectionStrategyFirstFit,
		StrategyPreferencePrivacyOptimized: CoinSelectionStrategyRandom,
	}

	DefaultCoinSelectionStrategy = CoinSelectionStrategyBranchAndBound
)

type CoinSelectorFactory func() ports.CoinSelector

// NewSelectionContext returns a selection context for the given payment
// parameters, capped at the configured default input limit. Callers needing a
// different limit set MaxInputs on the returned context before use.
func NewSelectionContext(
	targetAmount, feeRate, bestBlockHeight uint64, mode domain.PrivacyMode,
) domain.SelectionContext {
	return domain.SelectionContext{
		TargetAmount:    targetAmount,
		FeeRate:         feeRate,
		MaxInputs:       config.GetMaxInputs(),
		BestBlockHeight: bestBlockHeight,
		PrivacyMode:     mode,
	}
}

type Utxos []*domain.Utxo

// Hashes returns the compact hashed identifiers of the utxos, used to keep
// log lines short.
func (u Utxos) Hashes() []string {
	hashes := make([]string, 0, len(u))
	for _, utxo := range u {
		hashes = append(hashes, utxo.Key().Hash())
	}
	return hashes
}
