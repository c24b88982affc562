package firstfit_selector

import (
	"github.com/atollwallet/coinselect/internal/core/domain"
	"github.com/atollwallet/coinselect/internal/core/ports"
)

const StrategyName = "first-fit"

type selector struct {
	feeModel domain.FeeModel
}

// NewFirstFitCoinSelector returns a deterministic coin selector accepting
// candidates in descending effective value order until the target amount
// plus fees is covered. It is the cheapest strategy in terms of execution
// time and doubles as the fallback of the branch-and-bound one.
func NewFirstFitCoinSelector(feeModel domain.FeeModel) ports.CoinSelector {
	return &selector{feeModel}
}

func (s *selector) SelectUtxos(
	utxos []*domain.Utxo, ctx domain.SelectionContext,
) (*domain.SelectionResult, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	eligible := domain.EligibleUtxos(utxos, ctx, s.feeModel)
	if len(eligible) == 0 {
		return nil, domain.ErrNoEligibleUtxos
	}

	sorted := domain.SortUtxosByEffectiveValue(eligible, ctx.FeeRate, s.feeModel)
	selected, ok := SelectOrdered(sorted, ctx, s.feeModel)
	if !ok {
		return nil, domain.ErrInsufficientFunds
	}

	result, err := domain.AssembleSelection(selected, ctx, s.feeModel)
	if err != nil {
		return nil, err
	}
	result.Strategy = StrategyName
	result.CandidatesConsidered = len(sorted)
	return result, nil
}

// SelectOrdered accumulates candidates in the given order until their total
// value covers the target amount plus the fee for spending them, respecting
// the input limit. It reports false if the order is exhausted or the limit
// is reached while still short.
func SelectOrdered(
	ordered []*domain.Utxo, ctx domain.SelectionContext,
	feeModel domain.FeeModel,
) ([]*domain.Utxo, bool) {
	selected := make([]*domain.Utxo, 0, len(ordered))
	var total uint64
	for _, u := range ordered {
		if len(selected) >= ctx.MaxInputs {
			return nil, false
		}
		selected = append(selected, u)
		total = domain.SaturatingAdd(total, u.Value)

		fee := feeModel.Fee(ctx.FeeRate, len(selected), 1)
		if total >= domain.SaturatingAdd(ctx.TargetAmount, fee) {
			return selected, true
		}
	}
	return nil, false
}
