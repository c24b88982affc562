package branchandbound_selector

import (
	"math"

	"github.com/atollwallet/coinselect/internal/core/domain"
	"github.com/atollwallet/coinselect/internal/core/ports"
	firstfit_selector "github.com/atollwallet/coinselect/internal/infrastructure/coin-selector/first-fit"
)

const (
	StrategyName = "branch-and-bound"

	// DefaultSearchBudget bounds the number of nodes the depth-first search
	// can visit before giving up and falling back to first-fit. It guarantees
	// termination on pathological candidate sets.
	DefaultSearchBudget = 100000
)

type selector struct {
	feeModel     domain.FeeModel
	searchBudget int
}

// NewBranchAndBoundCoinSelector returns a coin selector running a bounded
// depth-first search over the candidates sorted by descending effective
// value, looking for the subset closest to the target amount plus fees from
// above. An exact match produces a changeless selection; otherwise the
// least-waste subset within the change-output cost window wins. When the
// search budget is exhausted, or no subset falls within the window, the
// selector falls back to a deterministic first-fit over the same ordering.
func NewBranchAndBoundCoinSelector(
	feeModel domain.FeeModel, searchBudget int,
) ports.CoinSelector {
	if searchBudget <= 0 {
		searchBudget = DefaultSearchBudget
	}
	return &selector{feeModel, searchBudget}
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

	selected, nodes, found := s.search(sorted, ctx)
	if !found {
		// Not an error by itself: retry with first-fit over the same
		// ordering and only report insufficient funds if that fails too.
		selected, ok := firstfit_selector.SelectOrdered(sorted, ctx, s.feeModel)
		if !ok {
			return nil, domain.ErrInsufficientFunds
		}
		result, err := domain.AssembleSelection(selected, ctx, s.feeModel)
		if err != nil {
			return nil, err
		}
		result.Strategy = StrategyName
		result.UsedFallback = true
		result.CandidatesConsidered = nodes
		return result, nil
	}

	result, err := domain.AssembleSelection(selected, ctx, s.feeModel)
	if err != nil {
		return nil, err
	}
	result.Strategy = StrategyName
	result.CandidatesConsidered = nodes
	return result, nil
}

// search runs the bounded depth-first search. It explores an
// include/exclude binary tree over the sorted candidates, keeping a running
// total of selected effective values, and prunes any branch that cannot
// reach the target window, overshoots it, or runs past the input limit.
// The first exact match terminates the search since no better solution can
// exist. It reports the visited node count for diagnostics.
func (s *selector) search(
	sorted []*domain.Utxo, ctx domain.SelectionContext,
) ([]*domain.Utxo, int, bool) {
	effValues := make([]uint64, len(sorted))
	var availableValue uint64
	for i, u := range sorted {
		effValues[i] = s.feeModel.EffectiveValue(u, ctx.FeeRate)
		availableValue = domain.SaturatingAdd(availableValue, effValues[i])
	}

	// Input fees are accounted for in the effective values, so the search
	// target only carries the base overhead and the payment output. The
	// window tolerates an overshoot up to the cost of a change output:
	// anything above it is better served by producing change, which the
	// fallback path covers.
	targetLower := domain.SaturatingAdd(
		ctx.TargetAmount,
		s.feeModel.Fee(ctx.FeeRate, 0, 1),
	)
	targetUpper := domain.SaturatingAdd(
		targetLower, s.feeModel.ChangeOutputCost(ctx.FeeRate),
	)

	if availableValue < targetLower {
		return nil, 0, false
	}

	// selection is the current depth-first path: selection[i] tells whether
	// sorted[i] is included. Omission is encoded by flipping an included
	// entry to false while keeping it on the path.
	selection := make([]bool, 0, len(sorted))
	var bestSelection []bool
	bestWaste := uint64(math.MaxUint64)
	var currentValue uint64
	numInputs := 0
	nodes := 0

	for nodes < s.searchBudget {
		nodes++

		backtrack := false
		switch {
		case domain.SaturatingAdd(currentValue, availableValue) < targetLower:
			// The remaining candidates cannot reach the target.
			backtrack = true
		case currentValue > targetUpper:
			// Overshot the tolerance window, adding more cannot help.
			backtrack = true
		case currentValue >= targetLower:
			waste := currentValue - targetLower
			if waste < bestWaste {
				bestWaste = waste
				bestSelection = append(bestSelection[:0], selection...)
			}
			if waste == 0 {
				// Exact match, nothing can improve on it.
				return pick(sorted, bestSelection), nodes, true
			}
			backtrack = true
		case numInputs >= ctx.MaxInputs:
			backtrack = true
		case len(selection) == len(sorted):
			backtrack = true
		}

		if backtrack {
			// Unwind omitted candidates, then turn the deepest included one
			// into an omission and explore that subtree.
			for len(selection) > 0 && !selection[len(selection)-1] {
				selection = selection[:len(selection)-1]
				availableValue = domain.SaturatingAdd(
					availableValue, effValues[len(selection)],
				)
			}
			if len(selection) == 0 {
				break
			}
			i := len(selection) - 1
			selection[i] = false
			currentValue -= effValues[i]
			numInputs--
			continue
		}

		// Branch into including the next candidate.
		i := len(selection)
		selection = append(selection, true)
		availableValue -= effValues[i]
		currentValue = domain.SaturatingAdd(currentValue, effValues[i])
		numInputs++
	}

	if bestWaste == math.MaxUint64 {
		return nil, nodes, false
	}
	return pick(sorted, bestSelection), nodes, true
}

func pick(sorted []*domain.Utxo, selection []bool) []*domain.Utxo {
	selected := make([]*domain.Utxo, 0, len(selection))
	for i, included := range selection {
		if included {
			selected = append(selected, sorted[i])
		}
	}
	return selected
}
