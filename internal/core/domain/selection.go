package domain

import (
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidContext is returned when a selection context fails the eager
	// validation happening before any search begins.
	ErrInvalidContext = fmt.Errorf("invalid selection context")
	// ErrNoEligibleUtxos is returned when no candidate survives the
	// spendability and maturity filtering.
	ErrNoEligibleUtxos = fmt.Errorf("no eligible utxos to select from")
	// ErrInsufficientFunds is returned when no combination of eligible utxos
	// within the input limit covers the target amount plus fees.
	ErrInsufficientFunds = fmt.Errorf(
		"not found enough utxos to cover target amount plus fees",
	)
)

// PrivacyMode drives the weighting of the randomized selection strategy.
type PrivacyMode int

const (
	PrivacyModeNormal PrivacyMode = iota
	PrivacyModeHigh
	PrivacyModeMaximum
)

func (m PrivacyMode) String() string {
	switch m {
	case PrivacyModeNormal:
		return "normal"
	case PrivacyModeHigh:
		return "high"
	case PrivacyModeMaximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// SelectionContext is the immutable per-call configuration of a coin
// selection. It is created fresh for every call and has no lifecycle beyond
// it.
type SelectionContext struct {
	TargetAmount    uint64
	FeeRate         uint64
	MaxInputs       int
	BestBlockHeight uint64
	PriorityWeights map[UtxoKey]float64
	PrivacyMode     PrivacyMode
}

// Validate makes sure the context is well formed. It must be called before
// any search begins so that malformed requests never reach a strategy.
func (c SelectionContext) Validate() error {
	if c.TargetAmount == 0 {
		return fmt.Errorf("%w: missing target amount", ErrInvalidContext)
	}
	if c.FeeRate == 0 {
		return fmt.Errorf("%w: missing fee rate", ErrInvalidContext)
	}
	if c.MaxInputs <= 0 {
		return fmt.Errorf("%w: missing max number of inputs", ErrInvalidContext)
	}
	if c.PrivacyMode < PrivacyModeNormal || c.PrivacyMode > PrivacyModeMaximum {
		return fmt.Errorf("%w: unknown privacy mode", ErrInvalidContext)
	}
	for key, weight := range c.PriorityWeights {
		if weight <= 0 {
			return fmt.Errorf(
				"%w: priority weight for utxo %s must be positive",
				ErrInvalidContext, key,
			)
		}
	}
	return nil
}

// SelectionResult is the outcome of a coin selection, assembled once per
// call and immutable thereafter.
type SelectionResult struct {
	SelectedUtxos        []*Utxo
	TotalValue           uint64
	Fee                  uint64
	Change               uint64
	PerfectMatch         bool
	Waste                uint64
	PrivacyScore         float64
	Strategy             string
	UsedFallback         bool
	CandidatesConsidered int
	ElapsedTime          time.Duration
}

// Keys returns the keys of the selected utxos.
func (r *SelectionResult) Keys() []UtxoKey {
	keys := make([]UtxoKey, 0, len(r.SelectedUtxos))
	for _, u := range r.SelectedUtxos {
		keys = append(keys, u.Key())
	}
	return keys
}

// EligibleUtxos filters out the candidates that must not be offered to a
// selection strategy: non-unspent ones, those not yet mature at the best
// known chain height and those whose effective value at the given fee rate
// is zero. The given list is left untouched.
func EligibleUtxos(
	utxos []*Utxo, ctx SelectionContext, feeModel FeeModel,
) []*Utxo {
	eligible := make([]*Utxo, 0, len(utxos))
	for _, u := range utxos {
		if !u.IsSpendable(ctx.BestBlockHeight) {
			continue
		}
		if feeModel.EffectiveValue(u, ctx.FeeRate) == 0 {
			continue
		}
		eligible = append(eligible, u)
	}
	return eligible
}

// SortUtxosByEffectiveValue returns a copy of the given list sorted by
// descending effective value, with ties broken by utxo key to guarantee the
// same ordering across runs with the same input set.
func SortUtxosByEffectiveValue(
	utxos []*Utxo, feeRate uint64, feeModel FeeModel,
) []*Utxo {
	sorted := make([]*Utxo, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi := feeModel.EffectiveValue(sorted[i], feeRate)
		vj := feeModel.EffectiveValue(sorted[j], feeRate)
		if vi != vj {
			return vi > vj
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].VOut < sorted[j].VOut
	})
	return sorted
}

// AssembleSelection computes total value, fee, change and waste for a final
// chosen subset so that all strategies produce comparable results. Change
// below the dust threshold is folded into the fee and reported as zero.
// It returns ErrInsufficientFunds if the subset does not cover the target
// amount plus the fee for spending it.
func AssembleSelection(
	selected []*Utxo, ctx SelectionContext, feeModel FeeModel,
) (*SelectionResult, error) {
	if len(selected) == 0 {
		return nil, ErrInsufficientFunds
	}
	if len(selected) > ctx.MaxInputs {
		return nil, fmt.Errorf(
			"%w: selection exceeds the limit of %d inputs",
			ErrInsufficientFunds, ctx.MaxInputs,
		)
	}

	var total uint64
	for _, u := range selected {
		total = SaturatingAdd(total, u.Value)
	}

	numInputs := len(selected)
	feeNoChange := feeModel.Fee(ctx.FeeRate, numInputs, 1)
	feeWithChange := feeModel.Fee(ctx.FeeRate, numInputs, 2)
	dust := feeModel.DustThreshold(ctx.FeeRate)

	if total < SaturatingAdd(ctx.TargetAmount, feeNoChange) {
		return nil, ErrInsufficientFunds
	}

	result := &SelectionResult{
		SelectedUtxos: selected,
		TotalValue:    total,
	}

	excess := total - ctx.TargetAmount - feeNoChange
	change := uint64(0)
	if total >= SaturatingAdd(ctx.TargetAmount, feeWithChange) {
		change = total - ctx.TargetAmount - feeWithChange
	}

	// The excess over target plus the change-less fee is the optimization
	// objective: it equals the change amount plus the cost of creating the
	// change output, or the overpaid fee when no change is produced.
	result.Waste = excess

	if change >= dust {
		result.Fee = feeWithChange
		result.Change = change
		return result, nil
	}

	// Change would be uneconomical: fold the whole excess into the fee.
	result.Fee = total - ctx.TargetAmount
	result.Change = 0
	result.PerfectMatch = excess == 0
	return result, nil
}
