package random_selector

import (
	"math/rand"
	"sync"
	"time"

	"github.com/atollwallet/coinselect/internal/core/domain"
	"github.com/atollwallet/coinselect/internal/core/ports"
)

const (
	StrategyName = "random"

	// DefaultExtraUtxoProbability is the chance for the maximum privacy mode
	// to pick one additional utxo beyond sufficiency, purely for
	// obfuscation.
	DefaultExtraUtxoProbability = 0.3

	// ageWeightUnit is the age, in seconds, granting one extra unit of
	// weight to a candidate in the age-biased privacy modes.
	ageWeightUnit = 86400
	// maxAgeWeight saturates the age bias so that very old candidates do not
	// dwarf the rest of the pool.
	maxAgeWeight = 5.0
	// nonRoundBonus rewards amounts that are not multiples of 1000 units,
	// which are harder to fingerprint.
	nonRoundBonus = 1.5
)

type selector struct {
	feeModel             domain.FeeModel
	extraUtxoProbability float64

	// rng is the only mutable state of the selector: access is serialized
	// so that one instance can serve concurrent calls.
	mtx sync.Mutex
	rng *rand.Rand
}

// NewRandomCoinSelector returns a coin selector picking candidates
// unpredictably to reduce the linkability of the spent outputs, trading
// optimality for privacy. The randomness source is injected so that tests
// can substitute a seeded one; passing nil installs a time-seeded source.
func NewRandomCoinSelector(
	feeModel domain.FeeModel, extraUtxoProbability float64, rng *rand.Rand,
) ports.CoinSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if extraUtxoProbability < 0 || extraUtxoProbability > 1 {
		extraUtxoProbability = DefaultExtraUtxoProbability
	}
	return &selector{
		feeModel:             feeModel,
		extraUtxoProbability: extraUtxoProbability,
		rng:                  rng,
	}
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

	pool := make([]*domain.Utxo, len(eligible))
	copy(pool, eligible)
	newestDetection := newestDetectionTime(pool)

	selected := make([]*domain.Utxo, 0, ctx.MaxInputs)
	var total uint64
	for !s.covered(total, len(selected), ctx) {
		if len(pool) == 0 || len(selected) >= ctx.MaxInputs {
			return nil, domain.ErrInsufficientFunds
		}
		i := s.draw(pool, ctx, newestDetection)
		total = domain.SaturatingAdd(total, pool[i].Value)
		selected = append(selected, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}

	// In maximum privacy mode, occasionally grab one extra utxo so that the
	// selection size stops correlating with the payment amount.
	if ctx.PrivacyMode == domain.PrivacyModeMaximum &&
		len(pool) > 0 && len(selected) < ctx.MaxInputs &&
		s.float64() < s.extraUtxoProbability {
		i := s.draw(pool, ctx, newestDetection)
		selected = append(selected, pool[i])
	}

	result, err := domain.AssembleSelection(selected, ctx, s.feeModel)
	if err != nil {
		return nil, err
	}
	result.Strategy = StrategyName
	result.CandidatesConsidered = len(eligible)
	result.PrivacyScore = privacyScore(ctx.PrivacyMode, len(selected))
	return result, nil
}

func (s *selector) intn(n int) int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.rng.Intn(n)
}

func (s *selector) float64() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.rng.Float64()
}

// covered reports whether the running total pays for the target amount plus
// the fee of a transaction spending the current number of inputs with a
// change output. Budgeting for the change output up front keeps the final
// assembly from coming up short.
func (s *selector) covered(
	total uint64, numInputs int, ctx domain.SelectionContext,
) bool {
	if numInputs == 0 {
		return false
	}
	fee := s.feeModel.Fee(ctx.FeeRate, numInputs, 2)
	return total >= domain.SaturatingAdd(ctx.TargetAmount, fee)
}

// draw returns the index of the next pick from the pool according to the
// privacy mode of the context.
func (s *selector) draw(
	pool []*domain.Utxo, ctx domain.SelectionContext, newestDetection int64,
) int {
	if ctx.PrivacyMode == domain.PrivacyModeNormal {
		return s.intn(len(pool))
	}

	weights := make([]float64, len(pool))
	var totalWeight float64
	for i, u := range pool {
		w := ageWeight(u, newestDetection)
		if ctx.PrivacyMode == domain.PrivacyModeMaximum {
			if u.Value%1000 != 0 {
				w *= nonRoundBonus
			}
			if priority, ok := ctx.PriorityWeights[u.Key()]; ok {
				w *= priority
			}
		}
		weights[i] = w
		totalWeight += w
	}

	// Cumulative-weight sampling: draw in [0, totalWeight) and walk the
	// weighted list subtracting until the draw is exhausted.
	draw := s.float64() * totalWeight
	for i, w := range weights {
		if draw < w {
			return i
		}
		draw -= w
	}
	return len(pool) - 1
}

// ageWeight biases the sampling toward older candidates, growing linearly
// with age and saturating at maxAgeWeight.
func ageWeight(u *domain.Utxo, newestDetection int64) float64 {
	age := newestDetection - u.DetectedAt
	if age < 0 {
		age = 0
	}
	w := 1 + float64(age)/ageWeightUnit
	if w > maxAgeWeight {
		w = maxAgeWeight
	}
	return w
}

func newestDetectionTime(pool []*domain.Utxo) int64 {
	var newest int64
	for _, u := range pool {
		if u.DetectedAt > newest {
			newest = u.DetectedAt
		}
	}
	return newest
}

// privacyScore is a coarse heuristic in [0, 1]: stricter modes start higher
// and spreading the payment over more inputs raises the score a little.
func privacyScore(mode domain.PrivacyMode, numInputs int) float64 {
	var base float64
	switch mode {
	case domain.PrivacyModeHigh:
		base = 0.6
	case domain.PrivacyModeMaximum:
		base = 0.8
	default:
		base = 0.3
	}
	score := base + 0.04*float64(numInputs)
	if score > 1 {
		score = 1
	}
	return score
}
