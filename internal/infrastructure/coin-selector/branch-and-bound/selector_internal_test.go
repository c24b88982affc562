package branchandbound_selector

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atollwallet/coinselect/internal/core/domain"
)

var feeModel = domain.FeeModel{BaseSize: 10, InputSize: 68, OutputSize: 31}

func TestSelectUtxosPerfectMatch(t *testing.T) {
	t.Parallel()

	t.Run("single utxo", func(t *testing.T) {
		utxos := []*domain.Utxo{newUtxo(10000), newUtxo(7000), newUtxo(1500)}
		// 10000 pays target plus the exact fee for 1 input and 1 output.
		ctx := newCtx(9891)

		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, ctx)
		require.NoError(t, err)
		require.True(t, result.PerfectMatch)
		require.Zero(t, result.Change)
		require.Zero(t, result.Waste)
		require.False(t, result.UsedFallback)
		require.Len(t, result.SelectedUtxos, 1)
		require.Equal(t, uint64(10000), result.SelectedUtxos[0].Value)
		require.Equal(t, ctx.TargetAmount+result.Fee, result.TotalValue)
	})

	t.Run("two utxos among decoys", func(t *testing.T) {
		utxos := []*domain.Utxo{
			newUtxo(7000), newUtxo(6000), newUtxo(4000), newUtxo(1500),
		}
		// Only 6000 + 4000 pays target plus the exact fee for 2 inputs.
		ctx := newCtx(9823)

		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, ctx)
		require.NoError(t, err)
		require.True(t, result.PerfectMatch)
		require.Zero(t, result.Change)
		require.Len(t, result.SelectedUtxos, 2)
		require.Equal(t, uint64(10000), result.TotalValue)
		require.Equal(t, ctx.TargetAmount+result.Fee, result.TotalValue)
	})
}

func TestSelectUtxosMinimalWaste(t *testing.T) {
	t.Parallel()

	utxos := []*domain.Utxo{newUtxo(10000)}
	// 10000 overshoots target plus fee by 10, within the change-output cost
	// window: the excess is folded into the fee instead of producing dust.
	ctx := newCtx(9881)

	selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
	result, err := selector.SelectUtxos(utxos, ctx)
	require.NoError(t, err)
	require.False(t, result.PerfectMatch)
	require.False(t, result.UsedFallback)
	require.Zero(t, result.Change)
	require.Equal(t, uint64(10), result.Waste)
	require.Equal(t, uint64(119), result.Fee)
}

func TestSelectUtxosDeterministic(t *testing.T) {
	t.Parallel()

	utxos := []*domain.Utxo{
		newUtxo(12000), newUtxo(8000), newUtxo(5200), newUtxo(4700),
		newUtxo(3100), newUtxo(2600), newUtxo(1900), newUtxo(800),
	}
	ctx := newCtx(9000)

	selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
	first, err := selector.SelectUtxos(utxos, ctx)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := selector.SelectUtxos(utxos, ctx)
		require.NoError(t, err)
		require.Equal(t, first.Keys(), again.Keys())
		require.Equal(t, first.Fee, again.Fee)
		require.Equal(t, first.Change, again.Change)
	}
}

func TestSelectUtxosFallback(t *testing.T) {
	t.Parallel()

	t.Run("search budget exhausted", func(t *testing.T) {
		utxos := []*domain.Utxo{newUtxo(5000), newUtxo(3000)}
		selector := NewBranchAndBoundCoinSelector(feeModel, 1)
		result, err := selector.SelectUtxos(utxos, newCtx(2000))
		require.NoError(t, err)
		require.True(t, result.UsedFallback)
		require.Equal(t, StrategyName, result.Strategy)
		require.GreaterOrEqual(
			t, result.TotalValue, result.Change+uint64(2000)+result.Fee,
		)
	})

	t.Run("no changeless combination", func(t *testing.T) {
		utxos := []*domain.Utxo{newUtxo(10000)}
		ctx := newCtx(5000)
		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, ctx)
		require.NoError(t, err)
		require.True(t, result.UsedFallback)
		require.Equal(t, uint64(4860), result.Change)
		require.Equal(t, uint64(140), result.Fee)
	})
}

func TestSelectUtxosFailures(t *testing.T) {
	t.Parallel()

	t.Run("no eligible utxos", func(t *testing.T) {
		utxos := []*domain.Utxo{
			{UtxoKey: randomKey(), Value: 1000, Status: domain.UtxoStatusSpent},
			{UtxoKey: randomKey(), Value: 1000, MaturityHeight: 500},
		}
		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, newCtx(500))
		require.ErrorIs(t, err, domain.ErrNoEligibleUtxos)
		require.Nil(t, result)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		utxos := []*domain.Utxo{newUtxo(100), newUtxo(200), newUtxo(300)}
		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, newCtx(10000))
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		require.Nil(t, result)
	})

	t.Run("input limit prevents coverage", func(t *testing.T) {
		utxos := []*domain.Utxo{newUtxo(1000), newUtxo(1000), newUtxo(1000)}
		ctx := newCtx(2500)
		ctx.MaxInputs = 2
		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(utxos, ctx)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		require.Nil(t, result)
	})

	t.Run("invalid context", func(t *testing.T) {
		selector := NewBranchAndBoundCoinSelector(feeModel, DefaultSearchBudget)
		result, err := selector.SelectUtxos(
			[]*domain.Utxo{newUtxo(1000)}, domain.SelectionContext{},
		)
		require.ErrorIs(t, err, domain.ErrInvalidContext)
		require.Nil(t, result)
	})
}

func TestSearchBudgetBoundsNodeVisits(t *testing.T) {
	t.Parallel()

	utxos := make([]*domain.Utxo, 0, 64)
	for i := 0; i < 64; i++ {
		utxos = append(utxos, newUtxo(uint64(1000+i*7)))
	}
	ctx := newCtx(30001)
	ctx.MaxInputs = 64

	budget := 500
	sel := NewBranchAndBoundCoinSelector(feeModel, budget).(*selector)
	_, nodes, _ := sel.search(
		domain.SortUtxosByEffectiveValue(utxos, ctx.FeeRate, feeModel), ctx,
	)
	require.LessOrEqual(t, nodes, budget)
}

func newCtx(target uint64) domain.SelectionContext {
	return domain.SelectionContext{
		TargetAmount:    target,
		FeeRate:         1,
		MaxInputs:       10,
		BestBlockHeight: 100,
	}
}

func newUtxo(value uint64) *domain.Utxo {
	return &domain.Utxo{UtxoKey: randomKey(), Value: value}
}

func randomKey() domain.UtxoKey {
	return domain.UtxoKey{TxID: randomHex(32), VOut: 0}
}

func randomHex(len int) string {
	buf := make([]byte, len)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
