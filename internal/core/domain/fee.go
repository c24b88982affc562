package domain

import "math"

// FeeModel holds the size constants of the linear fee model
// fee = feeRate x (BaseSize + N x InputSize + M x OutputSize).
// The constants are configuration, never derived from the network at call
// time.
type FeeModel struct {
	BaseSize   uint64
	InputSize  uint64
	OutputSize uint64
}

// Fee returns the fee for a transaction with the given number of inputs and
// outputs at the given fee rate.
func (m FeeModel) Fee(feeRate uint64, numInputs, numOutputs int) uint64 {
	size := SaturatingAdd(
		m.BaseSize,
		SaturatingAdd(
			SaturatingMul(uint64(numInputs), m.InputSize),
			SaturatingMul(uint64(numOutputs), m.OutputSize),
		),
	)
	return SaturatingMul(feeRate, size)
}

// InputFee returns the marginal fee cost of adding one input.
func (m FeeModel) InputFee(feeRate uint64) uint64 {
	return SaturatingMul(feeRate, m.InputSize)
}

// ChangeOutputCost returns the marginal fee cost of adding a change output.
func (m FeeModel) ChangeOutputCost(feeRate uint64) uint64 {
	return SaturatingMul(feeRate, m.OutputSize)
}

// DustThreshold returns the minimum change amount worth returning to the
// sender. Anything below it costs more to create than it is worth and gets
// folded into the fee instead.
func (m FeeModel) DustThreshold(feeRate uint64) uint64 {
	return m.ChangeOutputCost(feeRate)
}

// EffectiveValue returns the value of the utxo net of the fee cost of
// spending it as an input, or 0 if the cost eats the whole amount.
func (m FeeModel) EffectiveValue(u *Utxo, feeRate uint64) uint64 {
	inputFee := m.InputFee(feeRate)
	if u.Value <= inputFee {
		return 0
	}
	return u.Value - inputFee
}

func SaturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func SaturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}
