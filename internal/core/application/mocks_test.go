package application_test

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/stretchr/testify/mock"

	"github.com/atollwallet/coinselect/internal/core/domain"
)

// ports.CoinSelector
type mockCoinSelector struct {
	mock.Mock
}

func (m *mockCoinSelector) SelectUtxos(
	utxos []*domain.Utxo, ctx domain.SelectionContext,
) (*domain.SelectionResult, error) {
	args := m.Called(utxos, ctx)

	var res *domain.SelectionResult
	if a := args.Get(0); a != nil {
		res = a.(*domain.SelectionResult)
	}
	return res, args.Error(1)
}

func randomUtxo(value uint64) *domain.Utxo {
	return &domain.Utxo{
		UtxoKey: domain.UtxoKey{TxID: randomHex(32), VOut: 0},
		Value:   value,
	}
}

func randomHex(len int) string {
	buf := make([]byte, len)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
