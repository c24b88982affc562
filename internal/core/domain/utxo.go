package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// UtxoStatus represents the spendability state of an utxo as tracked by the
// repository owning it.
type UtxoStatus int

const (
	UtxoStatusUnspent UtxoStatus = iota
	UtxoStatusEncumbered
	UtxoStatusSpent
	UtxoStatusInvalid
)

func (s UtxoStatus) String() string {
	switch s {
	case UtxoStatusUnspent:
		return "unspent"
	case UtxoStatusEncumbered:
		return "encumbered"
	case UtxoStatusSpent:
		return "spent"
	case UtxoStatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// UtxoFeatures is the output-feature tag carried by an utxo.
type UtxoFeatures int

const (
	UtxoFeaturesDefault UtxoFeatures = iota
	UtxoFeaturesCoinbase
	UtxoFeaturesSidechain
	UtxoFeaturesBurn
)

func (f UtxoFeatures) String() string {
	switch f {
	case UtxoFeaturesDefault:
		return "default"
	case UtxoFeaturesCoinbase:
		return "coinbase"
	case UtxoFeaturesSidechain:
		return "sidechain"
	case UtxoFeaturesBurn:
		return "burn"
	default:
		return "unknown"
	}
}

// UtxoKey represents the key of an Utxo, composed by its txid and vout.
type UtxoKey struct {
	TxID string
	VOut uint32
}

func (k UtxoKey) Hash() string {
	buf, _ := hex.DecodeString(k.TxID)
	buf = append(buf, byte(k.VOut))
	return hex.EncodeToString(btcutil.Hash160(buf))
}

func (k UtxoKey) String() string {
	return fmt.Sprintf("{%s: %d}", k.TxID, k.VOut)
}

// Utxo is the data structure representing a spendable output candidate
// offered to the coin selection engine, with extra info like its maturity
// height, the timestamp it was detected at, its status and its output
// features. The engine treats candidates as read-only: they are owned by the
// repository supplying them and are never mutated here.
type Utxo struct {
	UtxoKey
	Value          uint64
	MaturityHeight uint64
	DetectedAt     int64
	Status         UtxoStatus
	Features       UtxoFeatures
}

// IsUnspent returns whether the utxo is neither spent, encumbered nor
// invalidated.
func (u *Utxo) IsUnspent() bool {
	return u.Status == UtxoStatusUnspent
}

// IsMature returns whether the utxo reached its maturity height at the given
// chain height.
func (u *Utxo) IsMature(height uint64) bool {
	return height >= u.MaturityHeight
}

// IsSpendable returns whether the utxo can be offered to a selection
// strategy at the given chain height. Burnt outputs are never spendable.
func (u *Utxo) IsSpendable(height uint64) bool {
	if u.Features == UtxoFeaturesBurn {
		return false
	}
	return u.IsUnspent() && u.IsMature(height)
}

// Key returns the UtxoKey of the current utxo.
func (u *Utxo) Key() UtxoKey {
	return u.UtxoKey
}
