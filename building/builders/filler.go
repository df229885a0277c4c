// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builders

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/zsluedem/rbuilder/utils"
)

// fillerSendValue is the fixed amount each filler transaction transfers.
const fillerSendValue = 100 // wei

// FillerOrderFactory produces a deterministic stream of self-funded
// transfer transactions used to pad blocks when real order flow is scarce.
// Filler pays zero tip, so it never inflates the profit measured for the
// fee recipient.
type FillerOrderFactory struct {
	signer   *utils.Signer
	chainID  uint64
	nonce    uint64
	receiver common.Address
}

// NewFillerOrderFactory seeds the factory with the sender's live chain
// nonce so its view self-heals across slots.
func NewFillerOrderFactory(signer *utils.Signer, chainID uint64, nonce uint64, receiver common.Address) *FillerOrderFactory {
	return &FillerOrderFactory{
		signer:   signer,
		chainID:  chainID,
		nonce:    nonce,
		receiver: receiver,
	}
}

// NextTx builds and signs one filler transaction priced at [basefee]. The
// gas limit (basefee * 21000 + 5000) is an affordability ceiling, not a
// gas estimate: it guarantees headroom at the sampled basefee. The signer
// was validated at construction, so signing cannot fail; if it somehow
// does, that is a programming error and panics.
func (f *FillerOrderFactory) NextTx(basefee *uint256.Int) *types.Transaction {
	gasLimit := new(uint256.Int).Mul(basefee, uint256.NewInt(21000))
	gasLimit.Add(gasLimit, uint256.NewInt(5000))
	if !gasLimit.IsUint64() {
		gasLimit.SetUint64(^uint64(0))
	}

	receiver := f.receiver
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(f.chainID),
		Nonce:     f.nonce,
		GasTipCap: new(big.Int),
		GasFeeCap: basefee.ToBig(),
		Gas:       gasLimit.Uint64(),
		To:        &receiver,
		Value:     big.NewInt(fillerSendValue),
	})
	signed, err := f.signer.SignTx(f.chainID, tx)
	if err != nil {
		panic(err)
	}
	return signed
}

// AdvanceNonce must be called exactly once per attempted transaction,
// whether or not the commit succeeded, to keep the factory's nonce in
// step with what the chain will observe.
func (f *FillerOrderFactory) AdvanceNonce() {
	f.nonce++
}
