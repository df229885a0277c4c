// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builders

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/rbuilder/utils"
)

func TestFillerTxShape(t *testing.T) {
	require := require.New(t)

	signer, err := utils.NewSigner(testFillerKey)
	require.NoError(err)
	receiver := common.HexToAddress("0xc0ffee")
	factory := NewFillerOrderFactory(signer, 1, 7, receiver)

	basefee := uint256.NewInt(9)
	tx := factory.NextTx(basefee)

	require.Equal(uint64(7), tx.Nonce())
	require.Equal(uint64(9*21000+5000), tx.Gas())
	require.Zero(tx.GasTipCap().Sign()) // filler never tips
	require.Zero(tx.GasFeeCap().Cmp(basefee.ToBig()))
	require.Equal(&receiver, tx.To())
	require.Zero(tx.Value().Cmp(big.NewInt(fillerSendValue)))

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), tx)
	require.NoError(err)
	require.Equal(signer.Address, sender)
}

func TestFillerNonceAdvancesExactlyOncePerAttempt(t *testing.T) {
	require := require.New(t)

	signer, err := utils.NewSigner(testFillerKey)
	require.NoError(err)
	factory := NewFillerOrderFactory(signer, 1, 100, common.HexToAddress("0xc0ffee"))

	basefee := uint256.NewInt(7)
	for i := 0; i < 5; i++ {
		tx := factory.NextTx(basefee)
		require.Equal(uint64(100+i), tx.Nonce())
		// Producing a transaction does not consume the nonce; only the
		// explicit advance does.
		again := factory.NextTx(basefee)
		require.Equal(tx.Nonce(), again.Nonce())
		factory.AdvanceNonce()
	}
}

func TestFillerGasLimitSaturates(t *testing.T) {
	require := require.New(t)

	signer, err := utils.NewSigner(testFillerKey)
	require.NoError(err)
	factory := NewFillerOrderFactory(signer, 1, 0, common.HexToAddress("0xc0ffee"))

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	tx := factory.NextTx(huge)
	require.Equal(^uint64(0), tx.Gas())
}
