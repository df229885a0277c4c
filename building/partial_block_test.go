// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/rbuilder/provider/providertest"
	"github.com/zsluedem/rbuilder/roothash"
	"github.com/zsluedem/rbuilder/utils"
	"github.com/zsluedem/rbuilder/workers"
)

// Address: 0x71562b71999873DB5b286dF957af199Ec94617F7
const testSenderKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func testContext() *BlockBuildingContext {
	return &BlockBuildingContext{
		ChainID:               1,
		Number:                10,
		ParentHash:            common.HexToHash("0xabc1"),
		Timestamp:             1_700_000_000,
		GasLimit:              30_000_000,
		BaseFee:               uint256.NewInt(10),
		Coinbase:              common.HexToAddress("0xc0ffee"),
		SuggestedFeeRecipient: common.HexToAddress("0xfee1"),
	}
}

func signedTransfer(t *testing.T, signer *utils.Signer, nonce uint64, tipCap, feeCap, value int64, gas uint64) *types.Transaction {
	t.Helper()
	to := common.HexToAddress("0x9999")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     nonce,
		GasTipCap: big.NewInt(tipCap),
		GasFeeCap: big.NewInt(feeCap),
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(value),
	})
	signed, err := signer.SignTx(1, tx)
	require.NoError(t, err)
	return signed
}

func commitSetup(t *testing.T, balance uint64) (*utils.Signer, *BlockState, *PartialBlock) {
	t.Helper()
	signer, err := utils.NewSigner(testSenderKey)
	require.NoError(t, err)

	backing := providertest.NewState()
	backing.SetAccount(signer.Address, 0, uint256.NewInt(balance))
	state := NewBlockState(backing)
	return signer, state, NewPartialBlock(false).WithTracer(&GasUsedSimulationTracer{})
}

func TestCommitTxAppliesTransfer(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()

	signer, state, partial := commitSetup(t, 10_000_000)
	tx := signedTransfer(t, signer, 0, 2, 12, 1000, 21000)

	result, err := partial.CommitTx(ctx, bctx, state, tx)
	require.NoError(err)
	require.Equal(uint64(21000), result.GasUsed)
	// Effective tip is 2, so the coinbase earns 2 * 21000.
	require.Equal(uint256.NewInt(2*21000), result.CoinbaseProfit)
	require.Equal(tx.Hash(), result.OrderID)

	senderBalance, err := state.Balance(ctx, signer.Address)
	require.NoError(err)
	// Sender paid (basefee 10 + tip 2) * 21000 + value 1000.
	require.Equal(uint256.NewInt(10_000_000-12*21000-1000), senderBalance)

	coinbaseBalance, err := state.Balance(ctx, bctx.Coinbase)
	require.NoError(err)
	require.Equal(uint256.NewInt(2*21000), coinbaseBalance)

	toBalance, err := state.Balance(ctx, common.HexToAddress("0x9999"))
	require.NoError(err)
	require.Equal(uint256.NewInt(1000), toBalance)

	nonce, err := state.Nonce(ctx, signer.Address)
	require.NoError(err)
	require.Equal(uint64(1), nonce)

	require.Equal(uint64(21000), partial.GasUsed())
	require.Equal(uint64(21000), partial.Tracer().UsedGas)
}

func TestCommitTxFailureTaxonomy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		balance uint64
		nonce   uint64
		tipCap  int64
		feeCap  int64
		gas     uint64
		wantErr error
	}{
		{
			name:    "nonce too high",
			balance: 10_000_000,
			nonce:   5,
			feeCap:  12,
			gas:     21000,
			wantErr: ErrNonceTooHigh,
		},
		{
			name:    "fee cap below basefee",
			balance: 10_000_000,
			feeCap:  9,
			gas:     21000,
			wantErr: ErrFeeCapTooLow,
		},
		{
			name:    "gas limit below intrinsic",
			balance: 10_000_000,
			feeCap:  12,
			gas:     20999,
			wantErr: ErrGasLimitTooLow,
		},
		{
			name:    "insufficient funds",
			balance: 1000,
			feeCap:  12,
			gas:     21000,
			wantErr: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			bctx := testContext()

			signer, state, partial := commitSetup(t, tt.balance)
			tx := signedTransfer(t, signer, tt.nonce, tt.tipCap, tt.feeCap, 1000, tt.gas)

			_, err := partial.CommitTx(ctx, bctx, state, tx)
			require.ErrorIs(err, tt.wantErr)

			// Failed commits leave the state untouched.
			balance, berr := state.Balance(ctx, signer.Address)
			require.NoError(berr)
			require.Equal(uint256.NewInt(tt.balance), balance)
			nonce, nerr := state.Nonce(ctx, signer.Address)
			require.NoError(nerr)
			require.Zero(nonce)
			require.Zero(partial.GasUsed())
		})
	}
}

func TestCommitTxNonceTooLow(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()

	signer, state, partial := commitSetup(t, 10_000_000)

	first := signedTransfer(t, signer, 0, 0, 12, 1000, 21000)
	_, err := partial.CommitTx(ctx, bctx, state, first)
	require.NoError(err)

	replay := signedTransfer(t, signer, 0, 0, 12, 1000, 21000)
	_, err = partial.CommitTx(ctx, bctx, state, replay)
	require.ErrorIs(err, ErrNonceTooLow)
}

func TestPreBlockCallRecordsParentHash(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()

	_, state, partial := commitSetup(t, 0)
	require.NoError(partial.PreBlockCall(ctx, bctx, state))

	slot := common.BigToHash(big.NewInt(int64((bctx.Number - 1) % historyServeWindow)))
	got, err := state.StorageGet(ctx, historyStorageAddress, slot)
	require.NoError(err)
	require.Equal(bctx.ParentHash, got)
}

func TestFinalizeSealsBlock(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()
	pool := workers.NewParallel(2)
	defer pool.Stop()

	signer, state, partial := commitSetup(t, 10_000_000)
	tx := signedTransfer(t, signer, 0, 0, 12, 1000, 21000)
	_, err := partial.CommitTx(ctx, bctx, state, tx)
	require.NoError(err)

	finalized, err := partial.Finalize(ctx, bctx, state, roothash.CorrectRoot, pool)
	require.NoError(err)

	header := finalized.SealedBlock.Header()
	require.Equal(bctx.ParentHash, header.ParentHash)
	require.Equal(bctx.Coinbase, header.Coinbase)
	require.Equal(bctx.Number, header.Number.Uint64())
	require.Equal(bctx.GasLimit, header.GasLimit)
	require.Equal(uint64(21000), header.GasUsed)
	require.Equal(bctx.Timestamp, header.Time)
	require.NotEqual(types.EmptyRootHash, header.Root)
	require.Len(finalized.SealedBlock.Transactions(), 1)
	require.NotNil(finalized.CachedReads)
	require.Empty(finalized.BlobSidecars)
}

func TestFinalizeSkipRootMode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()
	pool := workers.NewParallel(2)
	defer pool.Stop()

	_, state, partial := commitSetup(t, 0)
	finalized, err := partial.Finalize(ctx, bctx, state, roothash.SkipRoot, pool)
	require.NoError(err)
	require.Equal(types.EmptyRootHash, finalized.SealedBlock.Root())
}

func TestCommitTxDiscardMode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	bctx := testContext()

	signer, state, _ := commitSetup(t, 10_000_000)
	partial := NewPartialBlock(true)

	tx := signedTransfer(t, signer, 0, 0, 12, 1000, 21000)
	_, err := partial.CommitTx(ctx, bctx, state, tx)
	require.NoError(err)
	require.Equal(uint64(21000), partial.GasUsed())
	require.Empty(partial.txs)
}
