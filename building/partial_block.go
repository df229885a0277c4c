// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"

	"github.com/zsluedem/rbuilder/roothash"
	"github.com/zsluedem/rbuilder/workers"
)

// historyStorageAddress is the system account the parent block hash is
// recorded under before any user transaction executes (EIP-2935 layout).
var historyStorageAddress = common.HexToAddress("0x0000F90827F1C53a10cb7A02335B175320002935")

const historyServeWindow = 8191

// ExecutionResult records one successfully committed order.
type ExecutionResult struct {
	Tx             *types.Transaction
	OrderID        common.Hash
	GasUsed        uint64
	CoinbaseProfit *uint256.Int
}

// FinalizedBlock is the output of [PartialBlock.Finalize].
type FinalizedBlock struct {
	SealedBlock  *types.Block
	CachedReads  *CachedReads
	BlobSidecars []*types.BlobTxSidecar
}

// PartialBlock accumulates committed transactions and their gas while a
// block is being filled. It implements the value-transfer subset of
// EIP-1559 execution; full contract execution belongs to the execution
// engine and is not performed here.
type PartialBlock struct {
	discardTxs bool

	txs     []*types.Transaction
	gasUsed uint64

	tracer *GasUsedSimulationTracer
}

func NewPartialBlock(discardTxs bool) *PartialBlock {
	return &PartialBlock{discardTxs: discardTxs}
}

func (p *PartialBlock) WithTracer(tracer *GasUsedSimulationTracer) *PartialBlock {
	p.tracer = tracer
	return p
}

func (p *PartialBlock) Tracer() *GasUsedSimulationTracer {
	return p.tracer
}

func (p *PartialBlock) GasUsed() uint64 {
	return p.gasUsed
}

// PreBlockCall executes the mandatory pre-block system operations against
// [state]: recording the parent hash in the history account's ring buffer.
func (p *PartialBlock) PreBlockCall(_ context.Context, bctx *BlockBuildingContext, state *BlockState) error {
	if bctx.Number == 0 {
		return nil
	}
	slot := common.BigToHash(new(big.Int).SetUint64((bctx.Number - 1) % historyServeWindow))
	state.StorageSet(historyStorageAddress, slot, bctx.ParentHash)
	return nil
}

// CommitTx attempts to apply [tx] to [state]. On failure the state is left
// untouched and a typed error from errors.go describes why; failures are
// expected during filling and must not abort the build.
func (p *PartialBlock) CommitTx(
	ctx context.Context,
	bctx *BlockBuildingContext,
	state *BlockState,
	tx *types.Transaction,
) (*ExecutionResult, error) {
	if tx.To() == nil {
		return nil, ErrUnsupportedTx
	}
	sender, err := types.Sender(types.LatestSignerForChainID(new(big.Int).SetUint64(bctx.ChainID)), tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTx, err)
	}

	if tx.Gas() < params.TxGas {
		return nil, ErrGasLimitTooLow
	}
	feeCap, overflow := uint256.FromBig(tx.GasFeeCap())
	if overflow {
		return nil, ErrUnsupportedTx
	}
	if feeCap.Cmp(bctx.BaseFee) < 0 {
		return nil, ErrFeeCapTooLow
	}

	stateNonce, err := state.Nonce(ctx, sender)
	if err != nil {
		return nil, err
	}
	switch {
	case tx.Nonce() < stateNonce:
		return nil, ErrNonceTooLow
	case tx.Nonce() > stateNonce:
		return nil, ErrNonceTooHigh
	}

	tipCap, overflow := uint256.FromBig(tx.GasTipCap())
	if overflow {
		return nil, ErrUnsupportedTx
	}
	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return nil, ErrUnsupportedTx
	}

	// Worst-case prepaid cost, then refund down to the effective price.
	gas := uint256.NewInt(tx.Gas())
	cost := new(uint256.Int).Mul(feeCap, gas)
	cost.Add(cost, value)

	balance, err := state.Balance(ctx, sender)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(cost) < 0 {
		return nil, ErrInsufficientFunds
	}

	gasUsed := params.TxGas
	effectiveTip := new(uint256.Int).Sub(feeCap, bctx.BaseFee)
	if tipCap.Cmp(effectiveTip) < 0 {
		effectiveTip.Set(tipCap)
	}
	gasPrice := new(uint256.Int).Add(bctx.BaseFee, effectiveTip)
	spent := new(uint256.Int).Mul(gasPrice, uint256.NewInt(gasUsed))
	spent.Add(spent, value)

	state.SetBalance(sender, new(uint256.Int).Sub(balance, spent))
	state.SetNonce(sender, stateNonce+1)

	coinbaseProfit := new(uint256.Int).Mul(effectiveTip, uint256.NewInt(gasUsed))
	if coinbaseProfit.Sign() > 0 {
		coinbaseBalance, err := state.Balance(ctx, bctx.Coinbase)
		if err != nil {
			return nil, err
		}
		state.SetBalance(bctx.Coinbase, new(uint256.Int).Add(coinbaseBalance, coinbaseProfit))
	}
	if value.Sign() > 0 {
		toBalance, err := state.Balance(ctx, *tx.To())
		if err != nil {
			return nil, err
		}
		state.SetBalance(*tx.To(), new(uint256.Int).Add(toBalance, value))
	}

	p.gasUsed += gasUsed
	p.tracer.recordGas(gasUsed)
	if !p.discardTxs {
		p.txs = append(p.txs, tx)
	}

	return &ExecutionResult{
		Tx:             tx,
		OrderID:        tx.Hash(),
		GasUsed:        gasUsed,
		CoinbaseProfit: coinbaseProfit,
	}, nil
}

// Finalize computes the state root, seals the block, and releases the
// state's read cache for reuse by the next attempt.
func (p *PartialBlock) Finalize(
	_ context.Context,
	bctx *BlockBuildingContext,
	state *BlockState,
	mode roothash.Mode,
	pool workers.Workers,
) (*FinalizedBlock, error) {
	root, err := roothash.Calculate(mode, pool, state.StateOps())
	if err != nil {
		return nil, fmt.Errorf("compute state root: %w", err)
	}

	header := &types.Header{
		ParentHash: bctx.ParentHash,
		Coinbase:   bctx.Coinbase,
		Root:       root,
		Number:     new(big.Int).SetUint64(bctx.Number),
		GasLimit:   bctx.GasLimit,
		GasUsed:    p.gasUsed,
		Time:       bctx.Timestamp,
		BaseFee:    bctx.BaseFee.ToBig(),
	}
	sealed := types.NewBlock(header, p.txs, nil, nil, trie.NewStackTrie(nil))

	var sidecars []*types.BlobTxSidecar
	for _, tx := range p.txs {
		if sidecar := tx.BlobTxSidecar(); sidecar != nil {
			sidecars = append(sidecars, sidecar)
		}
	}

	return &FinalizedBlock{
		SealedBlock:  sealed,
		CachedReads:  state.IntoCachedReads(),
		BlobSidecars: sidecars,
	}, nil
}
