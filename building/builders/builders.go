// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package builders holds the pluggable block-building strategies and the
// contract the slot orchestration drives them through.
package builders

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/zsluedem/rbuilder/bidding"
	"github.com/zsluedem/rbuilder/building"
	"github.com/zsluedem/rbuilder/provider"
)

// Block is the submittable artifact a strategy hands to its sink.
// Downstream submission is someone else's job.
type Block struct {
	Trace        *building.BuiltBlockTrace
	SealedBlock  *types.Block
	BlobSidecars []*types.BlobTxSidecar
	BuilderName  string
}

// BlockBuildingSink receives every block a strategy decides is worth
// submitting for the slot.
type BlockBuildingSink interface {
	NewBlock(block *Block)
}

// BlockBuildingAlgorithmInput is the per-slot input handed to a strategy.
type BlockBuildingAlgorithmInput struct {
	Provider provider.StateProvider
	Ctx      *building.BlockBuildingContext
	Sink     BlockBuildingSink
	Bidder   bidding.SlotBidder

	// Cancel is shared with every sibling strategy building this slot.
	// A strategy may set it; it never clears it.
	Cancel *CancelSignal
}

// BlockBuildingAlgorithm is one pluggable building strategy. Strategies
// for the same slot may run concurrently; they coordinate only through
// the input's cancellation signal.
type BlockBuildingAlgorithm interface {
	Name() string
	BuildBlocks(ctx context.Context, input BlockBuildingAlgorithmInput)
}
