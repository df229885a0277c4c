// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/zsluedem/rbuilder/utils"
)

// BlockBuildingContext carries everything about the slot a block is being
// built for. It is shared by every algorithm building for the slot and
// must be cloned before per-build mutation.
type BlockBuildingContext struct {
	ChainID    uint64
	Number     uint64
	ParentHash common.Hash
	Timestamp  uint64
	GasLimit   uint64
	BaseFee    *uint256.Int

	// Coinbase is the address block rewards accrue to during execution.
	Coinbase common.Address
	// SuggestedFeeRecipient is the proposer-requested payout address and
	// the anchor profit is measured against.
	SuggestedFeeRecipient common.Address

	// BuilderSigner, when set, identifies the builder account used for a
	// separate coinbase side payment instead of paying the fee recipient
	// directly.
	BuilderSigner *utils.Signer
}

func (c *BlockBuildingContext) Clone() *BlockBuildingContext {
	cp := *c
	cp.BaseFee = c.BaseFee.Clone()
	return &cp
}

// UseSuggestedFeeRecipientAsCoinbase rewrites the context so execution pays
// the proposer-suggested fee recipient directly. Profit measured against
// the fee recipient then reflects actual block proceeds rather than a side
// payment routed through the builder account.
func (c *BlockBuildingContext) UseSuggestedFeeRecipientAsCoinbase() {
	c.Coinbase = c.SuggestedFeeRecipient
	c.BuilderSigner = nil
}
