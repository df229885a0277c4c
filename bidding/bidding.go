// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bidding decides whether a candidate block's measured profit is
// worth sealing and submitting.
package bidding

import "github.com/holiman/uint256"

// SlotBidder is consulted once per build attempt with the profit credited
// to the fee recipient. Implementations must be side-effect free from the
// builder's perspective; the builder treats the decision as opaque.
type SlotBidder interface {
	ShouldFinalize(profit *uint256.Int) bool
}

var (
	_ SlotBidder = (*AcceptAll)(nil)
	_ SlotBidder = (*RejectAll)(nil)
	_ SlotBidder = (*Threshold)(nil)
)

// AcceptAll finalizes every candidate, profitable or not.
type AcceptAll struct{}

func (AcceptAll) ShouldFinalize(*uint256.Int) bool { return true }

// RejectAll never finalizes. Used to dry-run fill performance.
type RejectAll struct{}

func (RejectAll) ShouldFinalize(*uint256.Int) bool { return false }

// Threshold finalizes only when profit meets a configured floor.
type Threshold struct {
	Min *uint256.Int
}

func (t *Threshold) ShouldFinalize(profit *uint256.Int) bool {
	return profit.Cmp(t.Min) >= 0
}
