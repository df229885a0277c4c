// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestStubBidders(t *testing.T) {
	require := require.New(t)

	require.True(AcceptAll{}.ShouldFinalize(uint256.NewInt(0)))
	require.False(RejectAll{}.ShouldFinalize(uint256.NewInt(1 << 30)))
}

func TestThresholdBidder(t *testing.T) {
	require := require.New(t)

	bidder := &Threshold{Min: uint256.NewInt(100)}
	require.False(bidder.ShouldFinalize(uint256.NewInt(99)))
	require.True(bidder.ShouldFinalize(uint256.NewInt(100)))
	require.True(bidder.ShouldFinalize(uint256.NewInt(101)))
}
