// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StateProvider is the chain-database collaborator block building runs
// against. Implementations must return errors wrapping one of the kinds in
// errors.go so callers can classify failures without parsing messages.
type StateProvider interface {
	// HealthCheck verifies the state-access path is usable. Called before
	// any state is touched.
	HealthCheck(ctx context.Context) error

	// HistoryByBlockHash opens a consistent read-only view of state as of
	// the block with [hash]. Fails with [ErrInconsistentView] when such a
	// view can no longer be established.
	HistoryByBlockHash(ctx context.Context, hash common.Hash) (StateReader, error)

	// LastBlockNumber returns the height of the latest locally known block.
	LastBlockNumber(ctx context.Context) (uint64, error)
}

// StateReader reads account state from a single consistent view.
//
// Missing accounts are not errors: they read as zero nonce, zero balance,
// and empty storage.
type StateReader interface {
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
	Balance(ctx context.Context, addr common.Address) (*uint256.Int, error)
	StorageGet(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
}
