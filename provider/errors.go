// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provider

import "errors"

// The closed set of error kinds a [StateProvider] may surface. Callers
// classify with errors.Is; implementations wrap these with %w and attach
// detail. Conditions that fit none of the kinds are deliberately left
// unwrapped and fall to the caller's unclassified branch.
var (
	// ErrUnhealthy: the state-access path failed its pre-flight check.
	ErrUnhealthy = errors.New("state provider unhealthy")

	// ErrInconsistentView: a stable view of the requested parent state can
	// no longer be established (e.g. the parent was pruned or reorged away).
	ErrInconsistentView = errors.New("failed to initialize consistent view")

	// ErrStorage: a durable infrastructure failure in the underlying store.
	ErrStorage = errors.New("storage failure")
)
