// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package roothash

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/rbuilder/workers"
)

func testOps() []Op {
	return []Op{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("c"), Value: []byte("3")},
	}
}

func TestCalculateDeterministic(t *testing.T) {
	require := require.New(t)

	pool := workers.NewParallel(4)
	defer pool.Stop()

	first, err := Calculate(CorrectRoot, pool, testOps())
	require.NoError(err)
	second, err := Calculate(CorrectRoot, pool, testOps())
	require.NoError(err)
	require.Equal(first, second)
}

func TestCalculateOrderIndependent(t *testing.T) {
	require := require.New(t)

	pool := workers.NewParallel(4)
	defer pool.Stop()

	ops := testOps()
	reversed := []Op{ops[2], ops[1], ops[0]}

	a, err := Calculate(CorrectRoot, pool, ops)
	require.NoError(err)
	b, err := Calculate(CorrectRoot, pool, reversed)
	require.NoError(err)
	require.Equal(a, b)
}

func TestCalculateSensitiveToValues(t *testing.T) {
	require := require.New(t)

	pool := workers.NewParallel(4)
	defer pool.Stop()

	a, err := Calculate(CorrectRoot, pool, testOps())
	require.NoError(err)

	changed := testOps()
	changed[0].Value = []byte("changed")
	b, err := Calculate(CorrectRoot, pool, changed)
	require.NoError(err)
	require.NotEqual(a, b)
}

func TestCalculateSkipRoot(t *testing.T) {
	require := require.New(t)

	root, err := Calculate(SkipRoot, nil, testOps())
	require.NoError(err)
	require.Equal(types.EmptyRootHash, root)
}

func TestCalculateEmptyOps(t *testing.T) {
	require := require.New(t)

	pool := workers.NewParallel(2)
	defer pool.Stop()

	_, err := Calculate(CorrectRoot, pool, nil)
	require.NoError(err)
}
