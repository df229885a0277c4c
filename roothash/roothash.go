// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package roothash computes the state root committed into a sealed header
// from the set of state operations a block performed.
package roothash

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zsluedem/rbuilder/workers"
)

// Mode selects how much of the root calculation to perform.
type Mode uint8

const (
	// CorrectRoot computes the full root over the block's state diff.
	CorrectRoot Mode = iota
	// SkipRoot seals with the empty root. Useful when the consumer
	// recomputes the root itself (e.g. local testing against a relay that
	// does full validation anyway).
	SkipRoot
)

// Op is one state mutation: a fully qualified key and its new value.
type Op struct {
	Key   []byte
	Value []byte
}

// Calculate hashes [ops] into a state root, sharding the leaf hashing
// across [pool]. The result is independent of the order of [ops].
func Calculate(mode Mode, pool workers.Workers, ops []Op) (common.Hash, error) {
	if mode == SkipRoot {
		return types.EmptyRootHash, nil
	}

	sorted := make([]Op, len(ops))
	copy(sorted, ops)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})

	job, err := pool.NewJob(len(sorted))
	if err != nil {
		return common.Hash{}, err
	}

	shards := job.Workers()
	if shards < 1 {
		shards = 1
	}
	shardHashes := make([]common.Hash, shards)
	per := (len(sorted) + shards - 1) / shards
	for s := 0; s < shards; s++ {
		start := min(s*per, len(sorted))
		end := min(start+per, len(sorted))
		shard := sorted[start:end]
		idx := s
		job.Go(func() error {
			h := crypto.NewKeccakState()
			for _, op := range shard {
				h.Write(op.Key)
				h.Write(op.Value)
			}
			h.Read(shardHashes[idx][:])
			return nil
		})
	}
	job.Done(nil)
	if err := job.Wait(); err != nil {
		return common.Hash{}, err
	}

	combined := make([]byte, 0, shards*common.HashLength)
	for _, sh := range shardHashes {
		combined = append(combined, sh[:]...)
	}
	return crypto.Keccak256Hash(combined), nil
}
