// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/zsluedem/rbuilder/provider"
	"github.com/zsluedem/rbuilder/roothash"
)

// BlockState is the mutable working state of one build attempt: pending
// writes layered over a read cache layered over a consistent parent view.
// Reads check pending writes first, then the cache, then fall through to
// the reader and populate the cache on the way back.
//
// Not safe for concurrent use; a build attempt is single-threaded.
type BlockState struct {
	reader provider.StateReader
	cached *CachedReads

	pendingNonces   map[common.Address]uint64
	pendingBalances map[common.Address]*uint256.Int
	pendingStorage  map[common.Address]map[common.Hash]common.Hash
}

func NewBlockState(reader provider.StateReader) *BlockState {
	return &BlockState{
		reader:          reader,
		cached:          NewCachedReads(),
		pendingNonces:   make(map[common.Address]uint64),
		pendingBalances: make(map[common.Address]*uint256.Int),
		pendingStorage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// WithCachedReads seeds the state with a previously captured cache. The
// state takes ownership of [cached].
func (s *BlockState) WithCachedReads(cached *CachedReads) *BlockState {
	s.cached = cached
	return s
}

func (s *BlockState) loadAccount(ctx context.Context, addr common.Address) (*cachedAccount, error) {
	if acct, ok := s.cached.account(addr); ok {
		return acct, nil
	}
	nonce, err := s.reader.Nonce(ctx, addr)
	if err != nil {
		return nil, err
	}
	balance, err := s.reader.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.cached.putAccount(addr, nonce, balance)
	acct, _ := s.cached.account(addr)
	return acct, nil
}

func (s *BlockState) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	if nonce, ok := s.pendingNonces[addr]; ok {
		return nonce, nil
	}
	acct, err := s.loadAccount(ctx, addr)
	if err != nil {
		return 0, err
	}
	return acct.nonce, nil
}

func (s *BlockState) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	if balance, ok := s.pendingBalances[addr]; ok {
		return balance.Clone(), nil
	}
	acct, err := s.loadAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	return acct.balance.Clone(), nil
}

func (s *BlockState) StorageGet(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if slots, ok := s.pendingStorage[addr]; ok {
		if v, ok := slots[slot]; ok {
			return v, nil
		}
	}
	if v, ok := s.cached.storageSlot(addr, slot); ok {
		return v, nil
	}
	v, err := s.reader.StorageGet(ctx, addr, slot)
	if err != nil {
		return common.Hash{}, err
	}
	s.cached.putStorageSlot(addr, slot, v)
	return v, nil
}

func (s *BlockState) SetNonce(addr common.Address, nonce uint64) {
	s.pendingNonces[addr] = nonce
}

func (s *BlockState) SetBalance(addr common.Address, balance *uint256.Int) {
	s.pendingBalances[addr] = balance.Clone()
}

func (s *BlockState) StorageSet(addr common.Address, slot, value common.Hash) {
	slots, ok := s.pendingStorage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.pendingStorage[addr] = slots
	}
	slots[slot] = value
}

// IntoCachedReads releases the accumulated read cache for reuse by the
// next build attempt. The state must not be used afterwards.
func (s *BlockState) IntoCachedReads() *CachedReads {
	cached := s.cached
	s.cached = nil
	return cached
}

// StateOps flattens the pending writes into root-hash operations.
func (s *BlockState) StateOps() []roothash.Op {
	ops := make([]roothash.Op, 0, len(s.pendingNonces)+len(s.pendingBalances)+len(s.pendingStorage))
	for addr, nonce := range s.pendingNonces {
		key := append([]byte("n"), addr.Bytes()...)
		ops = append(ops, roothash.Op{Key: key, Value: binary.BigEndian.AppendUint64(nil, nonce)})
	}
	for addr, balance := range s.pendingBalances {
		key := append([]byte("b"), addr.Bytes()...)
		b32 := balance.Bytes32()
		ops = append(ops, roothash.Op{Key: key, Value: b32[:]})
	}
	for addr, slots := range s.pendingStorage {
		for slot, value := range slots {
			key := append([]byte("s"), addr.Bytes()...)
			key = append(key, slot.Bytes()...)
			ops = append(ops, roothash.Op{Key: key, Value: value.Bytes()})
		}
	}
	return ops
}
