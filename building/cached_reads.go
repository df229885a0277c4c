// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type cachedAccount struct {
	nonce   uint64
	balance *uint256.Int
}

// CachedReads remembers account and storage values previously fetched from
// a state reader so sequential build attempts for the same slot skip the
// round trip. An orchestrator holds at most one instance at a time: it is
// taken at the start of a build and a cache is always put back at the end.
type CachedReads struct {
	accounts map[common.Address]*cachedAccount
	storage  map[common.Address]map[common.Hash]common.Hash
}

func NewCachedReads() *CachedReads {
	return &CachedReads{
		accounts: make(map[common.Address]*cachedAccount),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// Clone deep-copies the cache so an in-flight build cannot pollute the
// instance its owner may need to restore.
func (c *CachedReads) Clone() *CachedReads {
	cp := NewCachedReads()
	for addr, acct := range c.accounts {
		cp.accounts[addr] = &cachedAccount{nonce: acct.nonce, balance: acct.balance.Clone()}
	}
	for addr, slots := range c.storage {
		cpSlots := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			cpSlots[k] = v
		}
		cp.storage[addr] = cpSlots
	}
	return cp
}

// Len returns the number of cached accounts.
func (c *CachedReads) Len() int {
	return len(c.accounts)
}

func (c *CachedReads) account(addr common.Address) (*cachedAccount, bool) {
	acct, ok := c.accounts[addr]
	return acct, ok
}

func (c *CachedReads) putAccount(addr common.Address, nonce uint64, balance *uint256.Int) {
	c.accounts[addr] = &cachedAccount{nonce: nonce, balance: balance.Clone()}
}

func (c *CachedReads) storageSlot(addr common.Address, slot common.Hash) (common.Hash, bool) {
	slots, ok := c.storage[addr]
	if !ok {
		return common.Hash{}, false
	}
	v, ok := slots[slot]
	return v, ok
}

func (c *CachedReads) putStorageSlot(addr common.Address, slot, value common.Hash) {
	slots, ok := c.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		c.storage[addr] = slots
	}
	slots[slot] = value
}
