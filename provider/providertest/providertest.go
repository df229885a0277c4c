// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package providertest implements an in-memory [provider.StateProvider] for
// tests and the dev harness.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/zsluedem/rbuilder/provider"
)

var (
	_ provider.StateProvider = (*Provider)(nil)
	_ provider.StateReader   = (*State)(nil)
)

// Account is the mutable account record backing a [State].
type Account struct {
	Nonce   uint64
	Balance *uint256.Int
}

// State is a snapshot of accounts keyed by address. It implements
// [provider.StateReader] directly; reads of unknown accounts return zeros.
type State struct {
	lock     sync.RWMutex
	accounts map[common.Address]*Account
	storage  map[common.Address]map[common.Hash]common.Hash

	readErr error
}

func NewState() *State {
	return &State{
		accounts: make(map[common.Address]*Account),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// SetAccount installs or replaces an account record.
func (s *State) SetAccount(addr common.Address, nonce uint64, balance *uint256.Int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.accounts[addr] = &Account{Nonce: nonce, Balance: balance.Clone()}
}

// FailReads makes every subsequent read return [err].
func (s *State) FailReads(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.readErr = err
}

func (s *State) Nonce(_ context.Context, addr common.Address) (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	if acct, ok := s.accounts[addr]; ok {
		return acct.Nonce, nil
	}
	return 0, nil
}

func (s *State) Balance(_ context.Context, addr common.Address) (*uint256.Int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	if acct, ok := s.accounts[addr]; ok {
		return acct.Balance.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (s *State) StorageGet(_ context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.readErr != nil {
		return common.Hash{}, s.readErr
	}
	if slots, ok := s.storage[addr]; ok {
		return slots[slot], nil
	}
	return common.Hash{}, nil
}

// Provider serves [State] snapshots by block hash.
type Provider struct {
	lock      sync.RWMutex
	states    map[common.Hash]*State
	lastBlock uint64

	healthErr error
	viewErr   error
}

func NewProvider() *Provider {
	return &Provider{states: make(map[common.Hash]*State)}
}

// SetState registers [state] as the post-state of the block with [hash].
func (p *Provider) SetState(hash common.Hash, state *State) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.states[hash] = state
}

func (p *Provider) SetLastBlockNumber(n uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.lastBlock = n
}

// FailHealth makes HealthCheck fail with [err] until called with nil.
func (p *Provider) FailHealth(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.healthErr = err
}

// FailViews makes HistoryByBlockHash fail with [err] until called with nil.
func (p *Provider) FailViews(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.viewErr = err
}

func (p *Provider) HealthCheck(context.Context) error {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.healthErr
}

func (p *Provider) HistoryByBlockHash(_ context.Context, hash common.Hash) (provider.StateReader, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.viewErr != nil {
		return nil, p.viewErr
	}
	state, ok := p.states[hash]
	if !ok {
		return nil, fmt.Errorf("%w: no state for block %s", provider.ErrInconsistentView, hash)
	}
	return state, nil
}

func (p *Provider) LastBlockNumber(context.Context) (uint64, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.lastBlock, nil
}
