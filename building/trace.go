// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import (
	"time"

	"github.com/holiman/uint256"
)

// BuiltBlockTrace accumulates what one build attempt produced: the orders
// that made it in, the profit credited to the fee recipient, and phase
// timings. Handed to the sink with the sealed block on success, discarded
// otherwise.
type BuiltBlockTrace struct {
	IncludedOrders []*ExecutionResult

	// BidValue is the fee-recipient balance delta the bid decision was
	// made against. Never negative.
	BidValue *uint256.Int

	FillTime       time.Duration
	FinalizeTime   time.Duration
	OrdersClosedAt time.Time
}

func NewBuiltBlockTrace() *BuiltBlockTrace {
	return &BuiltBlockTrace{
		BidValue: uint256.NewInt(0),
	}
}

func (t *BuiltBlockTrace) AddIncludedOrder(result *ExecutionResult) {
	t.IncludedOrders = append(t.IncludedOrders, result)
}

// MarkOrdersClosed records the instant after which no further order could
// have been considered for this block.
func (t *BuiltBlockTrace) MarkOrdersClosed(at time.Time) {
	t.OrdersClosedAt = at
}
