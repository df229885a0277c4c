// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

// GasUsedSimulationTracer accumulates the gas consumed by every commit a
// partial block simulated, including commits whose orders were later not
// included. Reported to telemetry next to the sealed block's gas used.
type GasUsedSimulationTracer struct {
	UsedGas uint64
}

func (t *GasUsedSimulationTracer) recordGas(gas uint64) {
	if t == nil {
		return
	}
	t.UsedGas += gas
}
