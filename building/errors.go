// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package building

import "errors"

// Per-order execution failures. These never abort a build; the fill loop
// records them and moves on.
var (
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrFeeCapTooLow      = errors.New("max fee per gas below block basefee")
	ErrGasLimitTooLow    = errors.New("gas limit below intrinsic gas")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrUnsupportedTx     = errors.New("only value-transfer transactions supported")
)
