// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMalformedKey is returned when key material cannot be parsed into a
// usable secp256k1 private key. It is a startup-time failure: nothing that
// holds a [Signer] should ever observe it at runtime.
var ErrMalformedKey = errors.New("malformed secp256k1 private key")

// Signer exclusively owns the key material used to sign builder-originated
// transactions.
type Signer struct {
	Address common.Address

	key *ecdsa.PrivateKey
}

// NewSigner parses [hexKey] (with or without a 0x prefix) into a Signer.
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedKey, err)
	}
	return &Signer{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// SignTx signs [tx] for [chainID] using the latest supported signer rules.
func (s *Signer) SignTx(chainID uint64, tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), s.key)
}
