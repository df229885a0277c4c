// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zsluedem/rbuilder/utils"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	require := require.New(t)

	path := writeConfig(t, `
preconf:
  filler_tx_private_key: `+testKey+`
`)
	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("preconf-builder", cfg.Name)
	require.Equal("info", cfg.LogLevel)
	require.Equal(4, cfg.RootHashWorkers)
	require.False(cfg.Preconf.CoinbasePayment)
	require.Nil(cfg.Preconf.BuildDurationDeadlineMs)
}

func TestLoadFullConfig(t *testing.T) {
	require := require.New(t)

	path := writeConfig(t, `
name: east-coast-preconf
log_level: debug
root_hash_workers: 8
preconf:
  coinbase_payment: true
  build_duration_deadline_ms: 50
  filler_tx_private_key: `+testKey+`
`)
	cfg, err := Load(path)
	require.NoError(err)
	require.Equal("east-coast-preconf", cfg.Name)
	require.Equal(8, cfg.RootHashWorkers)
	require.True(cfg.Preconf.CoinbasePayment)
	require.NotNil(cfg.Preconf.BuildDurationDeadlineMs)
	require.Equal(uint64(50), *cfg.Preconf.BuildDurationDeadlineMs)

	deadline, ok := cfg.Preconf.BuildDurationDeadline()
	require.True(ok)
	require.Equal("50ms", deadline.String())
}

func TestLoadRejectsMalformedFillerKey(t *testing.T) {
	path := writeConfig(t, `
preconf:
  filler_tx_private_key: not-a-key
`)
	_, err := Load(path)
	require.ErrorIs(t, err, utils.ErrMalformedKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
