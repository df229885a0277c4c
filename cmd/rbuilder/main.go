// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zsluedem/rbuilder/bidding"
	"github.com/zsluedem/rbuilder/building"
	"github.com/zsluedem/rbuilder/building/builders"
	"github.com/zsluedem/rbuilder/config"
	"github.com/zsluedem/rbuilder/provider/providertest"
	"github.com/zsluedem/rbuilder/telemetry"
	"github.com/zsluedem/rbuilder/workers"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "rbuilder",
		Short: "Run one preconf build attempt against an in-memory chain",
		RunE:  run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the builder config file")
}

func run(*cobra.Command, []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Stop()

	registry := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	rootHashPool := workers.NewParallel(cfg.RootHashWorkers)
	defer rootHashPool.Stop()

	algorithm, err := builders.NewPreconfBuilderAlgorithm(
		rootHashPool,
		cfg.Preconf,
		cfg.Name,
		log,
		trace.Noop,
		metrics,
	)
	if err != nil {
		return err
	}

	// A synthetic single-block chain so a build can run end to end
	// without a real chain database behind it.
	signer, err := cfg.Preconf.FillerSigner()
	if err != nil {
		return err
	}
	parentHash := common.HexToHash("0x01")
	parentState := providertest.NewState()
	parentState.SetAccount(signer.Address, 0, uint256.MustFromDecimal("1000000000000000000"))

	stateProvider := providertest.NewProvider()
	stateProvider.SetState(parentHash, parentState)
	stateProvider.SetLastBlockNumber(1)

	bctx := &building.BlockBuildingContext{
		ChainID:               1,
		Number:                2,
		ParentHash:            parentHash,
		Timestamp:             uint64(time.Now().Unix()),
		GasLimit:              30_000_000,
		BaseFee:               uint256.NewInt(7),
		Coinbase:              common.HexToAddress("0xc0ffee"),
		SuggestedFeeRecipient: common.HexToAddress("0xfee"),
	}

	sink := &loggingSink{log: log}
	algorithm.BuildBlocks(context.Background(), builders.BlockBuildingAlgorithmInput{
		Provider: stateProvider,
		Ctx:      bctx,
		Sink:     sink,
		Bidder:   &bidding.Threshold{Min: uint256.NewInt(1)},
		Cancel:   builders.NewCancelSignal(),
	})

	if sink.block == nil {
		log.Info("no block produced")
		return nil
	}
	log.Info("produced block",
		zap.Stringer("hash", sink.block.SealedBlock.Hash()),
		zap.Int("txs", len(sink.block.SealedBlock.Transactions())),
		zap.String("profit", sink.block.Trace.BidValue.Dec()),
	)
	return nil
}

type loggingSink struct {
	log   logging.Logger
	block *builders.Block
}

func (s *loggingSink) NewBlock(block *builders.Block) {
	s.block = block
	s.log.Info("sealed block handed to sink", zap.String("builderName", block.BuilderName))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
