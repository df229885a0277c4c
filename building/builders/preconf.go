// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/zsluedem/rbuilder/bidding"
	"github.com/zsluedem/rbuilder/building"
	"github.com/zsluedem/rbuilder/provider"
	"github.com/zsluedem/rbuilder/roothash"
	"github.com/zsluedem/rbuilder/telemetry"
	"github.com/zsluedem/rbuilder/utils"
	"github.com/zsluedem/rbuilder/workers"
)

// maxFillerOrders bounds how many filler transactions one build attempts.
const maxFillerOrders = 10

// PreconfBuilderConfig is resolved once at startup. A malformed filler key
// fails [PreconfBuilderConfig.FillerSigner] and must prevent the strategy
// from starting.
type PreconfBuilderConfig struct {
	// CoinbasePayment requests a separate builder-side payment flow. The
	// filler strategy has no such flow: it always normalizes the coinbase
	// to the suggested fee recipient and pays it directly. The flag is
	// accepted so configs carrying it keep resolving.
	CoinbasePayment bool `mapstructure:"coinbase_payment"`

	// BuildDurationDeadlineMs caps wall-clock time spent filling. Nil
	// means unbounded.
	BuildDurationDeadlineMs *uint64 `mapstructure:"build_duration_deadline_ms"`

	FillerTxPrivateKey string `mapstructure:"filler_tx_private_key"`
}

func (c *PreconfBuilderConfig) BuildDurationDeadline() (time.Duration, bool) {
	if c.BuildDurationDeadlineMs == nil {
		return 0, false
	}
	return time.Duration(*c.BuildDurationDeadlineMs) * time.Millisecond, true
}

func (c *PreconfBuilderConfig) FillerSigner() (*utils.Signer, error) {
	return utils.NewSigner(c.FillerTxPrivateKey)
}

// PreconfBuilderContext owns all mutable state of sequential build
// attempts for one slot. It is driven by exactly one caller at a time and
// must not be shared across concurrently running builds.
type PreconfBuilderContext struct {
	provider     provider.StateProvider
	bidder       bidding.SlotBidder
	rootHashPool workers.Workers
	rootHashMode roothash.Mode
	builderName  string
	bctx         *building.BlockBuildingContext
	config       PreconfBuilderConfig
	signer       *utils.Signer

	// cachedReads carries state reads across sequential attempts. At most
	// one instance is held: taken when a build starts, a cache is always
	// put back when it returns.
	cachedReads *building.CachedReads

	// scratchpad, reset at the start of every attempt
	failedOrders  set.Set[common.Hash]
	orderAttempts map[common.Hash]int

	log     logging.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

func NewPreconfBuilderContext(
	stateProvider provider.StateProvider,
	bidder bidding.SlotBidder,
	rootHashPool workers.Workers,
	builderName string,
	bctx *building.BlockBuildingContext,
	config PreconfBuilderConfig,
	signer *utils.Signer,
	log logging.Logger,
	tracer trace.Tracer,
	metrics *telemetry.Metrics,
) *PreconfBuilderContext {
	return &PreconfBuilderContext{
		provider:      stateProvider,
		bidder:        bidder,
		rootHashPool:  rootHashPool,
		rootHashMode:  roothash.CorrectRoot,
		builderName:   builderName,
		bctx:          bctx,
		config:        config,
		signer:        signer,
		failedOrders:  set.NewSet[common.Hash](maxFillerOrders),
		orderAttempts: make(map[common.Hash]int, maxFillerOrders),
		log:           log,
		tracer:        tracer,
		metrics:       metrics,
	}
}

// BuildBlock runs one build attempt: snapshot, fill, measure, bid,
// finalize. It returns (nil, nil) when the bidder declines the candidate.
func (b *PreconfBuilderContext) BuildBlock(ctx context.Context) (*Block, error) {
	ctx, span := b.tracer.Start(ctx, "builders.PreconfBuilderContext.BuildBlock")
	defer span.End()

	if err := b.provider.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("state provider pre-flight: %w", err)
	}

	buildStart := time.Now()
	ordersClosedAt := time.Now().UTC()

	// Profit must be measured against the canonical recipient, not a
	// builder side-payment account.
	bctx := b.bctx.Clone()
	bctx.UseSuggestedFeeRecipientAsCoinbase()

	b.failedOrders.Clear()
	clear(b.orderAttempts)

	// Take the held cache. Whatever happens below, a cache is put back
	// before returning; the attempt works on a copy so a declined or
	// failed attempt leaks nothing into the restored instance.
	heldCache := b.cachedReads
	if heldCache == nil {
		heldCache = building.NewCachedReads()
	}
	b.cachedReads = nil
	defer func() {
		if b.cachedReads == nil {
			b.cachedReads = heldCache
		}
	}()

	stateReader, err := b.provider.HistoryByBlockHash(ctx, bctx.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("parent state %s: %w", bctx.ParentHash, err)
	}

	feeRecipientBalanceBefore, err := stateReader.Balance(ctx, bctx.SuggestedFeeRecipient)
	if err != nil {
		return nil, fmt.Errorf("fee recipient balance: %w", err)
	}

	partialBlock := building.NewPartialBlock(false).WithTracer(&building.GasUsedSimulationTracer{})
	state := building.NewBlockState(stateReader).WithCachedReads(heldCache.Clone())
	if err := partialBlock.PreBlockCall(ctx, bctx, state); err != nil {
		return nil, fmt.Errorf("pre-block call: %w", err)
	}
	blockTrace := building.NewBuiltBlockTrace()

	// Read the sender nonce from live state rather than a stored counter
	// so nonce tracking self-heals across slots.
	currentNonce, err := state.Nonce(ctx, b.signer.Address)
	if err != nil {
		return nil, fmt.Errorf("filler sender nonce: %w", err)
	}
	b.log.Info("filling block with synthetic orders",
		zap.Stringer("from", b.signer.Address),
		zap.Stringer("coinbase", bctx.Coinbase),
	)
	fillerFactory := NewFillerOrderFactory(b.signer, bctx.ChainID, currentNonce, bctx.Coinbase)

	deadline, hasDeadline := b.config.BuildDurationDeadline()
	for i := 0; i < maxFillerOrders; i++ {
		// Deadline checks are cooperative: a commit, once started, always
		// finishes. A partial fill beats blocking past the deadline.
		if hasDeadline && time.Since(buildStart) > deadline {
			break
		}

		tx := fillerFactory.NextTx(bctx.BaseFee)
		commitStart := time.Now()
		result, err := partialBlock.CommitTx(ctx, bctx, state, tx)
		commitTime := time.Since(commitStart)

		var gasUsed uint64
		if err == nil {
			gasUsed = result.GasUsed
			blockTrace.AddIncludedOrder(result)
		} else {
			b.failedOrders.Add(tx.Hash())
			b.orderAttempts[tx.Hash()]++
		}
		fillerFactory.AdvanceNonce()
		b.log.Verbo("executed order",
			zap.Bool("success", err == nil),
			zap.Duration("commitTime", commitTime),
			zap.Uint64("gasUsed", gasUsed),
			zap.Error(err),
		)
	}

	feeRecipientBalanceAfter, err := state.Balance(ctx, bctx.SuggestedFeeRecipient)
	if err != nil {
		return nil, fmt.Errorf("fee recipient balance: %w", err)
	}

	// Clamped at zero: an unrelated balance decrease must not underflow.
	profit := uint256.NewInt(0)
	if feeRecipientBalanceAfter.Cmp(feeRecipientBalanceBefore) > 0 {
		profit.Sub(feeRecipientBalanceAfter, feeRecipientBalanceBefore)
	}
	blockTrace.BidValue = profit

	if !b.bidder.ShouldFinalize(profit) {
		b.log.Debug("skipped block finalization",
			zap.Uint64("block", bctx.Number),
			zap.String("builderName", b.builderName),
		)
		return nil, nil
	}

	fillTime := time.Since(buildStart)
	blockTrace.FillTime = fillTime

	finalizeStart := time.Now()
	simGasUsed := partialBlock.Tracer().UsedGas
	finalizedBlock, err := partialBlock.Finalize(ctx, bctx, state, b.rootHashMode, b.rootHashPool)
	if err != nil {
		return nil, fmt.Errorf("finalize block: %w", err)
	}
	blockTrace.MarkOrdersClosed(ordersClosedAt)

	b.cachedReads = finalizedBlock.CachedReads

	finalizeTime := time.Since(finalizeStart)
	blockTrace.FinalizeTime = finalizeTime

	txs := len(finalizedBlock.SealedBlock.Transactions())
	gasUsed := finalizedBlock.SealedBlock.GasUsed()
	blobs := len(finalizedBlock.BlobSidecars)

	b.metrics.AddBuiltBlockMetrics(
		fillTime,
		finalizeTime,
		txs,
		blobs,
		gasUsed,
		simGasUsed,
		b.builderName,
		bctx.Timestamp,
	)

	b.log.Debug("built block",
		zap.Uint64("block", bctx.Number),
		zap.Duration("fillTime", fillTime),
		zap.Duration("finalizeTime", finalizeTime),
		zap.String("profit", blockTrace.BidValue.Dec()),
		zap.String("builderName", b.builderName),
		zap.Int("txs", txs),
		zap.Int("blobs", blobs),
		zap.Uint64("gasUsed", gasUsed),
		zap.Uint64("simGasUsed", simGasUsed),
	)

	return &Block{
		Trace:        blockTrace,
		SealedBlock:  finalizedBlock.SealedBlock,
		BlobSidecars: finalizedBlock.BlobSidecars,
		BuilderName:  b.builderName,
	}, nil
}

var _ BlockBuildingAlgorithm = (*PreconfBuilderAlgorithm)(nil)

// PreconfBuilderAlgorithm exposes the preconf builder as one pluggable
// strategy. Each invocation builds a fresh orchestrator, runs exactly one
// attempt, and maps the outcome onto slot-level control: only a lost
// parent view cancels the slot, everything else is absorbed here.
type PreconfBuilderAlgorithm struct {
	rootHashPool workers.Workers
	config       PreconfBuilderConfig
	name         string
	signer       *utils.Signer

	log     logging.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// NewPreconfBuilderAlgorithm resolves the config once; malformed filler
// key material is reported here and the strategy never starts.
func NewPreconfBuilderAlgorithm(
	rootHashPool workers.Workers,
	config PreconfBuilderConfig,
	name string,
	log logging.Logger,
	tracer trace.Tracer,
	metrics *telemetry.Metrics,
) (*PreconfBuilderAlgorithm, error) {
	signer, err := config.FillerSigner()
	if err != nil {
		return nil, fmt.Errorf("resolve filler signer: %w", err)
	}
	return &PreconfBuilderAlgorithm{
		rootHashPool: rootHashPool,
		config:       config,
		name:         name,
		signer:       signer,
		log:          log,
		tracer:       tracer,
		metrics:      metrics,
	}, nil
}

func (a *PreconfBuilderAlgorithm) Name() string {
	return a.name
}

func (a *PreconfBuilderAlgorithm) BuildBlocks(ctx context.Context, input BlockBuildingAlgorithmInput) {
	builder := NewPreconfBuilderContext(
		input.Provider,
		input.Bidder,
		a.rootHashPool,
		a.name,
		input.Ctx,
		a.config,
		a.signer,
		a.log,
		a.tracer,
		a.metrics,
	)
	runPreconfBuilder(ctx, builder, input, a.log)
}

func runPreconfBuilder(ctx context.Context, builder *PreconfBuilderContext, input BlockBuildingAlgorithmInput, log logging.Logger) {
	block, err := builder.BuildBlock(ctx)
	switch {
	case err == nil && block != nil:
		input.Sink.NewBlock(block)
	case err == nil:
		// Bidder declined; an expected outcome, not worth a log line.
	case errors.Is(err, provider.ErrInconsistentView):
		lastBlockNumber, lerr := input.Provider.LastBlockNumber(ctx)
		if lerr != nil {
			lastBlockNumber = 0
		}
		log.Debug("can't build on this head, cancelling slot",
			zap.Uint64("block", input.Ctx.Number),
			zap.Uint64("lastBlockNumber", lastBlockNumber),
			zap.Error(err),
		)
		input.Cancel.Cancel()
	case errors.Is(err, provider.ErrUnhealthy), errors.Is(err, provider.ErrStorage):
		log.Error("cancelling building due to state provider error", zap.Error(err))
	default:
		log.Warn("error filling orders", zap.Error(err))
	}
}
