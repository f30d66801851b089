// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pmm implements a proactive market maker pricing engine. A pool
// quotes around an external oracle price, with a depth parameter k in
// [0, ONE] controlling how fast the quote deviates as inventory drifts
// from its per-token targets. k=0 quotes the oracle price flat, k=ONE
// degenerates to a constant-product curve.
package pmm

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/pmm/fixmath"
)

// RStatus identifies which side of the pool holds surplus inventory.
type RStatus uint8

const (
	// RBalanced means both balances sit exactly at their targets.
	RBalanced RStatus = iota

	// RExcessQuote means the pool holds more quote than its target; prior
	// trades sold base into the pool.
	RExcessQuote

	// RExcessBase means the pool holds surplus base (or is balanced on the
	// quote side but not at equilibrium).
	RExcessBase
)

func (r RStatus) String() string {
	switch r {
	case RBalanced:
		return "balanced"
	case RExcessQuote:
		return "excess-quote"
	case RExcessBase:
		return "excess-base"
	default:
		return "unknown"
	}
}

// PoolConfig is the static parameterization of a single pool. Targets,
// k and fee rates are 18-decimal fixed point; balances live in the
// ledger in native token units and are rescaled when a snapshot is
// built.
type PoolConfig struct {
	BaseToken  common.Address
	QuoteToken common.Address

	// Native decimal places of each token, at most 18.
	BaseDecimals  uint8
	QuoteDecimals uint8

	// OracleFeed identifies the price feed quoting quote-per-base.
	OracleFeed   common.Hash
	MaxStaleness time.Duration

	// K is the depth parameter in [0, ONE].
	K *uint256.Int

	// Equilibrium inventory targets, 18-decimal scale.
	TargetBase  *uint256.Int
	TargetQuote *uint256.Int

	// Fee rates applied to the unspecified leg of a trade. Nil means zero.
	LPFeeRate         *uint256.Int
	MaintainerFeeRate *uint256.Int
}

// ID derives a stable pool identifier from the token pair and feed.
func (c *PoolConfig) ID() common.Hash {
	h := blake3.New()
	h.Write(c.BaseToken.Bytes())
	h.Write(c.QuoteToken.Bytes())
	h.Write(c.OracleFeed.Bytes())
	var id common.Hash
	copy(id[:], h.Sum(nil))
	return id
}

// Validate checks the static parameters. It does not touch the ledger
// or the oracle.
func (c *PoolConfig) Validate() error {
	if c.K == nil || c.K.Gt(fixmath.One) {
		return errInvalidK(c.K)
	}
	if c.TargetBase == nil || c.TargetBase.IsZero() || c.TargetQuote == nil || c.TargetQuote.IsZero() {
		return errConfig("inventory targets must be positive")
	}
	if c.BaseDecimals > 18 || c.QuoteDecimals > 18 {
		return errConfig("token decimals above 18 are not supported")
	}
	if c.MaxStaleness <= 0 {
		return errConfig("max oracle staleness must be positive")
	}
	feeSum := new(uint256.Int).Add(c.lpRate(), c.maintainerRate())
	if !feeSum.Lt(fixmath.One) {
		return errConfig("combined fee rate must be below ONE")
	}
	return nil
}

func (c *PoolConfig) lpRate() *uint256.Int {
	if c.LPFeeRate == nil {
		return new(uint256.Int)
	}
	return c.LPFeeRate
}

func (c *PoolConfig) maintainerRate() *uint256.Int {
	if c.MaintainerFeeRate == nil {
		return new(uint256.Int)
	}
	return c.MaintainerFeeRate
}

// PoolSnapshot is an immutable read of pool state with every field
// already rescaled to 18-decimal fixed point. Pricing is a pure
// function of a snapshot.
type PoolSnapshot struct {
	BaseBalance  *uint256.Int
	QuoteBalance *uint256.Int
	TargetBase   *uint256.Int
	TargetQuote  *uint256.Int
	K            *uint256.Int
	OraclePrice  *uint256.Int
}

// RStatus classifies the snapshot's inventory regime.
func (s *PoolSnapshot) RStatus() RStatus {
	return Classify(s.BaseBalance, s.QuoteBalance, s.TargetBase, s.TargetQuote)
}

// TradeRequest describes one side-specified trade. Amount and Threshold
// are native token units: Amount is denominated in the input token for
// exact-in trades and the output token for exact-out trades, and
// Threshold bounds the opposite leg (minimum output for exact-in,
// maximum input for exact-out). A nil Threshold disables the check.
type TradeRequest struct {
	TokenInIsBase bool
	IsExactIn     bool
	Amount        *uint256.Int
	Threshold     *uint256.Int
}

// TradeResult reports both legs of a priced trade in native token
// units. Fees are denominated in the output token; MaintainerFee leaves
// the pool alongside AmountOut while LPFee stays in the pool.
type TradeResult struct {
	AmountIn      *uint256.Int
	AmountOut     *uint256.Int
	LPFee         *uint256.Int
	MaintainerFee *uint256.Int
}
