// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"fmt"
	"sync/atomic"

	"github.com/holiman/uint256"
	log "github.com/luxfi/log"

	"github.com/luxfi/pmm/fixmath"
)

// Execution is a single-use token binding one priced trade to one
// settlement. The caller mints a token per trade intent; presenting it
// to Swap a second time fails with ErrRecomputeDetected.
type Execution struct {
	used atomic.Bool
}

// NewExecution mints a fresh execution token.
func NewExecution() *Execution {
	return &Execution{}
}

func (e *Execution) consume() bool {
	return e.used.CompareAndSwap(false, true)
}

// Engine prices trades for one configured pool. It is stateless apart
// from configuration; all balance state arrives through snapshots.
type Engine struct {
	cfg *PoolConfig
	log log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger overrides the engine's logger.
func WithLogger(l log.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine validates the pool configuration and returns an engine for
// it.
func NewEngine(cfg *PoolConfig, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		log: log.NewTestLogger(log.InfoLevel),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's pool configuration.
func (e *Engine) Config() *PoolConfig {
	return e.cfg
}

// Swap prices one trade against a snapshot. It validates the snapshot,
// classifies the regime, prices the requested shape, applies fees, and
// checks the caller's threshold. The execution token is consumed on the
// way out; reusing it fails even when pricing itself succeeded before.
//
// The returned result is in native token units of each leg. Swap never
// mutates the snapshot; settlement against the ledger is the caller's
// step.
func (e *Engine) Swap(ex *Execution, s *PoolSnapshot, req *TradeRequest) (*TradeResult, error) {
	if err := validateSnapshot(s); err != nil {
		return nil, err
	}

	amount, err := toEngineScale(req.Amount, e.specifiedDecimals(req))
	if err != nil {
		return nil, err
	}

	status := s.RStatus()
	e.log.Debug("pricing trade",
		"pool", e.cfg.ID(),
		"regime", status,
		"inIsBase", req.TokenInIsBase,
		"exactIn", req.IsExactIn,
		"amount", amount.Dec(),
	)

	in, out, lpFee, mtFee, err := e.price(s, req, amount)
	if err != nil {
		return nil, err
	}

	if !ex.consume() {
		return nil, ErrRecomputeDetected
	}

	if err := checkPostBalances(s, req.TokenInIsBase, in, out, mtFee); err != nil {
		return nil, err
	}

	res, err := e.finalize(req, in, out, lpFee, mtFee)
	if err != nil {
		return nil, err
	}
	if err := checkThreshold(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// price dispatches on the trade shape. Quote-specified shapes price
// through a mirrored snapshot so the two base-specified queries cover
// all four.
func (e *Engine) price(s *PoolSnapshot, req *TradeRequest, amount *uint256.Int) (in, out, lpFee, mtFee *uint256.Int, err error) {
	if req.IsExactIn {
		view := s
		if !req.TokenInIsBase {
			if view, err = s.mirrored(); err != nil {
				return nil, nil, nil, nil, err
			}
		}
		grossOut, err := QuerySellBase(view, amount)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		lpFee, mtFee, err = e.feesOn(grossOut, false)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		out = subClamp(subClamp(grossOut, lpFee), mtFee)
		return amount, out, lpFee, mtFee, nil
	}

	// Exact out: fees are added on top of the specified output so the
	// trader's input covers them.
	lpFee, mtFee, err = e.feesOn(amount, true)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	gross, err := fixmath.Add(amount, lpFee)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if gross, err = fixmath.Add(gross, mtFee); err != nil {
		return nil, nil, nil, nil, err
	}

	view := s
	if req.TokenInIsBase {
		// Trader receives quote for base in.
		if view, err = s.mirrored(); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	in, err = QueryBuyBase(view, gross)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return in, amount, lpFee, mtFee, nil
}

// feesOn computes both fee legs on an output amount. Exact-out trades
// round fees up so the pool never undercollects.
func (e *Engine) feesOn(amount *uint256.Int, roundUp bool) (lpFee, mtFee *uint256.Int, err error) {
	mul := fixmath.Mul
	if roundUp {
		mul = fixmath.MulCeil
	}
	if lpFee, err = mul(amount, e.cfg.lpRate()); err != nil {
		return nil, nil, err
	}
	if mtFee, err = mul(amount, e.cfg.maintainerRate()); err != nil {
		return nil, nil, err
	}
	return lpFee, mtFee, nil
}

// specifiedDecimals returns the native decimals of the token the
// request's Amount is denominated in.
func (e *Engine) specifiedDecimals(req *TradeRequest) uint8 {
	specifiedIsBase := req.TokenInIsBase == req.IsExactIn
	if specifiedIsBase {
		return e.cfg.BaseDecimals
	}
	return e.cfg.QuoteDecimals
}

// finalize rescales both legs back to native units. Input rounds up,
// output and fees round down, always in the pool's favor.
func (e *Engine) finalize(req *TradeRequest, in, out, lpFee, mtFee *uint256.Int) (*TradeResult, error) {
	inDec, outDec := e.cfg.BaseDecimals, e.cfg.QuoteDecimals
	if !req.TokenInIsBase {
		inDec, outDec = outDec, inDec
	}

	nativeIn, err := toNativeScale(in, inDec, true)
	if err != nil {
		return nil, err
	}
	nativeOut, err := toNativeScale(out, outDec, false)
	if err != nil {
		return nil, err
	}
	nativeLP, err := toNativeScale(lpFee, outDec, false)
	if err != nil {
		return nil, err
	}
	nativeMT, err := toNativeScale(mtFee, outDec, false)
	if err != nil {
		return nil, err
	}
	return &TradeResult{
		AmountIn:      nativeIn,
		AmountOut:     nativeOut,
		LPFee:         nativeLP,
		MaintainerFee: nativeMT,
	}, nil
}

func validateSnapshot(s *PoolSnapshot) error {
	if s.K == nil || s.K.Gt(fixmath.One) {
		return errInvalidK(s.K)
	}
	if s.BaseBalance.IsZero() || s.QuoteBalance.IsZero() {
		return fmt.Errorf("%w: base=%s quote=%s", ErrBothBalancesRequired,
			s.BaseBalance.Dec(), s.QuoteBalance.Dec())
	}
	return nil
}

// checkPostBalances verifies the pool survives settlement with both
// balances strictly positive. The maintainer fee leaves the pool with
// the output; the LP fee stays behind.
func checkPostBalances(s *PoolSnapshot, tokenInIsBase bool, in, out, mtFee *uint256.Int) error {
	inSide, outSide := s.BaseBalance, s.QuoteBalance
	if !tokenInIsBase {
		inSide, outSide = outSide, inSide
	}

	outflow, err := fixmath.Add(out, mtFee)
	if err != nil {
		return err
	}
	remaining, underflow := new(uint256.Int).SubOverflow(outSide, outflow)
	if underflow || remaining.IsZero() {
		return fmt.Errorf("%w: outflow %s of %s", ErrInsufficientLiquidity,
			outflow.Dec(), outSide.Dec())
	}
	if _, err := fixmath.Add(inSide, in); err != nil {
		return err
	}
	return nil
}

func checkThreshold(req *TradeRequest, res *TradeResult) error {
	if req.Threshold == nil {
		return nil
	}
	if req.IsExactIn {
		if res.AmountOut.Lt(req.Threshold) {
			return fmt.Errorf("%w: out %s below minimum %s", ErrThresholdViolated,
				res.AmountOut.Dec(), req.Threshold.Dec())
		}
		return nil
	}
	if res.AmountIn.Gt(req.Threshold) {
		return fmt.Errorf("%w: in %s above maximum %s", ErrThresholdViolated,
			res.AmountIn.Dec(), req.Threshold.Dec())
	}
	return nil
}
