// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/pmm/curve"
	"github.com/luxfi/pmm/fixmath"
)

// ============================================================================
// Expected targets
// ============================================================================

// ExpectedTargets returns the equilibrium inventory the pool would
// settle to if arbitrage traded it back to the oracle price. In a
// balanced pool these are the configured targets; in a shifted pool
// the surplus side keeps its configured target and the deficit side's
// target is re-derived from the surplus.
func ExpectedTargets(s *PoolSnapshot) (baseTarget, quoteTarget *uint256.Int, err error) {
	switch s.RStatus() {
	case RBalanced:
		return s.TargetBase.Clone(), s.TargetQuote.Clone(), nil

	case RExcessQuote:
		spare := subClamp(s.QuoteBalance, s.TargetQuote)
		fair, err := fixmath.DivFloor(spare, s.OraclePrice)
		if err != nil {
			return nil, nil, err
		}
		bt, err := curve.SolveQuadraticForTarget(s.BaseBalance, s.K, fair)
		if err != nil {
			return nil, nil, err
		}
		return bt, s.TargetQuote.Clone(), nil

	default: // RExcessBase
		spare := subClamp(s.BaseBalance, s.TargetBase)
		fair, err := fixmath.Mul(spare, s.OraclePrice)
		if err != nil {
			return nil, nil, err
		}
		qt, err := curve.SolveQuadraticForTarget(s.QuoteBalance, s.K, fair)
		if err != nil {
			return nil, nil, err
		}
		return s.TargetBase.Clone(), qt, nil
	}
}

// ============================================================================
// Sell base (trader pays base, receives quote)
// ============================================================================

// QuerySellBase prices an exact base amount sold into the pool and
// returns the quote amount paid out, before fees. A sale that carries
// the pool through equilibrium is split at the crossing point so each
// segment prices on its own regime.
func QuerySellBase(s *PoolSnapshot, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}
	baseTarget, quoteTarget, err := ExpectedTargets(s)
	if err != nil {
		return nil, err
	}

	switch s.RStatus() {
	case RBalanced:
		return sellBaseAtEquilibrium(s, amount, quoteTarget)

	case RExcessQuote:
		// Selling base pushes the pool further from equilibrium on the
		// base-deficit curve until the deficit is repaid.
		payBase := subClamp(baseTarget, s.BaseBalance)
		receiveQuote := subClamp(s.QuoteBalance, quoteTarget)

		switch amount.Cmp(payBase) {
		case -1:
			b1, err := fixmath.Add(s.BaseBalance, amount)
			if err != nil {
				return nil, err
			}
			out, err := curve.Integrate(baseTarget, b1, s.BaseBalance, s.OraclePrice, s.K)
			if err != nil {
				return nil, err
			}
			// Rounding in the re-derived target can overshoot the spare
			// quote by a few wei; the pool never pays more than it holds
			// above target.
			if out.Gt(receiveQuote) {
				out = receiveQuote.Clone()
			}
			return out, nil
		case 0:
			return receiveQuote.Clone(), nil
		default:
			rest := subClamp(amount, payBase)
			eq := &PoolSnapshot{
				BaseBalance:  baseTarget,
				QuoteBalance: quoteTarget,
				TargetBase:   baseTarget,
				TargetQuote:  quoteTarget,
				K:            s.K,
				OraclePrice:  s.OraclePrice,
			}
			more, err := sellBaseAtEquilibrium(eq, rest, quoteTarget)
			if err != nil {
				return nil, err
			}
			return fixmath.Add(receiveQuote, more)
		}

	default: // RExcessBase
		deltaValue, err := fixmath.Mul(s.OraclePrice, amount)
		if err != nil {
			return nil, err
		}
		q1, err := curve.SolveQuadraticForTrade(quoteTarget, s.QuoteBalance, deltaValue, false, s.K)
		if err != nil {
			return nil, err
		}
		return subClamp(s.QuoteBalance, q1), nil
	}
}

// sellBaseAtEquilibrium prices a sale starting from a balanced pool:
// the quote side moves down its own curve from target.
func sellBaseAtEquilibrium(s *PoolSnapshot, amount, quoteTarget *uint256.Int) (*uint256.Int, error) {
	deltaValue, err := fixmath.Mul(s.OraclePrice, amount)
	if err != nil {
		return nil, err
	}
	q1, err := curve.SolveQuadraticForTrade(quoteTarget, quoteTarget, deltaValue, false, s.K)
	if err != nil {
		return nil, err
	}
	return subClamp(quoteTarget, q1), nil
}

// ============================================================================
// Buy base (trader pays quote, receives base)
// ============================================================================

// QueryBuyBase prices an exact base amount bought from the pool and
// returns the quote amount the trader must pay, before fees.
func QueryBuyBase(s *PoolSnapshot, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}
	baseTarget, quoteTarget, err := ExpectedTargets(s)
	if err != nil {
		return nil, err
	}

	switch s.RStatus() {
	case RBalanced:
		return buyBaseAtEquilibrium(s, amount, baseTarget)

	case RExcessQuote:
		// The pool already owes base; buying digs the deficit deeper
		// along the same integral, bounded by what the pool holds.
		if !amount.Lt(s.BaseBalance) {
			return nil, fmt.Errorf("%w: buying %s of %s base", ErrInsufficientLiquidity,
				amount.Dec(), s.BaseBalance.Dec())
		}
		b1 := subClamp(s.BaseBalance, amount)
		return curve.Integrate(baseTarget, s.BaseBalance, b1, s.OraclePrice, s.K)

	default: // RExcessBase
		receiveBase := subClamp(s.BaseBalance, baseTarget)

		switch amount.Cmp(receiveBase) {
		case -1:
			deltaValue, err := fixmath.MulCeil(s.OraclePrice, amount)
			if err != nil {
				return nil, err
			}
			q1, err := curve.SolveQuadraticForTrade(quoteTarget, s.QuoteBalance, deltaValue, true, s.K)
			if err != nil {
				return nil, err
			}
			return subClamp(q1, s.QuoteBalance), nil
		case 0:
			return subClamp(quoteTarget, s.QuoteBalance), nil
		default:
			payQuote := subClamp(quoteTarget, s.QuoteBalance)
			rest := subClamp(amount, receiveBase)
			eq := &PoolSnapshot{
				BaseBalance:  baseTarget,
				QuoteBalance: quoteTarget,
				TargetBase:   baseTarget,
				TargetQuote:  quoteTarget,
				K:            s.K,
				OraclePrice:  s.OraclePrice,
			}
			more, err := buyBaseAtEquilibrium(eq, rest, baseTarget)
			if err != nil {
				return nil, err
			}
			return fixmath.Add(payQuote, more)
		}
	}
}

// buyBaseAtEquilibrium prices a buy starting from a balanced pool: the
// base side moves down its own curve from target.
func buyBaseAtEquilibrium(s *PoolSnapshot, amount, baseTarget *uint256.Int) (*uint256.Int, error) {
	if !amount.Lt(baseTarget) {
		return nil, fmt.Errorf("%w: buying %s of %s base", ErrInsufficientLiquidity,
			amount.Dec(), baseTarget.Dec())
	}
	b1 := subClamp(baseTarget, amount)
	return curve.Integrate(baseTarget, baseTarget, b1, s.OraclePrice, s.K)
}

// ============================================================================
// Mid price
// ============================================================================

// MidPrice returns the pool's instantaneous quote-per-base price for an
// infinitesimal trade. At equilibrium this is exactly the oracle price.
func MidPrice(s *PoolSnapshot) (*uint256.Int, error) {
	baseTarget, quoteTarget, err := ExpectedTargets(s)
	if err != nil {
		return nil, err
	}
	oneMinusK := subClamp(fixmath.One, s.K)

	if s.RStatus() == RExcessBase {
		sq, err := fixmath.MulDiv(quoteTarget, quoteTarget, s.QuoteBalance)
		if err != nil {
			return nil, err
		}
		ratio, err := fixmath.DivFloor(sq, s.QuoteBalance)
		if err != nil {
			return nil, err
		}
		kRatio, err := fixmath.Mul(s.K, ratio)
		if err != nil {
			return nil, err
		}
		factor, err := fixmath.Add(oneMinusK, kRatio)
		if err != nil {
			return nil, err
		}
		return fixmath.DivFloor(s.OraclePrice, factor)
	}

	sq, err := fixmath.MulDiv(baseTarget, baseTarget, s.BaseBalance)
	if err != nil {
		return nil, err
	}
	ratio, err := fixmath.DivFloor(sq, s.BaseBalance)
	if err != nil {
		return nil, err
	}
	kRatio, err := fixmath.Mul(s.K, ratio)
	if err != nil {
		return nil, err
	}
	factor, err := fixmath.Add(oneMinusK, kRatio)
	if err != nil {
		return nil, err
	}
	return fixmath.Mul(s.OraclePrice, factor)
}

// ============================================================================
// Helpers
// ============================================================================

// mirrored returns the snapshot with base and quote swapped and the
// oracle price inverted, so quote-specified trade shapes price through
// the base-specified queries.
func (s *PoolSnapshot) mirrored() (*PoolSnapshot, error) {
	inv, err := fixmath.DivFloor(fixmath.One, s.OraclePrice)
	if err != nil {
		return nil, err
	}
	if inv.IsZero() {
		return nil, fmt.Errorf("%w: price %s too large to invert", fixmath.ErrOverflow, s.OraclePrice.Dec())
	}
	return &PoolSnapshot{
		BaseBalance:  s.QuoteBalance,
		QuoteBalance: s.BaseBalance,
		TargetBase:   s.TargetQuote,
		TargetQuote:  s.TargetBase,
		K:            s.K,
		OraclePrice:  inv,
	}, nil
}

// subClamp returns a-b, clamped at zero. Pricing code uses it where an
// underflow can only come from a few wei of rounding drift.
func subClamp(a, b *uint256.Int) *uint256.Int {
	r, overflow := new(uint256.Int).SubOverflow(a, b)
	if overflow {
		return new(uint256.Int)
	}
	return r
}
