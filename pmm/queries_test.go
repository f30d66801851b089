// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pmm/fixmath"
)

// fp parses a decimal such as "0.5" to fixed point.
func fp(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := fixmath.FromDecimal(s)
	require.NoError(t, err)
	return v
}

// snap builds a snapshot with targets of 1000/1000.
func snap(t *testing.T, base, quote, k, price string) *PoolSnapshot {
	t.Helper()
	return &PoolSnapshot{
		BaseBalance:  fp(t, base),
		QuoteBalance: fp(t, quote),
		TargetBase:   fp(t, "1000"),
		TargetQuote:  fp(t, "1000"),
		K:            fp(t, k),
		OraclePrice:  fp(t, price),
	}
}

func TestExpectedTargetsBalanced(t *testing.T) {
	s := snap(t, "1000", "1000", "0.5", "1")
	bt, qt, err := ExpectedTargets(s)
	require.NoError(t, err)
	require.Equal(t, fp(t, "1000").Dec(), bt.Dec())
	require.Equal(t, fp(t, "1000").Dec(), qt.Dec())
}

func TestExpectedTargetsExcessQuote(t *testing.T) {
	// k=0: the spare 100 quote converts one-to-one into base target.
	s := snap(t, "900", "1100", "0", "1")
	bt, qt, err := ExpectedTargets(s)
	require.NoError(t, err)
	require.Equal(t, fp(t, "1000").Dec(), bt.Dec())
	require.Equal(t, fp(t, "1000").Dec(), qt.Dec())
}

func TestExpectedTargetsExcessBase(t *testing.T) {
	s := snap(t, "1100", "900", "0", "1")
	bt, qt, err := ExpectedTargets(s)
	require.NoError(t, err)
	require.Equal(t, fp(t, "1000").Dec(), bt.Dec())
	require.Equal(t, fp(t, "1000").Dec(), qt.Dec())
}

func TestQuerySellBaseZeroAmount(t *testing.T) {
	out, err := QuerySellBase(snap(t, "1000", "1000", "0.5", "1"), new(uint256.Int))
	require.NoError(t, err)
	require.True(t, out.IsZero())
}

func TestQuerySellBaseBalancedSlippage(t *testing.T) {
	// Selling 100 base into a balanced pool at k=0.5 and price 1
	// returns less than 100 quote but well above the constant-product
	// floor of ~90.9.
	out, err := QuerySellBase(snap(t, "1000", "1000", "0.5", "1"), fp(t, "100"))
	require.NoError(t, err)
	require.True(t, out.Gt(fp(t, "90")), "got %s", out.Dec())
	require.True(t, out.Lt(fp(t, "100")), "got %s", out.Dec())
}

func TestQuerySellBaseZeroSlippage(t *testing.T) {
	// k=0 quotes the oracle price flat regardless of size.
	out, err := QuerySellBase(snap(t, "1000", "1000", "0", "1"), fp(t, "100"))
	require.NoError(t, err)
	require.Equal(t, fp(t, "100").Dec(), out.Dec())
}

func TestQuerySellBaseCrossing(t *testing.T) {
	// Quote-surplus pool, k=0: back to equilibrium takes exactly 100
	// base for 100 quote, and the remainder prices flat past it.
	s := snap(t, "900", "1100", "0", "1")

	tests := []struct {
		amount, want string
	}{
		{"50", "50"},
		{"100", "100"},
		{"150", "150"},
	}
	for _, tt := range tests {
		out, err := QuerySellBase(s, fp(t, tt.amount))
		require.NoError(t, err)
		require.Equal(t, fp(t, tt.want).Dec(), out.Dec(), "amount=%s", tt.amount)
	}
}

func TestQuerySellBaseCrossingMonotonic(t *testing.T) {
	// With curvature the crossing point is not round, but output must
	// stay strictly increasing through it.
	s := snap(t, "900", "1100", "0.5", "1")

	prev := new(uint256.Int)
	for _, amount := range []string{"50", "90", "95", "100", "105", "150"} {
		out, err := QuerySellBase(s, fp(t, amount))
		require.NoError(t, err)
		require.True(t, out.Gt(prev), "amount=%s: %s not above %s", amount, out.Dec(), prev.Dec())
		prev = out
	}
}

func TestBalancedSmallTradeParity(t *testing.T) {
	// At equilibrium a vanishing trade prices at the oracle in both
	// directions, whichever formula dispatches.
	s := snap(t, "1000", "1000", "0.5", "1")
	amount := uint256.NewInt(1_000_000_000) // 1e-9 units

	out, err := QuerySellBase(s, amount)
	require.NoError(t, err)
	in, err := QueryBuyBase(s, amount)
	require.NoError(t, err)

	for name, got := range map[string]*uint256.Int{"sell out": out, "buy in": in} {
		diff := new(uint256.Int)
		if got.Lt(amount) {
			diff.Sub(amount, got)
		} else {
			diff.Sub(got, amount)
		}
		require.True(t, diff.Lt(uint256.NewInt(3)), "%s drifted %s wei from par", name, diff.Dec())
	}
}

func TestQueryBuyBaseZeroSlippage(t *testing.T) {
	in, err := QueryBuyBase(snap(t, "1000", "1000", "0", "1"), fp(t, "100"))
	require.NoError(t, err)
	require.Equal(t, fp(t, "100").Dec(), in.Dec())
}

func TestQueryBuyBaseBalancedPenalty(t *testing.T) {
	// Buying 100 base from a balanced pool at k=0.5 walks the curve
	// 1000 -> 900 against its own anchor.
	in, err := QueryBuyBase(snap(t, "1000", "1000", "0.5", "1"), fp(t, "100"))
	require.NoError(t, err)
	require.Equal(t, "105555555555555555600", in.Dec())
}

func TestQueryBuyBaseInsufficient(t *testing.T) {
	s := snap(t, "1000", "1000", "0.5", "1")
	_, err := QueryBuyBase(s, fp(t, "1000"))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	// Quote-surplus pools are bounded by the actual balance, not the
	// target.
	s = snap(t, "900", "1100", "0.5", "1")
	_, err = QueryBuyBase(s, fp(t, "900"))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestQueryBuyBaseCrossing(t *testing.T) {
	// Base-surplus pool, k=0: the first 100 base comes from surplus at
	// 100 quote, the rest prices from equilibrium.
	s := snap(t, "1100", "900", "0", "1")

	tests := []struct {
		amount, want string
	}{
		{"50", "50"},
		{"100", "100"},
		{"150", "150"},
	}
	for _, tt := range tests {
		in, err := QueryBuyBase(s, fp(t, tt.amount))
		require.NoError(t, err)
		require.Equal(t, fp(t, tt.want).Dec(), in.Dec(), "amount=%s", tt.amount)
	}
}

func TestMidPriceBalanced(t *testing.T) {
	mid, err := MidPrice(snap(t, "1000", "1000", "0.5", "1.25"))
	require.NoError(t, err)
	require.Equal(t, fp(t, "1.25").Dec(), mid.Dec())
}

func TestMidPriceTracksOracleAtZeroK(t *testing.T) {
	// k=0 has no inventory hysteresis: a shifted pool re-quotes a
	// moved oracle price exactly.
	mid, err := MidPrice(snap(t, "1100", "900", "0", "1.05"))
	require.NoError(t, err)
	require.Equal(t, fp(t, "1.05").Dec(), mid.Dec())
}

func TestMidPriceLeansAgainstInventory(t *testing.T) {
	// Surplus base discounts base; surplus quote makes base dearer.
	mid, err := MidPrice(snap(t, "1100", "900", "0.5", "1"))
	require.NoError(t, err)
	require.True(t, mid.Lt(fixmath.One), "base surplus mid %s not below oracle", mid.Dec())

	mid, err = MidPrice(snap(t, "900", "1100", "0.5", "1"))
	require.NoError(t, err)
	require.True(t, mid.Gt(fixmath.One), "quote surplus mid %s not above oracle", mid.Dec())
}

func TestMirroredSnapshot(t *testing.T) {
	s := snap(t, "1100", "900", "0.5", "2")
	m, err := s.mirrored()
	require.NoError(t, err)

	require.Equal(t, s.QuoteBalance.Dec(), m.BaseBalance.Dec())
	require.Equal(t, s.BaseBalance.Dec(), m.QuoteBalance.Dec())
	require.Equal(t, s.TargetQuote.Dec(), m.TargetBase.Dec())
	require.Equal(t, s.TargetBase.Dec(), m.TargetQuote.Dec())
	require.Equal(t, fp(t, "0.5").Dec(), m.OraclePrice.Dec())
}
