// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package curve implements the proactive market maker pricing curve:
// a definite-integral cost formula and the two quadratic solvers that
// invert it. The curve interpolates between a flat oracle-price line
// (k=0) and classical constant product (k=One) via the depth
// parameter k.
//
// Precision and rounding order are part of the contract. Wherever a
// result is rounded, the direction is chosen so rounding error
// accrues to the pool, never the trader.
package curve

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/luxfi/pmm/fixmath"
)

// ErrInvalidCurveRange reports an Integrate call outside its
// V0 >= V1 >= V2 > 0 domain. This indicates a classification bug in
// the caller, not bad user input.
var ErrInvalidCurveRange = errors.New("invalid curve integration range")

var (
	two  = uint256.NewInt(2)
	four = uint256.NewInt(4)
)

// Integrate returns the cost, in quote value, of moving a balance
// from v1 down to v2 on the curve anchored at equilibrium v0:
//
//	price * (v1-v2) * (1 - k + k*v0^2/(v1*v2))
//
// The penalty ratio v0^2/(v1*v2) is computed inner-floor then
// outer-ceiling, biasing the penalty term upward in the pool's favor
// while the fair-value term stays unbiased.
func Integrate(v0, v1, v2, price, k *uint256.Int) (*uint256.Int, error) {
	if v2.IsZero() || v1.Lt(v2) || v0.Lt(v1) {
		return nil, ErrInvalidCurveRange
	}

	delta, err := fixmath.Sub(v1, v2)
	if err != nil {
		return nil, err
	}
	fairAmount, err := fixmath.Mul(price, delta)
	if err != nil {
		return nil, err
	}

	inner, err := fixmath.MulDiv(v0, v0, v1)
	if err != nil {
		return nil, err
	}
	penaltyRatio, err := fixmath.DivCeil(inner, v2)
	if err != nil {
		return nil, err
	}
	penalty, err := fixmath.Mul(k, penaltyRatio)
	if err != nil {
		return nil, err
	}

	// factor = One - k + penalty; k <= One so the subtraction is safe.
	factor, err := fixmath.Sub(fixmath.One, k)
	if err != nil {
		return nil, err
	}
	factor, err = fixmath.Add(factor, penalty)
	if err != nil {
		return nil, err
	}
	return fixmath.Mul(fairAmount, factor)
}

// SolveQuadraticForTrade returns the new balance q2 after a trade
// that feeds deltaValue (an oracle-priced amount, in the units of the
// solved balance) into the curve anchored at q0 from the current
// balance q1. increasing selects the trade direction: true when the
// balance grows, false when it shrinks.
//
// q2 solves (1-k)*q2^2 + b*q2 + c = 0. The -b magnitude is tracked as
// an unsigned value plus an explicit sign; negative intermediate
// values are never encoded through wraparound. The final division
// rounds floor when the balance grows (the trader is credited
// slightly less) and ceiling when it shrinks (the trader must pay
// slightly more).
func SolveQuadraticForTrade(q0, q1, deltaValue *uint256.Int, increasing bool, k *uint256.Int) (*uint256.Int, error) {
	if q1.IsZero() || q0.IsZero() {
		return nil, ErrInvalidCurveRange
	}
	if k.Eq(fixmath.One) {
		return solveConstantProduct(q0, q1, deltaValue, increasing)
	}

	oneMinusK, err := fixmath.Sub(fixmath.One, k)
	if err != nil {
		return nil, err
	}

	// kq0q0q1 = k*q0^2/q1, b = (1-k)*q1.
	kq0, err := fixmath.Mul(k, q0)
	if err != nil {
		return nil, err
	}
	kq0q0q1, err := fixmath.MulDiv(kq0, q0, q1)
	if err != nil {
		return nil, err
	}
	b, err := fixmath.Mul(oneMinusK, q1)
	if err != nil {
		return nil, err
	}
	if increasing {
		b, err = fixmath.Add(b, deltaValue)
	} else {
		kq0q0q1, err = fixmath.Add(kq0q0q1, deltaValue)
	}
	if err != nil {
		return nil, err
	}

	// minusB = |(1-k)q1 +- deltaValue - k*q0^2/q1| with its sign bit.
	minusBPositive := true
	var minusB *uint256.Int
	if !b.Lt(kq0q0q1) {
		minusB, err = fixmath.Sub(b, kq0q0q1)
	} else {
		minusBPositive = false
		minusB, err = fixmath.Sub(kq0q0q1, b)
	}
	if err != nil {
		return nil, err
	}

	// discriminant = minusB^2 + 4*(1-k)*k*q0^2
	fourOneMinusK, err := fixmath.MulInt(oneMinusK, four)
	if err != nil {
		return nil, err
	}
	kq0q0, err := fixmath.MulInt(kq0, q0)
	if err != nil {
		return nil, err
	}
	disc, err := fixmath.Mul(fourOneMinusK, kq0q0)
	if err != nil {
		return nil, err
	}
	bSquared, err := fixmath.MulInt(minusB, minusB)
	if err != nil {
		return nil, err
	}
	disc, err = fixmath.Add(disc, bSquared)
	if err != nil {
		return nil, err
	}
	root := fixmath.Sqrt(disc)

	// numerator = minusB + root, or root - minusB when -b is negative
	// (root >= |minusB| because the added discriminant term is
	// non-negative).
	var numerator *uint256.Int
	if minusBPositive {
		numerator, err = fixmath.Add(minusB, root)
	} else {
		numerator, err = fixmath.Sub(root, minusB)
	}
	if err != nil {
		return nil, err
	}

	denominator, err := fixmath.MulInt(oneMinusK, two)
	if err != nil {
		return nil, err
	}
	if increasing {
		return fixmath.DivFloor(numerator, denominator)
	}
	return fixmath.DivCeil(numerator, denominator)
}

// solveConstantProduct handles k=One, where the quadratic degenerates
// to the linear constant-product solution q2 = q0^2*q1/(q0^2 -+ dv*q1).
func solveConstantProduct(q0, q1, deltaValue *uint256.Int, increasing bool) (*uint256.Int, error) {
	q0sq, err := fixmath.MulInt(q0, q0)
	if err != nil {
		return nil, err
	}
	dvq1, err := fixmath.MulInt(deltaValue, q1)
	if err != nil {
		return nil, err
	}
	var denom *uint256.Int
	if increasing {
		// The curve asymptotes before absorbing q0^2/q1 of value.
		if !dvq1.Lt(q0sq) {
			return nil, fixmath.ErrOverflow
		}
		denom, err = fixmath.Sub(q0sq, dvq1)
	} else {
		denom, err = fixmath.Add(q0sq, dvq1)
	}
	if err != nil {
		return nil, err
	}
	if increasing {
		return fixmath.MulDiv(q0sq, q1, denom)
	}
	return fixmath.MulDivCeil(q0sq, q1, denom)
}

// SolveQuadraticForTarget returns the equilibrium target v0 implied
// by the current balance v1 and the fair value of the pool's surplus
// on the opposite side:
//
//	v0 = v1 * (1 + (sqrt(1 + 4k*fairAmount/v1) - 1) / 2k)
//
// Valid only in the v0 >= v1 direction; the postcondition v0 >= v1
// always holds. At k=0 the analytic limit v1 + fairAmount is used.
func SolveQuadraticForTarget(v1, k, fairAmount *uint256.Int) (*uint256.Int, error) {
	if v1.IsZero() {
		return nil, ErrInvalidCurveRange
	}
	if fairAmount.IsZero() {
		return v1.Clone(), nil
	}
	if k.IsZero() {
		return fixmath.Add(v1, fairAmount)
	}

	kf, err := fixmath.Mul(k, fairAmount)
	if err != nil {
		return nil, err
	}
	kf4, err := fixmath.MulInt(kf, four)
	if err != nil {
		return nil, err
	}
	r, err := fixmath.DivCeil(kf4, v1)
	if err != nil {
		return nil, err
	}

	// sqrt((r+1)*One): the operand is scaled by One^2, so the integer
	// root lands back on the One scale.
	rPlusOne, err := fixmath.Add(r, fixmath.One)
	if err != nil {
		return nil, err
	}
	radicand, err := fixmath.MulInt(rPlusOne, fixmath.One)
	if err != nil {
		return nil, err
	}
	s := fixmath.Sqrt(radicand)

	sMinusOne, err := fixmath.Sub(s, fixmath.One)
	if err != nil {
		return nil, err
	}
	twoK, err := fixmath.MulInt(k, two)
	if err != nil {
		return nil, err
	}
	premium, err := fixmath.DivCeil(sMinusOne, twoK)
	if err != nil {
		return nil, err
	}

	onePlusPremium, err := fixmath.Add(fixmath.One, premium)
	if err != nil {
		return nil, err
	}
	return fixmath.Mul(v1, onePlusPremium)
}
