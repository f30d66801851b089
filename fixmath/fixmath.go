// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixmath implements 18-decimal fixed-point arithmetic on
// 256-bit unsigned integers. A value of One (10^18) represents 1.0.
// Every operation is checked: anything that would leave the 256-bit
// range fails with ErrOverflow instead of wrapping. No floating point
// is used anywhere.
package fixmath

import (
	"errors"

	"github.com/holiman/uint256"
)

// One is the fixed-point scale, 10^18.
var One = uint256.NewInt(1e18)

// ErrOverflow is the package's only error: a result left the
// representable range. Division by zero reports the same error since
// the quotient is not representable either.
var ErrOverflow = errors.New("fixed point overflow")

// maxSqrtIterations bounds the Babylonian loop. Convergence is
// quadratic from a guess within one bit of the root, so 256-bit
// inputs settle in well under this bound.
const maxSqrtIterations = 256

// Add returns a+b.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub returns a-b. A negative result is unrepresentable and fails
// with ErrOverflow; callers track signs explicitly.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDiv returns floor(a*b/c) with a full 512-bit intermediate
// product.
func MulDiv(a, b, c *uint256.Int) (*uint256.Int, error) {
	if c.IsZero() {
		return nil, ErrOverflow
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, c)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivCeil returns ceil(a*b/c) with a full 512-bit intermediate
// product.
func MulDivCeil(a, b, c *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(a, b, c)
	if err != nil {
		return nil, err
	}
	rem := new(uint256.Int).MulMod(a, b, c)
	if rem.IsZero() {
		return z, nil
	}
	return Add(z, uint256.NewInt(1))
}

// Mul returns floor(a*b/One), the fixed-point product.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, b, One)
}

// MulCeil returns ceil(a*b/One).
func MulCeil(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDivCeil(a, b, One)
}

// DivFloor returns floor(a*One/b), the fixed-point quotient.
func DivFloor(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, One, b)
}

// DivCeil returns ceil(a*One/b).
func DivCeil(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDivCeil(a, One, b)
}

// MulInt returns a*b as plain integers, without rescaling.
func MulInt(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sqrt returns floor(sqrt(x)) by Babylonian iteration. Sqrt(0) = 0.
// The initial guess 2^ceil(bitlen/2) is always at or above the root,
// and the sequence decreases monotonically to it.
func Sqrt(x *uint256.Int) *uint256.Int {
	if x.IsZero() {
		return new(uint256.Int)
	}
	z := new(uint256.Int).Lsh(uint256.NewInt(1), uint((x.BitLen()+1)/2))
	y := new(uint256.Int)
	for i := 0; i < maxSqrtIterations; i++ {
		y.Div(x, z)
		y.Add(y, z)
		y.Rsh(y, 1)
		if !y.Lt(z) {
			break
		}
		z.Set(y)
	}
	return z
}

// Pow10 returns 10^n, failing with ErrOverflow past the 256-bit
// range (n > 77).
func Pow10(n uint) (*uint256.Int, error) {
	z := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint(0); i < n; i++ {
		var overflow bool
		z, overflow = new(uint256.Int).MulOverflow(z, ten)
		if overflow {
			return nil, ErrOverflow
		}
	}
	return z, nil
}
