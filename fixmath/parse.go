// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixmath

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// FromDecimal parses a non-negative decimal string such as "1.5" or
// "0.003" into an 18-decimal fixed-point value. float64 is avoided
// entirely; fractional digits beyond 18 places are rejected rather
// than silently truncated.
func FromDecimal(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty decimal string")
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return nil, fmt.Errorf("invalid decimal %q: multiple dots", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 18 {
		return nil, fmt.Errorf("invalid decimal %q: more than 18 fractional digits", s)
	}

	whole, err := uint256.FromDecimal(intPart)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	z, err := MulInt(whole, One)
	if err != nil {
		return nil, err
	}

	if fracPart != "" {
		// Right-pad to 18 digits so "5" means 0.5, not 5e-18.
		padded := fracPart + strings.Repeat("0", 18-len(fracPart))
		frac, err := uint256.FromDecimal(padded)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		z, err = Add(z, frac)
		if err != nil {
			return nil, err
		}
	}
	return z, nil
}
