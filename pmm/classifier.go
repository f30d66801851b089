// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import "github.com/holiman/uint256"

// Classify maps pool balances against their targets to an inventory
// regime. The pool is balanced only when both sides sit exactly at
// target; a quote surplus dominates the classification, everything
// else counts as base surplus.
func Classify(baseBalance, quoteBalance, targetBase, targetQuote *uint256.Int) RStatus {
	if baseBalance.Eq(targetBase) && quoteBalance.Eq(targetQuote) {
		return RBalanced
	}
	if quoteBalance.Gt(targetQuote) {
		return RExcessQuote
	}
	return RExcessBase
}
