// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidDepthParameter is returned when k falls outside [0, ONE].
	ErrInvalidDepthParameter = errors.New("depth parameter outside [0, ONE]")

	// ErrBothBalancesRequired is returned when pricing is attempted
	// against a pool with an empty side.
	ErrBothBalancesRequired = errors.New("both pool balances must be non-zero")

	// ErrInsufficientLiquidity is returned when a trade would drain a
	// pool balance to zero or below.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrRecomputeDetected is returned when an execution token is
	// presented twice; each priced trade must settle against exactly one
	// pricing pass.
	ErrRecomputeDetected = errors.New("trade already priced for this execution")

	// ErrThresholdViolated is returned when the unspecified leg of a
	// trade lands outside the caller's bound.
	ErrThresholdViolated = errors.New("trade threshold violated")

	// ErrInvalidPoolConfig is returned by PoolConfig.Validate.
	ErrInvalidPoolConfig = errors.New("invalid pool configuration")
)

func errInvalidK(k *uint256.Int) error {
	if k == nil {
		return fmt.Errorf("%w: k is nil", ErrInvalidDepthParameter)
	}
	return fmt.Errorf("%w: k=%s", ErrInvalidDepthParameter, k.Dec())
}

func errConfig(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPoolConfig, detail)
}
