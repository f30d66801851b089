// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"github.com/holiman/uint256"

	"github.com/luxfi/pmm/fixmath"
	"github.com/luxfi/pmm/ledger"
	"github.com/luxfi/pmm/oracle"
)

// Snapshot reads the pool's current balances and oracle price and
// rescales everything to 18-decimal fixed point. The snapshot is
// detached from the sources; pricing against it stays consistent even
// if the ledger or the feed move afterwards.
func (e *Engine) Snapshot(balances ledger.Reader, prices *oracle.Adapter, id ledger.StrategyID) (*PoolSnapshot, error) {
	baseNative, quoteNative, err := balances.Balances(id)
	if err != nil {
		return nil, err
	}
	base, err := toEngineScale(baseNative, e.cfg.BaseDecimals)
	if err != nil {
		return nil, err
	}
	quote, err := toEngineScale(quoteNative, e.cfg.QuoteDecimals)
	if err != nil {
		return nil, err
	}
	price, err := prices.Price(e.cfg.OracleFeed, e.cfg.MaxStaleness)
	if err != nil {
		return nil, err
	}
	return &PoolSnapshot{
		BaseBalance:  base,
		QuoteBalance: quote,
		TargetBase:   e.cfg.TargetBase.Clone(),
		TargetQuote:  e.cfg.TargetQuote.Clone(),
		K:            e.cfg.K.Clone(),
		OraclePrice:  price,
	}, nil
}

// toEngineScale converts a native token amount to 18-decimal fixed
// point. Decimals above 18 are rejected at configuration time.
func toEngineScale(native *uint256.Int, decimals uint8) (*uint256.Int, error) {
	factor, err := fixmath.Pow10(uint(18 - decimals))
	if err != nil {
		return nil, err
	}
	return fixmath.MulInt(native, factor)
}

// toNativeScale converts an 18-decimal amount back to native token
// units. roundUp picks the ceiling, used for amounts the trader pays.
func toNativeScale(v *uint256.Int, decimals uint8, roundUp bool) (*uint256.Int, error) {
	factor, err := fixmath.Pow10(uint(18 - decimals))
	if err != nil {
		return nil, err
	}
	q := new(uint256.Int).Div(v, factor)
	if roundUp && !new(uint256.Int).Mod(v, factor).IsZero() {
		q.AddUint64(q, 1)
	}
	return q, nil
}
