// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads pool configuration from YAML. Fixed-point
// parameters are written as plain decimal strings ("0.5", "1000") and
// parsed without floating point.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/pmm/fixmath"
	"github.com/luxfi/pmm/pmm"
)

type File struct {
	Pools []PoolFile `yaml:"pools"`
}

type PoolFile struct {
	BaseToken     string `yaml:"base_token"`
	QuoteToken    string `yaml:"quote_token"`
	BaseDecimals  uint8  `yaml:"base_decimals"`
	QuoteDecimals uint8  `yaml:"quote_decimals"`

	OracleFeed   string `yaml:"oracle_feed"`
	MaxStaleness string `yaml:"max_staleness"`

	K           string `yaml:"k"`
	TargetBase  string `yaml:"target_base"`
	TargetQuote string `yaml:"target_quote"`

	LPFeeRate         string `yaml:"lp_fee_rate"`
	MaintainerFeeRate string `yaml:"maintainer_fee_rate"`
}

// Load reads and parses a pool configuration file. Every pool in the
// file is validated before any are returned.
func Load(path string) ([]*pmm.PoolConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(f.Pools) == 0 {
		return nil, fmt.Errorf("%s: no pools defined", path)
	}

	pools := make([]*pmm.PoolConfig, 0, len(f.Pools))
	for i, pf := range f.Pools {
		cfg, err := pf.translate()
		if err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		pools = append(pools, cfg)
	}
	return pools, nil
}

func (pf *PoolFile) translate() (*pmm.PoolConfig, error) {
	if !common.IsHexAddress(pf.BaseToken) {
		return nil, fmt.Errorf("base_token %q is not an address", pf.BaseToken)
	}
	if !common.IsHexAddress(pf.QuoteToken) {
		return nil, fmt.Errorf("quote_token %q is not an address", pf.QuoteToken)
	}

	staleness, err := time.ParseDuration(pf.MaxStaleness)
	if err != nil {
		return nil, fmt.Errorf("max_staleness: %w", err)
	}

	k, err := fixedField("k", pf.K)
	if err != nil {
		return nil, err
	}
	targetBase, err := fixedField("target_base", pf.TargetBase)
	if err != nil {
		return nil, err
	}
	targetQuote, err := fixedField("target_quote", pf.TargetQuote)
	if err != nil {
		return nil, err
	}
	lpFee, err := optionalFixedField("lp_fee_rate", pf.LPFeeRate)
	if err != nil {
		return nil, err
	}
	mtFee, err := optionalFixedField("maintainer_fee_rate", pf.MaintainerFeeRate)
	if err != nil {
		return nil, err
	}

	return &pmm.PoolConfig{
		BaseToken:         common.HexToAddress(pf.BaseToken),
		QuoteToken:        common.HexToAddress(pf.QuoteToken),
		BaseDecimals:      pf.BaseDecimals,
		QuoteDecimals:     pf.QuoteDecimals,
		OracleFeed:        common.HexToHash(pf.OracleFeed),
		MaxStaleness:      staleness,
		K:                 k,
		TargetBase:        targetBase,
		TargetQuote:       targetQuote,
		LPFeeRate:         lpFee,
		MaintainerFeeRate: mtFee,
	}, nil
}

func fixedField(name, raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s: missing value", name)
	}
	v, err := fixmath.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func optionalFixedField(name, raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return fixedField(name, raw)
}
