// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pmm/fixmath"
	"github.com/luxfi/pmm/pmm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
pools:
  - base_token: "0x0000000000000000000000000000000000000b01"
    quote_token: "0x0000000000000000000000000000000000000c01"
    base_decimals: 6
    quote_decimals: 18
    oracle_feed: "0x0000000000000000000000000000000000000000000000000000000000000001"
    max_staleness: 60s
    k: "0.5"
    target_base: "1000"
    target_quote: "1500000"
    lp_fee_rate: "0.003"
`

func TestLoad(t *testing.T) {
	pools, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Len(t, pools, 1)

	cfg := pools[0]
	require.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000b01"), cfg.BaseToken)
	require.Equal(t, uint8(6), cfg.BaseDecimals)
	require.Equal(t, uint8(18), cfg.QuoteDecimals)
	require.Equal(t, time.Minute, cfg.MaxStaleness)
	require.Equal(t, "500000000000000000", cfg.K.Dec())
	require.Equal(t, "1000000000000000000000", cfg.TargetBase.Dec())
	require.Equal(t, "3000000000000000", cfg.LPFeeRate.Dec())
	require.Nil(t, cfg.MaintainerFeeRate)
}

func TestLoadValidates(t *testing.T) {
	body := `
pools:
  - base_token: "0x0000000000000000000000000000000000000b01"
    quote_token: "0x0000000000000000000000000000000000000c01"
    oracle_feed: "0x01"
    max_staleness: 60s
    k: "1.5"
    target_base: "1000"
    target_quote: "1000"
`
	_, err := Load(writeConfig(t, body))
	require.ErrorIs(t, err, pmm.ErrInvalidDepthParameter)
}

func TestLoadRejectsBadFields(t *testing.T) {
	tests := []struct {
		name, field, value string
	}{
		{"bad address", "base_token", `"not-an-address"`},
		{"bad duration", "max_staleness", `"soon"`},
		{"bad decimal", "k", `"0.5.5"`},
		{"missing target", "target_base", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{
				"base_token":    `"0x0000000000000000000000000000000000000b01"`,
				"quote_token":   `"0x0000000000000000000000000000000000000c01"`,
				"oracle_feed":   `"0x01"`,
				"max_staleness": `"60s"`,
				"k":             `"0.5"`,
				"target_base":   `"1000"`,
				"target_quote":  `"1000"`,
			}
			fields[tt.field] = tt.value

			body := "pools:\n  - base_token: " + fields["base_token"] + "\n"
			for _, key := range []string{"quote_token", "oracle_feed", "max_staleness", "k", "target_base", "target_quote"} {
				body += "    " + key + ": " + fields[key] + "\n"
			}
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(writeConfig(t, "pools: []\n"))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadedPoolPricesTrades(t *testing.T) {
	pools, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	e, err := pmm.NewEngine(pools[0])
	require.NoError(t, err)
	require.True(t, e.Config().K.Lt(fixmath.One))
}
