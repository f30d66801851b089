// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pmm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	target := uint256.NewInt(1000)

	tests := []struct {
		name        string
		base, quote uint64
		want        RStatus
	}{
		{"at both targets", 1000, 1000, RBalanced},
		{"quote surplus", 900, 1100, RExcessQuote},
		{"base surplus", 1100, 900, RExcessBase},
		{"base surplus quote at target", 1100, 1000, RExcessBase},
		{"base at target quote below", 1000, 900, RExcessBase},
		{"both below target", 900, 900, RExcessBase},
		{"both above target", 1100, 1100, RExcessQuote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(uint256.NewInt(tt.base), uint256.NewInt(tt.quote), target, target)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRStatusString(t *testing.T) {
	require.Equal(t, "balanced", RBalanced.String())
	require.Equal(t, "excess-quote", RExcessQuote.String())
	require.Equal(t, "excess-base", RExcessBase.String())
}
