// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var testFeedID = common.HexToHash("0x01")

func newTestAdapter(reading Reading, now time.Time) *Adapter {
	feed := StaticFeed{testFeedID: reading}
	return NewAdapter(feed, WithClock(func() time.Time { return now }))
}

func TestPriceRescaling(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name     string
		raw      int64
		exponent int32
		want     string
	}{
		{"eight feed decimals", 150_000_000, -8, "1500000000000000000"},
		{"whole units", 2, 0, "2000000000000000000"},
		{"already eighteen decimals", 1_000_000_000_000_000_000, -18, "1000000000000000000"},
		{"positive exponent", 3, 2, "300000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(Reading{RawPrice: tt.raw, Exponent: tt.exponent, PublishTime: now}, now)
			price, err := a.Price(testFeedID, time.Minute)
			require.NoError(t, err)
			require.Equal(t, tt.want, price.Dec())
		})
	}
}

func TestPriceStaleness(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	// 59 seconds old passes a 60 second bound.
	a := newTestAdapter(Reading{RawPrice: 1, Exponent: 0, PublishTime: now.Add(-59 * time.Second)}, now)
	_, err := a.Price(testFeedID, time.Minute)
	require.NoError(t, err)

	// 61 seconds old does not.
	a = newTestAdapter(Reading{RawPrice: 1, Exponent: 0, PublishTime: now.Add(-61 * time.Second)}, now)
	_, err = a.Price(testFeedID, time.Minute)
	require.ErrorIs(t, err, ErrStalePrice)
}

func TestPriceRejectsNonPositive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	for _, raw := range []int64{0, -1, -150_000_000} {
		a := newTestAdapter(Reading{RawPrice: raw, Exponent: -8, PublishTime: now}, now)
		_, err := a.Price(testFeedID, time.Minute)
		require.ErrorIs(t, err, ErrInvalidPrice, "raw=%d", raw)
	}
}

func TestPriceRejectsZeroAfterRescale(t *testing.T) {
	// A positive price can still floor to zero when the feed carries
	// more precision than the engine.
	now := time.Unix(1_700_000_000, 0)
	a := newTestAdapter(Reading{RawPrice: 5, Exponent: -20, PublishTime: now}, now)
	_, err := a.Price(testFeedID, time.Minute)
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestPriceUnknownFeed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a := NewAdapter(StaticFeed{}, WithClock(func() time.Time { return now }))
	_, err := a.Price(testFeedID, time.Minute)
	require.ErrorIs(t, err, ErrUnknownFeed)
}
