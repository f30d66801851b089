// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle adapts external price feeds to the engine's
// 18-decimal fixed-point convention. A feed publishes a raw integer
// price with a decimal exponent and a publish timestamp; the adapter
// enforces a staleness bound, rejects non-positive prices, and
// rescales the feed's native exponent to 18 decimals.
package oracle

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/pmm/fixmath"
)

// Errors
var (
	ErrStalePrice   = errors.New("stale oracle price")
	ErrInvalidPrice = errors.New("non-positive oracle price")
	ErrUnknownFeed  = errors.New("unknown oracle feed")
)

// Reading is one published price observation: rawPrice * 10^exponent
// quote per base, published at PublishTime.
type Reading struct {
	RawPrice    int64
	Exponent    int32
	PublishTime time.Time
}

// Feed exposes the latest reading per feed identifier. Implementations
// are external; the adapter never retries a failed read.
type Feed interface {
	Read(id common.Hash) (Reading, error)
}

// Adapter converts feed readings into engine prices.
type Adapter struct {
	feed Feed
	now  func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter wraps a feed.
func NewAdapter(feed Feed, opts ...Option) *Adapter {
	a := &Adapter{feed: feed, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Price returns the feed's current price scaled to 18 decimals.
// Readings older than maxStaleness fail with ErrStalePrice; zero or
// negative raw prices fail with ErrInvalidPrice. The adapter performs
// no retries; the caller refreshes the feed and calls again.
func (a *Adapter) Price(id common.Hash, maxStaleness time.Duration) (*uint256.Int, error) {
	reading, err := a.feed.Read(id)
	if err != nil {
		return nil, err
	}

	age := a.now().Sub(reading.PublishTime)
	if age > maxStaleness {
		return nil, fmt.Errorf("%w: age=%ds max=%ds",
			ErrStalePrice, int64(age.Seconds()), int64(maxStaleness.Seconds()))
	}
	if reading.RawPrice <= 0 {
		return nil, fmt.Errorf("%w: raw=%d", ErrInvalidPrice, reading.RawPrice)
	}

	price, err := rescale(uint64(reading.RawPrice), reading.Exponent)
	if err != nil {
		return nil, err
	}
	// A deep negative exponent can floor a tiny positive price to zero.
	if price.IsZero() {
		return nil, fmt.Errorf("%w: raw=%d expo=%d rescales to zero",
			ErrInvalidPrice, reading.RawPrice, reading.Exponent)
	}
	return price, nil
}

// rescale moves a raw price from 10^exponent to the 10^-18 convention:
// scale up when the feed carries fewer than 18 decimals, down when it
// carries more.
func rescale(raw uint64, exponent int32) (*uint256.Int, error) {
	price := uint256.NewInt(raw)
	shift := int64(18) + int64(exponent)
	if shift >= 0 {
		pow, err := fixmath.Pow10(uint(shift))
		if err != nil {
			return nil, err
		}
		return fixmath.MulInt(price, pow)
	}
	pow, err := fixmath.Pow10(uint(-shift))
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(price, pow), nil
}

// StaticFeed is an in-memory Feed keyed by identifier, for tests and
// local tooling.
type StaticFeed map[common.Hash]Reading

// Read implements Feed.
func (f StaticFeed) Read(id common.Hash) (Reading, error) {
	reading, ok := f[id]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s", ErrUnknownFeed, id.Hex())
	}
	return reading, nil
}
