// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger holds per-strategy token balances for the pricing
// engine's external ledger collaborator. The engine only ever reads a
// snapshot through Reader; all mutation happens here, driven by the
// caller that owns atomicity between read and apply.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Errors
var (
	ErrStrategyNotFound    = errors.New("strategy not found")
	ErrInsufficientBalance = errors.New("insufficient ledger balance")
	ErrBalanceOverflow     = errors.New("ledger balance overflow")
)

// Storage key prefixes.
var (
	basePrefix            = []byte("base")
	quotePrefix           = []byte("quot")
	maintainerBasePrefix  = []byte("mntb")
	maintainerQuotePrefix = []byte("mntq")
)

// StrategyID identifies one maker strategy's balances.
type StrategyID [32]byte

// NewStrategyID derives a strategy identifier from its owner and
// token pair.
func NewStrategyID(owner, baseToken, quoteToken common.Address) StrategyID {
	h := blake3.New()
	h.Write(owner.Bytes())
	h.Write(baseToken.Bytes())
	h.Write(quoteToken.Bytes())
	var id StrategyID
	h.Digest().Read(id[:])
	return id
}

// Hex returns the identifier as a 0x-prefixed string.
func (id StrategyID) Hex() string {
	return common.Hash(id).Hex()
}

// Reader is the read-only view the snapshot builder consumes.
// Balances are native token integer units.
type Reader interface {
	Balances(id StrategyID) (base, quote *uint256.Int, err error)
}

// Store keeps strategy balances in a key-value database. Writes are
// serialized; reads see the last committed write.
type Store struct {
	mu sync.RWMutex
	db database.Database
}

// NewStore wraps a database.
func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

func storageKey(prefix []byte, id StrategyID) []byte {
	key := make([]byte, 0, len(prefix)+len(id))
	key = append(key, prefix...)
	key = append(key, id[:]...)
	return key
}

func (s *Store) read(prefix []byte, id StrategyID) (*uint256.Int, error) {
	raw, err := s.db.Get(storageKey(prefix, id))
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (s *Store) write(prefix []byte, id StrategyID, v *uint256.Int) error {
	b := v.Bytes32()
	return s.db.Put(storageKey(prefix, id), b[:])
}

// Balances implements Reader.
func (s *Store) Balances(id StrategyID) (*uint256.Int, *uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	has, err := s.db.Has(storageKey(basePrefix, id))
	if err != nil {
		return nil, nil, err
	}
	if !has {
		return nil, nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, id.Hex())
	}
	base, err := s.read(basePrefix, id)
	if err != nil {
		return nil, nil, err
	}
	quote, err := s.read(quotePrefix, id)
	if err != nil {
		return nil, nil, err
	}
	return base, quote, nil
}

// Deposit credits both sides of a strategy, creating it on first use.
func (s *Store) Deposit(id StrategyID, base, quote *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	curBase, err := s.read(basePrefix, id)
	if err != nil {
		return err
	}
	curQuote, err := s.read(quotePrefix, id)
	if err != nil {
		return err
	}
	newBase, overflow := new(uint256.Int).AddOverflow(curBase, base)
	if overflow {
		return ErrBalanceOverflow
	}
	newQuote, overflow := new(uint256.Int).AddOverflow(curQuote, quote)
	if overflow {
		return ErrBalanceOverflow
	}
	if err := s.write(basePrefix, id, newBase); err != nil {
		return err
	}
	return s.write(quotePrefix, id, newQuote)
}

// Withdraw debits both sides of a strategy.
func (s *Store) Withdraw(id StrategyID, base, quote *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	curBase, err := s.read(basePrefix, id)
	if err != nil {
		return err
	}
	curQuote, err := s.read(quotePrefix, id)
	if err != nil {
		return err
	}
	if curBase.Lt(base) || curQuote.Lt(quote) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, id.Hex())
	}
	if err := s.write(basePrefix, id, new(uint256.Int).Sub(curBase, base)); err != nil {
		return err
	}
	return s.write(quotePrefix, id, new(uint256.Int).Sub(curQuote, quote))
}

// Apply commits a priced trade against a strategy: the input side is
// credited with amountIn, the output side debited by amountOut plus
// the maintainer fee, which accrues to the strategy's maintainer
// accumulator. The LP fee needs no movement; it simply stays in the
// pool. tokenInIsBase gives the trade direction.
func (s *Store) Apply(id StrategyID, tokenInIsBase bool, amountIn, amountOut, maintainerFee *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.read(basePrefix, id)
	if err != nil {
		return err
	}
	quote, err := s.read(quotePrefix, id)
	if err != nil {
		return err
	}

	outTotal, overflow := new(uint256.Int).AddOverflow(amountOut, maintainerFee)
	if overflow {
		return ErrBalanceOverflow
	}

	inSide, outSide := base, quote
	if !tokenInIsBase {
		inSide, outSide = quote, base
	}
	if outSide.Lt(outTotal) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, id.Hex())
	}
	newIn, overflow := new(uint256.Int).AddOverflow(inSide, amountIn)
	if overflow {
		return ErrBalanceOverflow
	}
	newOut := new(uint256.Int).Sub(outSide, outTotal)

	newBase, newQuote := newIn, newOut
	if !tokenInIsBase {
		newBase, newQuote = newOut, newIn
	}
	if err := s.write(basePrefix, id, newBase); err != nil {
		return err
	}
	if err := s.write(quotePrefix, id, newQuote); err != nil {
		return err
	}

	if maintainerFee.IsZero() {
		return nil
	}
	// The fee is denominated in the out-side token.
	feePrefix := maintainerQuotePrefix
	if !tokenInIsBase {
		feePrefix = maintainerBasePrefix
	}
	accrued, err := s.read(feePrefix, id)
	if err != nil {
		return err
	}
	newAccrued, overflow := new(uint256.Int).AddOverflow(accrued, maintainerFee)
	if overflow {
		return ErrBalanceOverflow
	}
	return s.write(feePrefix, id, newAccrued)
}

// MaintainerAccrued returns the maintainer fees accumulated for a
// strategy since the last collection, per token.
func (s *Store) MaintainerAccrued(id StrategyID) (base, quote *uint256.Int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base, err = s.read(maintainerBasePrefix, id)
	if err != nil {
		return nil, nil, err
	}
	quote, err = s.read(maintainerQuotePrefix, id)
	if err != nil {
		return nil, nil, err
	}
	return base, quote, nil
}
