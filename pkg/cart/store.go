// Package cart keeps a shopper's cart on the client side: product IDs,
// quantities and variants, persisted through a pluggable Storage.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultKey is the storage key used when WithKey is not given.
const DefaultKey = "melz_cart"

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(1000)
	DefaultShippingFee           = decimal.NewFromInt(100)
)

// Observer receives a copy of the lines after every successful write.
type Observer func(lines []Line)

type subscriber struct {
	id int
	fn Observer
}

// Store is a cart bound to one storage key. Operations are serialized; the
// stored document is re-read on every call so separate processes sharing the
// storage see each other's writes, last write wins.
type Store struct {
	storage   Storage
	key       string
	threshold decimal.Decimal
	fee       decimal.Decimal
	log       *zap.Logger

	mu sync.Mutex

	subMu     sync.Mutex
	subs      []subscriber
	nextSubID int
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithFreeShippingThreshold sets the subtotal from which shipping is free.
func WithFreeShippingThreshold(d decimal.Decimal) Option {
	return func(s *Store) { s.threshold = d }
}

// WithShippingFee sets the flat fee charged below the threshold.
func WithShippingFee(d decimal.Decimal) Option {
	return func(s *Store) { s.fee = d }
}

// WithLogger sets the logger used for recovered problems.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns a Store over storage.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		key:       DefaultKey,
		threshold: DefaultFreeShippingThreshold,
		fee:       DefaultShippingFee,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(lines []Line) {
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(cloneLines(lines))
	}
}

// load reads the stored lines, migrating and writing back legacy documents.
// Callers must hold mu.
func (s *Store) load(ctx context.Context) ([]Line, error) {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Line{}, nil
		}
		return nil, err
	}

	lines, migrated := decode(data)
	if migrated {
		s.log.Info("migrated stored cart", zap.String("key", s.key), zap.Int("lines", len(lines)))
		if err := s.save(ctx, lines); err != nil {
			// the migrated lines are still usable; the next write retries
			s.log.Warn("failed to write migrated cart", zap.String("key", s.key), zap.Error(err))
		}
	}
	return lines, nil
}

func (s *Store) save(ctx context.Context, lines []Line) error {
	data, err := encode(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return s.storage.Save(ctx, s.key, data)
}

// mutate runs fn on the current lines, persists the result and notifies
// observers outside the lock.
func (s *Store) mutate(ctx context.Context, fn func([]Line) []Line) ([]Line, error) {
	s.mu.Lock()
	lines, err := s.load(ctx)
	if err == nil {
		lines = fn(lines)
		err = s.save(ctx, lines)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(lines)
	return cloneLines(lines), nil
}

// AddLine adds qty units of productID with the given variant, merging into an
// existing line with the same product and variant. A non-positive qty adds one.
func (s *Store) AddLine(ctx context.Context, productID string, qty int, variant *Variant) ([]Line, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, ErrInvalidProductID
	}
	if qty <= 0 {
		qty = 1
	}
	v := normalizeVariant(variant)

	return s.mutate(ctx, func(lines []Line) []Line {
		for i := range lines {
			if lines[i].matches(id, v) {
				lines[i].Quantity = addQuantity(lines[i].Quantity, qty)
				return lines
			}
		}
		return append(lines, Line{ProductID: id, Quantity: clampQuantity(qty), Variant: v})
	})
}

// UpdateQuantity sets the quantity of the matching line; qty <= 0 removes it.
// Without a matching line the cart is left as it is.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int, variant *Variant) ([]Line, error) {
	id := strings.TrimSpace(productID)
	v := normalizeVariant(variant)

	return s.mutate(ctx, func(lines []Line) []Line {
		for i := range lines {
			if !lines[i].matches(id, v) {
				continue
			}
			if qty <= 0 {
				return append(lines[:i], lines[i+1:]...)
			}
			lines[i].Quantity = clampQuantity(qty)
			return lines
		}
		return lines
	})
}

// RemoveLine removes the line for productID with exactly this variant. A nil
// variant only matches lines without a variant.
func (s *Store) RemoveLine(ctx context.Context, productID string, variant *Variant) ([]Line, error) {
	id := strings.TrimSpace(productID)
	v := normalizeVariant(variant)

	return s.mutate(ctx, func(lines []Line) []Line {
		kept := lines[:0]
		for _, l := range lines {
			if !l.matches(id, v) {
				kept = append(kept, l)
			}
		}
		return kept
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]Line) []Line { return []Line{} })
	return err
}

// Lines returns the current lines in insertion order.
func (s *Store) Lines(ctx context.Context) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneLines(lines), nil
}

// Count returns the number of units in the cart.
func (s *Store) Count(ctx context.Context) (int, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n, nil
}
