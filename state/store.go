package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/table"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/logger"
)

const lockStripes = 256

var (
	accountsPrefix = []byte("a")
	metaPrefix     = []byte("m")
)

var (
	ErrNotWritable       = errors.New("account is not writable in this transaction")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountTooLarge   = errors.New("account exceeds max size")
	ErrShrink            = errors.New("account cannot shrink")
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountMissing    = errors.New("account does not exist")
	ErrTxDone            = errors.New("transaction already finished")
)

// Rent computes the rent-exempt balance for a data size.
type Rent interface {
	MinimumBalance(size uint64) uint64
}

// Config tunes a Store.
type Config struct {
	// Cache is the number of decoded accounts kept in memory.
	Cache int
	// MaxAccountSize bounds account capacity.
	MaxAccountSize uint64
	Rent           Rent
}

// Store keeps accounts in a kvdb.Store.
type Store struct {
	cfg Config

	db    kvdb.Store
	table struct {
		Accounts kvdb.Store
		Meta     kvdb.Store
	}
	cache *lru.Cache
	// cacheMu orders cache fills from db reads against commits, so a stale
	// read never lands in the cache after a newer write.
	cacheMu sync.RWMutex

	locks [lockStripes]sync.Mutex

	logger.Instance
}

// NewStore wraps db. The Store owns db and closes it on Close.
func NewStore(db kvdb.Store, cfg Config) (*Store, error) {
	if cfg.Rent == nil {
		return nil, errors.New("rent rules are required")
	}
	if cfg.Cache <= 0 {
		cfg.Cache = 1
	}
	cache, err := lru.New(cfg.Cache)
	if err != nil {
		return nil, err
	}
	s := &Store{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		Instance: logger.New("state"),
	}
	s.table.Accounts = table.New(db, accountsPrefix)
	s.table.Meta = table.New(db, metaPrefix)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

// Rent returns the rent rules of the store.
func (s *Store) Rent() Rent {
	return s.cfg.Rent
}

// Account returns a committed account, or nil if it does not exist.
func (s *Store) Account(addr inter.Identity) (*Account, error) {
	acc, err := s.load(addr)
	if acc == nil || err != nil {
		return nil, err
	}
	return acc.Copy(), nil
}

// Meta returns a committed metadata value, or nil.
func (s *Store) Meta(key string) ([]byte, error) {
	ok, err := s.table.Meta.Has([]byte(key))
	if err != nil || !ok {
		return nil, err
	}
	return s.table.Meta.Get([]byte(key))
}

// load returns the cached account, which the caller must not modify.
func (s *Store) load(addr inter.Identity) (*Account, error) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if v, ok := s.cache.Get(addr); ok {
		return v.(*Account), nil
	}
	ok, err := s.table.Accounts.Has(addr[:])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := s.table.Accounts.Get(addr[:])
	if err != nil {
		return nil, err
	}
	acc := new(Account)
	if err := acc.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	s.cache.Add(addr, acc)
	return acc, nil
}

// Begin starts a transaction with exclusive access to the writable accounts.
// It blocks until every one of them is free.
func (s *Store) Begin(writable ...inter.Identity) *Tx {
	tx := &Tx{
		store:    s,
		writable: make(map[inter.Identity]struct{}, len(writable)),
		dirty:    make(map[inter.Identity]*Account),
		meta:     make(map[string][]byte),
	}
	stripes := make(map[int]struct{}, len(writable))
	for _, addr := range writable {
		tx.writable[addr] = struct{}{}
		stripes[stripeOf(addr)] = struct{}{}
	}
	for i := range stripes {
		tx.stripes = append(tx.stripes, i)
	}
	// fixed acquisition order rules out deadlocks between transactions
	sort.Ints(tx.stripes)
	for _, i := range tx.stripes {
		s.locks[i].Lock()
	}
	return tx
}

func stripeOf(addr inter.Identity) int {
	return int(addr[0]) % lockStripes
}

func (s *Store) commit(tx *Tx) error {
	// one batch on the underlying db keeps both tables atomic
	batch := s.db.NewBatch()
	for addr, acc := range tx.dirty {
		raw, err := acc.MarshalBinary()
		if err != nil {
			return err
		}
		if err := batch.Put(prefixed(accountsPrefix, addr[:]), raw); err != nil {
			return err
		}
	}
	for k, v := range tx.meta {
		if err := batch.Put(prefixed(metaPrefix, []byte(k)), v); err != nil {
			return err
		}
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if err := batch.Write(); err != nil {
		return err
	}
	for addr, acc := range tx.dirty {
		s.cache.Add(addr, acc)
	}
	s.Log.Trace("Transaction committed", "accounts", len(tx.dirty), "meta", len(tx.meta))
	return nil
}

func (s *Store) release(tx *Tx) {
	for i := len(tx.stripes) - 1; i >= 0; i-- {
		s.locks[tx.stripes[i]].Unlock()
	}
}

func prefixed(prefix, key []byte) []byte {
	return append(append(make([]byte, 0, len(prefix)+len(key)), prefix...), key...)
}
