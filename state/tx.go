package state

import (
	"fmt"

	"github.com/rony4d/go-growspace/inter"
)

// Tx is a single atomic program call. Reads see the Tx's own writes first.
// A Tx must be finished with Commit or Discard.
type Tx struct {
	store    *Store
	writable map[inter.Identity]struct{}
	dirty    map[inter.Identity]*Account
	meta     map[string][]byte
	stripes  []int
	done     bool
}

// Writable reports whether the Tx may modify addr.
func (tx *Tx) Writable(addr inter.Identity) bool {
	_, ok := tx.writable[addr]
	return ok
}

// Get returns a copy of the account, or nil if it does not exist.
func (tx *Tx) Get(addr inter.Identity) (*Account, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	if acc, ok := tx.dirty[addr]; ok {
		return acc.Copy(), nil
	}
	acc, err := tx.store.load(addr)
	if acc == nil || err != nil {
		return nil, err
	}
	return acc.Copy(), nil
}

// Put stages acc as the new state of addr.
func (tx *Tx) Put(addr inter.Identity, acc *Account) error {
	if err := tx.checkWritable(addr); err != nil {
		return err
	}
	if acc.Capacity() > tx.store.cfg.MaxAccountSize {
		return fmt.Errorf("%w: %s has %d bytes", ErrAccountTooLarge, addr, acc.Capacity())
	}
	tx.dirty[addr] = acc.Copy()
	return nil
}

// Transfer moves lamports between two writable accounts. A missing recipient
// is created as a system-owned balance account.
func (tx *Tx) Transfer(from, to inter.Identity, lamports uint64) error {
	if err := tx.checkWritable(from); err != nil {
		return err
	}
	if err := tx.checkWritable(to); err != nil {
		return err
	}
	if lamports == 0 {
		return nil
	}
	src, err := tx.Get(from)
	if err != nil {
		return err
	}
	if src == nil || src.Lamports < lamports {
		have := uint64(0)
		if src != nil {
			have = src.Lamports
		}
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, have, lamports)
	}
	src.Lamports -= lamports
	if err := tx.Put(from, src); err != nil {
		return err
	}

	dst, err := tx.Get(to)
	if err != nil {
		return err
	}
	if dst == nil {
		dst = &Account{Owner: SystemOwner}
	}
	dst.Lamports += lamports
	return tx.Put(to, dst)
}

// Create allocates a zeroed account of the given capacity owned by owner and
// funds it to the rent-exempt minimum from payer.
func (tx *Tx) Create(addr, owner, payer inter.Identity, capacity uint64) (*Account, error) {
	existing, err := tx.Get(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil && (existing.Owner != SystemOwner || existing.Capacity() != 0) {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	if capacity > tx.store.cfg.MaxAccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAccountTooLarge, capacity)
	}
	have := uint64(0)
	if existing != nil {
		have = existing.Lamports
	}
	if need := tx.store.cfg.Rent.MinimumBalance(capacity); need > have {
		if err := tx.Transfer(payer, addr, need-have); err != nil {
			return nil, err
		}
	}
	acc, err := tx.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &Account{}
	}
	acc.Owner = owner
	acc.Data = make([]byte, capacity)
	if err := tx.Put(addr, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Resize grows the data buffer of addr to size bytes, zero-filling the tail.
func (tx *Tx) Resize(addr inter.Identity, size uint64) error {
	if err := tx.checkWritable(addr); err != nil {
		return err
	}
	acc, err := tx.Get(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%w: %s", ErrAccountMissing, addr)
	}
	if size < acc.Capacity() {
		return fmt.Errorf("%w: %s from %d to %d", ErrShrink, addr, acc.Capacity(), size)
	}
	if size > tx.store.cfg.MaxAccountSize {
		return fmt.Errorf("%w: %s to %d bytes", ErrAccountTooLarge, addr, size)
	}
	acc.Data = append(acc.Data, make([]byte, size-acc.Capacity())...)
	return tx.Put(addr, acc)
}

// PutMeta stages a metadata value.
func (tx *Tx) PutMeta(key string, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	tx.meta[key] = append([]byte(nil), value...)
	return nil
}

// Commit writes all staged changes atomically and releases the accounts.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.store.release(tx)
	return tx.store.commit(tx)
}

// Discard drops all staged changes and releases the accounts.
// It is a no-op on a finished Tx, so it can be deferred.
func (tx *Tx) Discard() {
	if tx.done {
		return
	}
	tx.done = true
	tx.store.release(tx)
}

func (tx *Tx) checkWritable(addr inter.Identity) error {
	if tx.done {
		return ErrTxDone
	}
	if !tx.Writable(addr) {
		return fmt.Errorf("%w: %s", ErrNotWritable, addr)
	}
	return nil
}
