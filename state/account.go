// Package state is the host environment of the program: a flat key/value
// space of accounts, each with an owner, a lamport balance and a data buffer
// whose length is the account's allocated capacity.
//
// Every program call runs in a Tx. The Tx declares its writable accounts up
// front, holds exclusive access to them until it finishes, and either commits
// all of its writes in one database batch or none of them.
package state

import (
	"errors"
	"fmt"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/utils/fast"
)

// SystemOwner owns plain balance accounts.
var SystemOwner = inter.Identity{}

// Account is one entry of the host state.
type Account struct {
	Owner    inter.Identity
	Lamports uint64
	Data     []byte
}

// Capacity is the allocated data size of the account.
func (a *Account) Capacity() uint64 {
	return uint64(len(a.Data))
}

// Copy returns a deep copy.
func (a *Account) Copy() *Account {
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	return &cp
}

var errMalformedAccount = errors.New("malformed account")

// MarshalBinary encodes owner | lamports | u32 len | data.
func (a *Account) MarshalBinary() ([]byte, error) {
	w := fast.NewWriter(make([]byte, 0, inter.IdentitySize+8+4+len(a.Data)))
	w.Write(a.Owner[:])
	w.U64(a.Lamports)
	w.U32(uint32(len(a.Data)))
	w.Write(a.Data)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes an account written by MarshalBinary.
func (a *Account) UnmarshalBinary(raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errMalformedAccount, r)
		}
	}()
	r := fast.NewReader(raw)
	copy(a.Owner[:], r.Read(inter.IdentitySize))
	a.Lamports = r.U64()
	a.Data = append([]byte(nil), r.Read(int(r.U32()))...)
	if !r.Empty() {
		return errMalformedAccount
	}
	return nil
}
