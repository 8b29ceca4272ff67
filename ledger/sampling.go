package ledger

import (
	"github.com/rony4d/go-growspace/inter"
)

// SelectK walks pool cyclically from seed mod len(pool) and collects up to k
// identities that are not yet in dst, adding each pick to dst. It stops once
// k identities are collected or the whole pool has been visited.
//
// The selection is predictable for anyone who knows the seed; it spreads
// rewards, it does not protect them.
func SelectK(pool []inter.Identity, k int, seed uint64, dst map[inter.Identity]struct{}) []inter.Identity {
	if len(pool) == 0 || k <= 0 {
		return nil
	}
	if dst == nil {
		dst = make(map[inter.Identity]struct{}, k)
	}
	start := int(seed % uint64(len(pool)))
	res := make([]inter.Identity, 0, k)
	for i := 0; i < len(pool) && len(res) < k; i++ {
		id := pool[(start+i)%len(pool)]
		if _, ok := dst[id]; ok {
			continue
		}
		dst[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
