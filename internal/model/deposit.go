package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DepositEvent is a decoded Deposit log entry.
type DepositEvent struct {
	User        common.Address
	Amount      *big.Int
	BlockNumber uint64
}

// DepositRecord maps depositor address to the first amount observed for it
// during a scan. Insertion is first-write-wins: once an address is recorded,
// later chunks never overwrite it. First-seen order is preserved so that
// downstream ranking has a deterministic tie-break.
type DepositRecord struct {
	order   []common.Address
	amounts map[common.Address]*big.Int
}

func NewDepositRecord() *DepositRecord {
	return &DepositRecord{amounts: make(map[common.Address]*big.Int)}
}

// Put records the amount for addr unless addr is already present.
// It reports whether the entry was inserted.
func (r *DepositRecord) Put(addr common.Address, amount *big.Int) bool {
	if _, ok := r.amounts[addr]; ok {
		return false
	}
	r.amounts[addr] = new(big.Int).Set(amount)
	r.order = append(r.order, addr)
	return true
}

// Get returns the recorded amount for addr.
func (r *DepositRecord) Get(addr common.Address) (*big.Int, bool) {
	amount, ok := r.amounts[addr]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(amount), true
}

// Addresses returns depositor addresses in first-seen order.
func (r *DepositRecord) Addresses() []common.Address {
	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}

func (r *DepositRecord) Len() int {
	return len(r.order)
}
