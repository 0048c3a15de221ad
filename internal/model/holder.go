package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PoolState is a one-shot snapshot of the reference pool used for pricing.
type PoolState struct {
	RefReserve  *big.Int
	HeldBalance *big.Int
	TotalSupply *big.Int
	// HoldingsUSD is the USD value of the contract's entire LP holding,
	// derived as 2 * ref_reserve * (held / supply) / norm_factor.
	HoldingsUSD decimal.Decimal
}

// Position is an address's live stake in the scanned contract.
type Position struct {
	Address    common.Address
	Amount     *big.Int
	RewardDebt *big.Int
}

// HolderRow is one line of the final ranked report.
type HolderRow struct {
	Address    string  `json:"address"`
	AmountPct  float64 `json:"amount_pct"`
	BalanceUSD string  `json:"balance_usd"`
	IsContract bool    `json:"is_contract"`
}

// Columns is the fixed report header.
func Columns() []string {
	return []string{"address", "amount_pct", "balance_usd", "is_contract"}
}
