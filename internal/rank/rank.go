package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"holderScope/internal/model"
)

// CodeReader distinguishes deployed contracts from externally-owned accounts.
type CodeReader interface {
	IsContract(ctx context.Context, addr common.Address) (bool, error)
}

var hundred = decimal.NewFromInt(100)

// Rank turns retained positions into the final report rows: percentage share
// of the contract's LP holding, millified USD valuation, and contract-ness
// per address, sorted descending by share. The sort is stable, so equal
// shares keep their first-seen order from the scan.
func Rank(ctx context.Context, positions []model.Position, pool model.PoolState, codes CodeReader) ([]model.HolderRow, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	if pool.HeldBalance == nil || pool.HeldBalance.Sign() == 0 {
		return nil, fmt.Errorf("contract lp balance is zero")
	}
	held := decimal.NewFromBigInt(pool.HeldBalance, 0)

	rows := make([]model.HolderRow, 0, len(positions))
	for _, pos := range positions {
		amount := decimal.NewFromBigInt(pos.Amount, 0)
		share := amount.Mul(hundred).Div(held)
		valuation := pool.HoldingsUSD.Mul(amount).Div(held)

		isContract, err := codes.IsContract(ctx, pos.Address)
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", pos.Address.Hex(), err)
		}

		rows = append(rows, model.HolderRow{
			Address:    pos.Address.Hex(),
			AmountPct:  share.InexactFloat64(),
			BalanceUSD: Millify(valuation),
			IsContract: isContract,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AmountPct > rows[j].AmountPct
	})
	return rows, nil
}
