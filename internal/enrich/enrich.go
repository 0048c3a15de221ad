package enrich

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"holderScope/internal/model"
)

// ChefCaller is the staking-contract state surface enrichment consumes.
type ChefCaller interface {
	PoolInfo(ctx context.Context) (common.Address, error)
	UserInfo(ctx context.Context, addr common.Address) (amount, rewardDebt *big.Int, err error)
}

// PairCaller is the reference-pool state surface.
type PairCaller interface {
	GetReserves(ctx context.Context) (reserve0, reserve1 *big.Int, err error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
}

// Params pins the configuration enrichment validates against.
type Params struct {
	ChefAddress common.Address
	PoolAddress common.Address
	// RefToken selects reserve slot 0 or 1 as the reference asset.
	RefToken   int
	NormFactor decimal.Decimal
	// MinAmount drops positions staked below it; zero keeps everything
	// but empty positions.
	MinAmount decimal.Decimal

	MaxRetries   int
	RetryBackoff time.Duration
}

// Enricher cross-references scanned candidates against live contract state.
type Enricher struct {
	chef   ChefCaller
	pair   PairCaller
	params Params
	logger *zap.Logger
}

func New(chef ChefCaller, pair PairCaller, params Params, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if params.MaxRetries == 0 {
		params.MaxRetries = 3
	}
	if params.RetryBackoff == 0 {
		params.RetryBackoff = 500 * time.Millisecond
	}
	return &Enricher{chef: chef, pair: pair, params: params, logger: logger}
}

// PoolValuation snapshots the reference pool and derives the USD value of
// the contract's entire LP holding:
//
//	holdings_usd = 2 * ref_reserve * (held / supply) / norm_factor
//
// The factor of 2 reflects a two-asset constant-product pool where the
// reference reserve is half of pooled value.
func (e *Enricher) PoolValuation(ctx context.Context) (model.PoolState, error) {
	if e.params.RefToken != 0 && e.params.RefToken != 1 {
		return model.PoolState{}, fmt.Errorf("ref_token should be 0 or 1 (%d)", e.params.RefToken)
	}

	var lpToken common.Address
	err := withRetry(ctx, e.params.MaxRetries, e.params.RetryBackoff, func(ctx context.Context) error {
		var err error
		lpToken, err = e.chef.PoolInfo(ctx)
		return err
	})
	if err != nil {
		return model.PoolState{}, fmt.Errorf("poolInfo: %w", err)
	}
	if lpToken != e.params.PoolAddress {
		return model.PoolState{}, fmt.Errorf(
			"pool address mismatch: contract reports %s, config has %s (stale lp address or abi)",
			lpToken.Hex(), e.params.PoolAddress.Hex(),
		)
	}

	var held *big.Int
	err = withRetry(ctx, e.params.MaxRetries, e.params.RetryBackoff, func(ctx context.Context) error {
		var err error
		held, err = e.pair.BalanceOf(ctx, e.params.ChefAddress)
		return err
	})
	if err != nil {
		return model.PoolState{}, fmt.Errorf("balanceOf: %w", err)
	}

	var supply *big.Int
	err = withRetry(ctx, e.params.MaxRetries, e.params.RetryBackoff, func(ctx context.Context) error {
		var err error
		supply, err = e.pair.TotalSupply(ctx)
		return err
	})
	if err != nil {
		return model.PoolState{}, fmt.Errorf("totalSupply: %w", err)
	}
	if supply.Sign() == 0 {
		return model.PoolState{}, fmt.Errorf("lp total supply is zero")
	}

	var reserve0, reserve1 *big.Int
	err = withRetry(ctx, e.params.MaxRetries, e.params.RetryBackoff, func(ctx context.Context) error {
		var err error
		reserve0, reserve1, err = e.pair.GetReserves(ctx)
		return err
	})
	if err != nil {
		return model.PoolState{}, fmt.Errorf("getReserves: %w", err)
	}

	refReserve := reserve0
	if e.params.RefToken == 1 {
		refReserve = reserve1
	}

	holdings := decimal.NewFromInt(2).
		Mul(decimal.NewFromBigInt(refReserve, 0)).
		Mul(decimal.NewFromBigInt(held, 0)).
		Div(decimal.NewFromBigInt(supply, 0)).
		Div(e.params.NormFactor)

	e.logger.Debug("pool valuation",
		zap.String("held", held.String()),
		zap.String("supply", supply.String()),
		zap.String("ref_reserve", refReserve.String()),
		zap.String("holdings_usd", holdings.String()),
	)

	return model.PoolState{
		RefReserve:  refReserve,
		HeldBalance: held,
		TotalSupply: supply,
		HoldingsUSD: holdings,
	}, nil
}

// Positions queries the live stake of every scanned candidate, in record
// order, and drops addresses that have since fully withdrawn or hold less
// than the configured minimum.
func (e *Enricher) Positions(ctx context.Context, record *model.DepositRecord) ([]model.Position, error) {
	addresses := record.Addresses()
	positions := make([]model.Position, 0, len(addresses))

	for _, addr := range addresses {
		var amount, rewardDebt *big.Int
		err := withRetry(ctx, e.params.MaxRetries, e.params.RetryBackoff, func(ctx context.Context) error {
			var err error
			amount, rewardDebt, err = e.chef.UserInfo(ctx, addr)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("userInfo %s: %w", addr.Hex(), err)
		}

		if amount.Sign() == 0 {
			continue
		}
		if e.params.MinAmount.IsPositive() &&
			decimal.NewFromBigInt(amount, 0).LessThan(e.params.MinAmount) {
			continue
		}

		positions = append(positions, model.Position{
			Address:    addr,
			Amount:     amount,
			RewardDebt: rewardDebt,
		})
	}

	e.logger.Info("positions fetched",
		zap.Int("candidates", len(addresses)),
		zap.Int("retained", len(positions)),
	)
	return positions, nil
}
