package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"holderScope/internal/report"
)

// Store persists ranked holder snapshots to Postgres. It is an optional
// sink; the CSV report is always produced.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// WriteReport upserts the report rows keyed by (chain, contract, address).
// Re-running a scan refreshes the snapshot in place.
func (s *Store) WriteReport(ctx context.Context, rep report.Report) error {
	if len(rep.Rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for position, row := range rep.Rows {
		batch.Queue(`
			INSERT INTO holder_snapshots (
				chain, contract_name, address, rank, amount_pct, balance_usd, is_contract, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (chain, contract_name, address)
			DO UPDATE SET
				rank = EXCLUDED.rank,
				amount_pct = EXCLUDED.amount_pct,
				balance_usd = EXCLUDED.balance_usd,
				is_contract = EXCLUDED.is_contract,
				updated_at = now()
		`,
			rep.Chain,
			rep.Contract,
			row.Address,
			position+1,
			row.AmountPct,
			row.BalanceUSD,
			row.IsContract,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rep.Rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
