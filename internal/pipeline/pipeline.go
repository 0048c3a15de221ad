package pipeline

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"holderScope/internal/chain"
	"holderScope/internal/config"
	"holderScope/internal/enrich"
	"holderScope/internal/masterchef"
	"holderScope/internal/model"
	"holderScope/internal/rank"
	"holderScope/internal/report"
	"holderScope/internal/scanner"
)

// Runner processes the contract list strictly sequentially: shared provider
// connections are not reentrant and rate-limit backoff is per-provider.
type Runner struct {
	resolver *chain.Resolver
	sinks    []report.Sink
	logger   *zap.Logger
}

func NewRunner(resolver *chain.Resolver, sinks []report.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{resolver: resolver, sinks: sinks, logger: logger}
}

// Run scans every enabled contract entry in order. A fatal error on one
// entry is logged and the run continues to the next; the returned error is
// non-nil if any entry failed.
func (r *Runner) Run(ctx context.Context, contracts []config.ContractConfig) error {
	if r.resolver == nil {
		return fmt.Errorf("chain resolver is nil")
	}

	var failed int
	for _, contract := range contracts {
		log := r.logger.With(zap.String("contract", contract.Name))

		if !contract.Enabled {
			log.Info("disabled, skipping contract")
			continue
		}

		log.Info("running contract scan")
		if err := r.runContract(ctx, contract, log); err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed++
			log.Error("contract scan failed", zap.Error(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d contract entries failed", failed, len(contracts))
	}
	return nil
}

func (r *Runner) runContract(ctx context.Context, contract config.ContractConfig, log *zap.Logger) error {
	if err := contract.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	client, err := r.resolver.Resolve(ctx, contract.Blockchain)
	if err != nil {
		return err
	}

	chefABI, err := contract.ChefABI()
	if err != nil {
		return err
	}
	pairABI, err := contract.PairABI()
	if err != nil {
		return err
	}

	binding, err := masterchef.NewBinding(client, contract.ContractAddress(), chefABI, contract.Pid)
	if err != nil {
		return err
	}
	pair, err := masterchef.NewPairBinding(client, contract.PoolAddress(), pairABI)
	if err != nil {
		return err
	}

	endBlock := contract.EndBlock
	if endBlock == 0 {
		endBlock, err = client.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
	}

	scan := scanner.New(scanner.Config{
		EndBlock:   endBlock,
		WindowSize: contract.NBlocks,
		ChunkSize:  contract.ChunkSize,
	}, depositProvider{binding: binding}, log)

	record, err := scan.Scan(ctx)
	if err != nil {
		return err
	}

	enricher := enrich.New(binding, pair, enrich.Params{
		ChefAddress: contract.ContractAddress(),
		PoolAddress: contract.PoolAddress(),
		RefToken:    contract.Pool.RefToken,
		NormFactor:  contract.Pool.NormFactor,
		MinAmount:   contract.MinAmount,
	}, log)

	pool, err := enricher.PoolValuation(ctx)
	if err != nil {
		return err
	}

	positions, err := enricher.Positions(ctx, record)
	if err != nil {
		return err
	}

	rows, err := rank.Rank(ctx, positions, pool, codeReader{backend: client})
	if err != nil {
		return err
	}

	rep := report.Report{
		Chain:    contract.Blockchain,
		Contract: contract.Name,
		Columns:  model.Columns(),
		Rows:     rows,
	}
	for _, sink := range r.sinks {
		if err := sink.WriteReport(ctx, rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	log.Info("report written", zap.Int("holders", len(rows)))
	return nil
}

// depositProvider adapts the MasterChef binding to the scanner's interface.
type depositProvider struct {
	binding *masterchef.Binding
}

func (p depositProvider) FilterDeposits(ctx context.Context, fromBlock, toBlock uint64) ([]model.DepositEvent, error) {
	entries, err := p.binding.FilterDeposits(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	events := make([]model.DepositEvent, 0, len(entries))
	for _, entry := range entries {
		events = append(events, model.DepositEvent{
			User:        entry.User,
			Amount:      entry.Amount,
			BlockNumber: entry.BlockNumber,
		})
	}
	return events, nil
}

type codeReader struct {
	backend masterchef.Backend
}

func (c codeReader) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	return masterchef.IsContract(ctx, c.backend, addr)
}
