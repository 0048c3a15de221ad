package scanner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"holderScope/internal/chain"
	"holderScope/internal/model"
)

// LogProvider fetches decoded Deposit entries for an inclusive block range.
// Provider-side failures that should trigger chunk shrinking must satisfy
// chain.IsRetryable.
type LogProvider interface {
	FilterDeposits(ctx context.Context, fromBlock, toBlock uint64) ([]model.DepositEvent, error)
}

// Config sets the scan window.
type Config struct {
	// EndBlock is the inclusive upper bound of the window.
	EndBlock uint64
	// WindowSize is the number of blocks to cover, counted backward from
	// EndBlock. Zero means nothing to scan.
	WindowSize uint64
	// ChunkSize is the base width of one log request. The effective width
	// shrinks on provider failure and resets after each successful chunk.
	ChunkSize uint64
}

// Scanner walks the window in descending order, one bounded chunk at a time.
// On a retryable provider error the chunk width halves (floor 1) and the same
// upper bound is retried; a width-1 failure is fatal. The walk is strictly
// sequential: retries must observe ordering, so there is no fan-out.
type Scanner struct {
	cfg      Config
	provider LogProvider
	logger   *zap.Logger
}

func New(cfg Config, provider LogProvider, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{cfg: cfg, provider: provider, logger: logger}
}

// Scan covers [EndBlock-WindowSize+1, EndBlock] and returns the accumulated
// first-write-wins deposit record. Because the walk is descending, the
// retained amount per address is its most recent deposit in the window.
func (s *Scanner) Scan(ctx context.Context) (*model.DepositRecord, error) {
	record := model.NewDepositRecord()
	if s.cfg.WindowSize == 0 {
		return record, nil
	}
	if s.provider == nil {
		return nil, fmt.Errorf("log provider is nil")
	}

	end := s.cfg.EndBlock
	var lowest uint64
	if s.cfg.WindowSize <= end {
		lowest = end - s.cfg.WindowSize + 1
	}

	width := s.cfg.ChunkSize
	if width == 0 {
		width = 1
	}

	to := end
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		from := lowest
		if to >= lowest+width {
			from = to - width + 1
		}

		s.logger.Debug("fetch chunk",
			zap.Uint64("from", from),
			zap.Uint64("to", to),
			zap.Uint64("width", width),
		)

		entries, err := s.provider.FilterDeposits(ctx, from, to)
		if err != nil {
			if !chain.IsRetryable(err) {
				return nil, fmt.Errorf("filter deposits [%d, %d]: %w", from, to, err)
			}
			if width == 1 {
				return nil, fmt.Errorf("provider unreachable: chunk [%d, %d] failed at width 1: %w", from, to, err)
			}
			width /= 2
			s.logger.Warn("chunk failed, shrinking width",
				zap.Uint64("from", from),
				zap.Uint64("to", to),
				zap.Uint64("next_width", width),
				zap.Error(err),
			)
			continue
		}

		for _, entry := range entries {
			record.Put(entry.User, entry.Amount)
		}

		if from <= lowest {
			break
		}
		to = from - 1
		width = s.cfg.ChunkSize
	}

	s.logger.Info("scan complete",
		zap.Uint64("from", lowest),
		zap.Uint64("to", end),
		zap.Int("depositors", record.Len()),
	)
	return record, nil
}
