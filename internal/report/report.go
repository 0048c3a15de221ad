package report

import (
	"context"

	"holderScope/internal/model"
)

// Report is the finished, ordered row set for one contract.
type Report struct {
	Chain    string
	Contract string
	Columns  []string
	Rows     []model.HolderRow
}

// Sink renders a report to a durable destination.
type Sink interface {
	WriteReport(ctx context.Context, rep Report) error
}
