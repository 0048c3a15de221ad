package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVWriter writes one <contract>.csv per report into a directory.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	if dir == "" {
		dir = "."
	}
	return &CSVWriter{dir: dir}
}

func (w *CSVWriter) WriteReport(_ context.Context, rep Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, rep.Contract+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	out := csv.NewWriter(file)
	if err := out.Write(rep.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rep.Rows {
		record := []string{
			row.Address,
			strconv.FormatFloat(row.AmountPct, 'f', 2, 64),
			row.BalanceUSD,
			strconv.FormatBool(row.IsContract),
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
