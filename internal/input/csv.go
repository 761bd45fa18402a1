// Package input loads operation lists from external sources.
//
// The only supported source is a CSV inventory with a vm_name,action
// header. Invalid rows are skipped with a warning rather than failing the
// whole load; the run proceeds with whatever valid operations were parsed.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/util"
)

// Column names the CSV header must contain, in any order
const (
	columnTarget = "vm_name"
	columnAction = "action"
)

// LoadResult is the outcome of loading an operation source
type LoadResult struct {
	// Operations are the valid operations, in file order
	Operations []executor.Operation

	// Skipped is the number of rows rejected by validation
	Skipped int
}

// LoadCSV reads operations from the CSV file at path
func LoadCSV(path string, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open operations file: %w", err)
	}
	defer f.Close()

	result, err := Load(f, logger)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	logger.Info("operations loaded", "file", path, "operations", len(result.Operations), "skipped", result.Skipped)
	return result, nil
}

// Load reads operations from r. The first record must be a header
// containing the vm_name and action columns. Rows that fail validation
// are logged with their line number and skipped.
func Load(r io.Reader, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input, expected %s,%s header", util.ErrValidation, columnTarget, columnAction)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", util.ErrValidation, err)
	}

	targetIdx, actionIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case columnTarget:
			targetIdx = i
		case columnAction:
			actionIdx = i
		}
	}
	if targetIdx == -1 || actionIdx == -1 {
		return nil, fmt.Errorf("%w: header must contain %q and %q columns, got %v",
			util.ErrValidation, columnTarget, columnAction, header)
	}

	result := &LoadResult{Operations: make([]executor.Operation, 0)}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row is skipped like an invalid one
			logger.Warn("skipping malformed row", "line", line, "error", err)
			result.Skipped++
			continue
		}

		if targetIdx >= len(record) || actionIdx >= len(record) {
			logger.Warn("skipping short row", "line", line, "fields", len(record))
			result.Skipped++
			continue
		}

		op, err := executor.NewOperation(record[targetIdx], record[actionIdx])
		if err != nil {
			logger.Warn("skipping invalid row", "line", line, "error", err)
			result.Skipped++
			continue
		}

		result.Operations = append(result.Operations, op)
	}

	return result, nil
}
