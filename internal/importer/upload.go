package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/llazzari/personal-finance/internal/cleaner"
	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/frame"
	"github.com/llazzari/personal-finance/internal/logger"
	"github.com/llazzari/personal-finance/internal/model"
)

// Result is one ingested batch split into expenses and incomes.
type Result struct {
	BatchID  string
	Expenses []model.Transaction
	Incomes  []model.Transaction
}

// Rows returns the number of rows in both tables.
func (r *Result) Rows() int {
	return len(r.Expenses) + len(r.Incomes)
}

// DecodeContent extracts the payload of a "data:<mime>;base64,<payload>"
// upload.
func DecodeContent(content string) ([]byte, error) {
	_, payload, ok := strings.Cut(content, ",")
	if !ok {
		return nil, errors.New("malformed upload content: missing ','")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	return raw, nil
}

// Upload ingests base64 data URLs with profile p.
func Upload(ctx context.Context, p *BankProfile, contents []string) (*Result, error) {
	raws := make([][]byte, 0, len(contents))
	for i, c := range contents {
		raw, err := DecodeContent(c)
		if err != nil {
			return nil, &errs.ParseError{Bank: p.Name, Err: fmt.Errorf("file %d: %w", i+1, err)}
		}
		raws = append(raws, raw)
	}
	return Ingest(ctx, p, raws)
}

// IngestFiles ingests files from disk with profile p.
func IngestFiles(ctx context.Context, p *BankProfile, paths []string) (*Result, error) {
	raws := make([][]byte, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &errs.ParseError{Bank: p.Name, Err: fmt.Errorf("reading %s: %w", path, err)}
		}
		raws = append(raws, raw)
	}
	return Ingest(ctx, p, raws)
}

// Ingest runs every raw file through p, stacks the results and splits
// them into expenses and incomes. Either every file succeeds or nothing
// is returned.
func Ingest(ctx context.Context, p *BankProfile, raws [][]byte) (*Result, error) {
	batch := uuid.NewString()
	log := logger.FromContext(ctx).With().
		Str("batch_id", batch).
		Str("bank", p.Name).
		Str("context", string(p.Context)).
		Logger()

	res, err := ingest(p, raws)
	if err != nil {
		log.Error().Err(err).Msg("upload rejected")
		return nil, err
	}
	res.BatchID = batch
	log.Info().
		Int("files", len(raws)).
		Int("expenses", len(res.Expenses)).
		Int("incomes", len(res.Incomes)).
		Msg("upload parsed")
	return res, nil
}

func ingest(p *BankProfile, raws [][]byte) (*Result, error) {
	if len(raws) == 0 {
		return nil, &errs.ParseError{Bank: p.Name, Err: errors.New("no files uploaded")}
	}
	frames := make([]*frame.Frame, 0, len(raws))
	for i, raw := range raws {
		text, err := Decode(raw, p.Encoding())
		if err != nil {
			return nil, &errs.ParseError{Bank: p.Name, Err: fmt.Errorf("file %d: %w", i+1, err)}
		}
		f, err := p.Read(text)
		if err != nil {
			return nil, fmt.Errorf("reading file %d: %w", i+1, err)
		}
		f, err = p.Clean(f)
		if err != nil {
			return nil, fmt.Errorf("cleaning file %d: %w", i+1, err)
		}
		frames = append(frames, f)
	}
	all, err := frame.Concat(frames...)
	if err != nil {
		return nil, fmt.Errorf("stacking files: %w", err)
	}
	txs, err := cleaner.ToTransactions(all)
	if err != nil {
		return nil, withBank(err, p.Name)
	}
	return &Result{
		Expenses: cleaner.ExtractExpenses(txs),
		Incomes:  cleaner.ExtractIncomes(txs),
	}, nil
}
