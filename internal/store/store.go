// Package store persists the canonical transaction table of each profile.
package store

import (
	"context"

	"github.com/llazzari/personal-finance/internal/model"
)

// Store loads and replaces the saved table of a (profile, kind) pair.
//
// Save replaces the whole table: callers pass every row, not a delta. Saving
// an empty table removes it. Failures are reported as *errs.PersistenceError
// and leave the previously saved rows untouched.
type Store interface {
	Load(ctx context.Context, profile string, kind model.Kind) ([]model.Transaction, error)
	Save(ctx context.Context, profile string, kind model.Kind, txs []model.Transaction) error
}
