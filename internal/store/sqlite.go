package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/id"
	"github.com/llazzari/personal-finance/internal/model"
)

// record is the SQL row of a saved transaction.
type record struct {
	ID          uint   `gorm:"primaryKey"`
	Profile     string `gorm:"index:idx_profile_kind;not null"`
	Kind        string `gorm:"index:idx_profile_kind;not null"`
	Position    int    `gorm:"not null"`
	Year        int    `gorm:"not null"`
	Month       int    `gorm:"not null"`
	Amount      string `gorm:"not null"`
	Bank        string `gorm:"not null"`
	Category    *string
	Subcategory *string
	Recurrent   string `gorm:"not null"`
	Description string `gorm:"not null"`
}

func (record) TableName() string { return "transactions" }

// SQLStore keeps every profile's tables in one SQLite database.
type SQLStore struct {
	db   *gorm.DB
	path string
}

// OpenSQLStore opens (or creates) the database at path and makes sure the
// transactions table exists. Use ":memory:" for a throwaway database.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &errs.PersistenceError{Op: "open", Path: path, Err: err}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &errs.PersistenceError{Op: "open", Path: path, Err: err}
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, &errs.PersistenceError{Op: "open", Path: path, Err: err}
	}
	return &SQLStore{db: db, path: path}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql handle: %w", err)
	}
	return sqlDB.Close()
}

// Load reads the saved table in stored order, re-deriving ids from position.
func (s *SQLStore) Load(ctx context.Context, profile string, kind model.Kind) ([]model.Transaction, error) {
	if err := checkKey(profile, kind); err != nil {
		return nil, err
	}

	var rows []record
	err := s.db.WithContext(ctx).
		Where("profile = ? AND kind = ?", profile, string(kind)).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &errs.PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	txs := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, &errs.PersistenceError{
				Op:   "read",
				Path: s.path,
				Err:  fmt.Errorf("parsing amount %q: %w", r.Amount, err),
			}
		}
		txs = append(txs, model.Transaction{
			Year:        r.Year,
			Month:       r.Month,
			Amount:      amount,
			Bank:        r.Bank,
			Category:    r.Category,
			Subcategory: r.Subcategory,
			Recurrent:   model.Recurrence(r.Recurrent),
			Description: r.Description,
		})
	}
	id.Renumber(txs)
	SortByDate(txs)
	return txs, nil
}

// Save replaces every row of (profile, kind) inside one transaction.
func (s *SQLStore) Save(ctx context.Context, profile string, kind model.Kind, txs []model.Transaction) error {
	if err := checkKey(profile, kind); err != nil {
		return err
	}
	if verrs := ValidateRecords(txs); len(verrs) > 0 {
		return &errs.PersistenceError{Op: "validate", Path: s.path, Err: joinValidation(verrs)}
	}

	rows := make([]record, len(txs))
	for i, tx := range txs {
		rows[i] = record{
			Profile:     profile,
			Kind:        string(kind),
			Position:    i,
			Year:        tx.Year,
			Month:       tx.Month,
			Amount:      tx.Amount.StringFixed(2),
			Bank:        tx.Bank,
			Category:    model.StringPtr(model.Deref(tx.Category)),
			Subcategory: model.StringPtr(model.Deref(tx.Subcategory)),
			Recurrent:   string(tx.Recurrent),
			Description: tx.Description,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("profile = ? AND kind = ?", profile, string(kind)).Delete(&record{}).Error; err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := db.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("inserting rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return &errs.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
