// Package app wires configuration, the bank registry, the categorizer and
// the table store into the operations the CLI and the HTTP API expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/llazzari/personal-finance/internal/auditlog"
	"github.com/llazzari/personal-finance/internal/categorize"
	"github.com/llazzari/personal-finance/internal/config"
	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/id"
	"github.com/llazzari/personal-finance/internal/importer"
	"github.com/llazzari/personal-finance/internal/logger"
	"github.com/llazzari/personal-finance/internal/metrics"
	"github.com/llazzari/personal-finance/internal/ml"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
	"github.com/llazzari/personal-finance/internal/source"
	"github.com/llazzari/personal-finance/internal/store"
	"github.com/llazzari/personal-finance/internal/taxonomy"
)

var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrUnknownBank    = errors.New("unknown bank")
	ErrUnknownKind    = errors.New("unknown table kind")
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config      *config.Config
	Registry    *importer.Registry
	Taxonomy    *taxonomy.Taxonomy
	Store       store.Store
	Categorizer *categorize.Categorizer
	Metrics     *metrics.Metrics
	Audit       *auditlog.Log
	Log         zerolog.Logger

	close func() error

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an App from cfg. Metrics are registered on reg when it is not
// nil.
func New(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*App, error) {
	tax, err := LoadTaxonomy(cfg)
	if err != nil {
		return nil, err
	}

	st, closeStore, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	n := normalize.New()
	models := ml.NewModels(map[ml.Task]ml.Paths{
		ml.TaskSubcategory: {
			Vectorizer: cfg.ModelPath(cfg.Models.Subcategory.Vectorizer),
			Classifier: cfg.ModelPath(cfg.Models.Subcategory.Classifier),
		},
		ml.TaskIncome: {
			Vectorizer: cfg.ModelPath(cfg.Models.Income.Vectorizer),
			Classifier: cfg.ModelPath(cfg.Models.Income.Classifier),
		},
	})

	return &App{
		Config:   cfg,
		Registry: importer.DefaultRegistry(n),
		Taxonomy: tax,
		Store:    st,
		Categorizer: &categorize.Categorizer{
			Rules:         categorize.NewRules(tax),
			Subcategories: models.Predictor(ml.TaskSubcategory),
			Incomes:       models.Predictor(ml.TaskIncome),
			Normalizer:    n,
			Observe: func(task ml.Task, rows int) {
				m.Predictions(string(task), rows)
			},
		},
		Metrics: m,
		Audit:   auditlog.New(cfg.DataDir),
		Log:     log,
		close:   closeStore,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// LoadTaxonomy returns the configured taxonomy with display labels for the
// configured locale attached.
func LoadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	tax := taxonomy.Default()
	if cfg.Taxonomy.Path != "" {
		t, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return nil, err
		}
		tax = t
	}

	var (
		labels *taxonomy.Labels
		err    error
	)
	if cfg.Taxonomy.LabelsPath != "" {
		labels, err = taxonomy.LoadLabels(cfg.Locale, cfg.Taxonomy.LabelsPath)
	} else {
		labels, err = taxonomy.DefaultLabels(cfg.Locale)
	}
	if err != nil {
		return nil, err
	}
	return tax.WithLabels(labels), nil
}

// OpenStore opens the configured table store and returns its closer.
func OpenStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := store.OpenSQLStore(cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "csv", "":
		return store.NewFileStore(cfg.DataDir), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ParseKind converts a table kind name.
func ParseKind(s string) (model.Kind, error) {
	k := model.Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (a *App) checkProfile(profile string) error {
	if !a.Config.HasProfile(profile) {
		return fmt.Errorf("%w %q", ErrUnknownProfile, profile)
	}
	return nil
}

// UploadRequest describes one batch of statement exports.
type UploadRequest struct {
	Profile  string           `validate:"required"`
	Context  importer.Context `validate:"required,oneof=statement credit_card"`
	Bank     string           `validate:"required"`
	Contents []string         `validate:"required_without=Files"` // base64 data URLs
	Files    []string         `validate:"required_without=Contents"`
	Save     bool
}

var validate = validator.New()

// Upload runs the bank pipeline over the request's files and numbers the
// rows above the profile's saved tables. With Save set the rows are
// appended to those tables.
func (a *App) Upload(ctx context.Context, req UploadRequest) (*importer.Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}
	if err := a.checkProfile(req.Profile); err != nil {
		return nil, err
	}
	p := a.Registry.Get(req.Context, req.Bank)
	if p == nil {
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownBank, req.Bank, req.Context)
	}

	ctx = logger.WithContext(ctx, a.Log.With().Str("profile", req.Profile).Logger())
	start := time.Now()
	var (
		res *importer.Result
		err error
	)
	if len(req.Contents) > 0 {
		res, err = importer.Upload(ctx, p, req.Contents)
	} else {
		res, err = importer.IngestFiles(ctx, p, req.Files)
	}
	a.Metrics.ObservePipeline(p.Name, start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errs.IsUploadRejection(err) {
			outcome = metrics.OutcomeRejected
		}
		a.Metrics.Upload(p.Name, string(p.Context), outcome)
		a.audit(auditlog.Entry{Action: auditlog.ActionReject, Profile: req.Profile, Bank: p.Name, Context: string(p.Context)})
		return nil, err
	}
	a.Metrics.Upload(p.Name, string(p.Context), metrics.OutcomeOK)
	a.Metrics.RowsIngested(string(model.KindExpense), len(res.Expenses))
	a.Metrics.RowsIngested(string(model.KindIncome), len(res.Incomes))

	if req.Save {
		unlock := a.lockProfile(req.Profile)
		defer unlock()
	}

	kinds := []model.Kind{model.KindExpense, model.KindIncome}
	fresh := map[model.Kind]*[]model.Transaction{
		model.KindExpense: &res.Expenses,
		model.KindIncome:  &res.Incomes,
	}
	existing := make(map[model.Kind][]model.Transaction, len(kinds))
	for _, kind := range kinds {
		rows, err := a.Store.Load(ctx, req.Profile, kind)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", kind, err)
		}
		existing[kind] = rows
		*fresh[kind] = id.Assign(rows, *fresh[kind])
	}
	if req.Save {
		if err := a.saveBatch(ctx, req.Profile, kinds, existing, fresh); err != nil {
			return nil, err
		}
	}

	a.audit(auditlog.Entry{
		Action:  auditlog.ActionUpload,
		Profile: req.Profile,
		Bank:    p.Name,
		Context: string(p.Context),
		Rows:    res.Rows(),
		BatchID: res.BatchID,
	})
	return res, nil
}

// saveBatch appends the fresh rows of every kind to its saved table. Both
// merged tables are validated before either is written, and a failed write
// restores the tables already replaced.
func (a *App) saveBatch(ctx context.Context, profile string, kinds []model.Kind, existing map[model.Kind][]model.Transaction, fresh map[model.Kind]*[]model.Transaction) error {
	merged := make(map[model.Kind][]model.Transaction, len(kinds))
	for _, kind := range kinds {
		if len(*fresh[kind]) == 0 {
			continue
		}
		rows := append(slices.Clip(existing[kind]), *fresh[kind]...)
		if err := store.Validate(rows); err != nil {
			a.Metrics.Save(metrics.OutcomeError)
			a.Log.Error().Err(err).Str("profile", profile).Str("kind", string(kind)).Msg("save failed")
			return &errs.PersistenceError{Op: "validate", Path: profile + "/" + string(kind), Err: err}
		}
		merged[kind] = rows
	}

	var written []model.Kind
	for _, kind := range kinds {
		rows, ok := merged[kind]
		if !ok {
			continue
		}
		if err := a.save(ctx, profile, kind, rows); err != nil {
			for _, done := range written {
				if rerr := a.Store.Save(ctx, profile, done, existing[done]); rerr != nil {
					a.Log.Error().Err(rerr).Str("profile", profile).Str("kind", string(done)).Msg("restoring table failed")
				}
			}
			return err
		}
		written = append(written, kind)
	}
	return nil
}

// lockProfile serializes load-modify-save sequences on the tables of one
// profile.
func (a *App) lockProfile(profile string) func() {
	a.mu.Lock()
	if a.locks == nil {
		a.locks = make(map[string]*sync.Mutex)
	}
	l, ok := a.locks[profile]
	if !ok {
		l = &sync.Mutex{}
		a.locks[profile] = l
	}
	a.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CategorizeRows labels the uncategorized rows of a table of the given
// kind. updated is false when there was nothing to do; rows are then
// returned as given.
func (a *App) CategorizeRows(kind model.Kind, rows []model.Transaction) (out []model.Transaction, updated bool, err error) {
	switch kind {
	case model.KindExpense:
		out, err = a.Categorizer.Categorize(rows)
	case model.KindIncome:
		out, err = a.Categorizer.CategorizeIncomes(rows)
	default:
		return nil, false, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	if errs.IsNoOp(err) {
		a.Log.Info().Str("kind", string(kind)).Msg(err.Error())
		return rows, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Categorize labels the saved table of profile and saves it back.
func (a *App) Categorize(ctx context.Context, profile string, kind model.Kind) ([]model.Transaction, bool, error) {
	if err := a.checkProfile(profile); err != nil {
		return nil, false, err
	}
	unlock := a.lockProfile(profile)
	defer unlock()

	rows, err := a.Table(ctx, profile, kind)
	if err != nil {
		return nil, false, err
	}
	out, updated, err := a.CategorizeRows(kind, rows)
	if err != nil || !updated {
		return out, updated, err
	}
	if err := a.save(ctx, profile, kind, out); err != nil {
		return nil, false, err
	}
	a.audit(auditlog.Entry{Action: auditlog.ActionCategorize, Profile: profile, Context: string(kind), Rows: len(out)})
	return out, true, nil
}

// Table loads the saved table of profile.
func (a *App) Table(ctx context.Context, profile string, kind model.Kind) ([]model.Transaction, error) {
	if err := a.checkProfile(profile); err != nil {
		return nil, err
	}
	return a.Store.Load(ctx, profile, kind)
}

// SaveTable replaces the saved table of profile with rows after rederiving
// each row's category from its subcategory.
func (a *App) SaveTable(ctx context.Context, profile string, kind model.Kind, rows []model.Transaction) error {
	if err := a.checkProfile(profile); err != nil {
		return err
	}
	if kind == model.KindExpense {
		rows = a.Categorizer.Recategorize(rows)
	} else {
		out := make([]model.Transaction, len(rows))
		for i, tx := range rows {
			out[i] = a.Categorizer.Rules.ApplyIncome(tx)
		}
		rows = out
	}
	unlock := a.lockProfile(profile)
	defer unlock()
	return a.save(ctx, profile, kind, rows)
}

func (a *App) save(ctx context.Context, profile string, kind model.Kind, rows []model.Transaction) error {
	if err := a.Store.Save(ctx, profile, kind, rows); err != nil {
		a.Metrics.Save(metrics.OutcomeError)
		a.Log.Error().Err(err).Str("profile", profile).Str("kind", string(kind)).Msg("save failed")
		return err
	}
	a.Metrics.Save(metrics.OutcomeOK)
	a.audit(auditlog.Entry{Action: auditlog.ActionSave, Profile: profile, Context: string(kind), Rows: len(rows)})
	return nil
}

// Source snapshots both saved tables of profile for aggregation.
func (a *App) Source(ctx context.Context, profile string) (*source.Source, error) {
	expenses, err := a.Table(ctx, profile, model.KindExpense)
	if err != nil {
		return nil, err
	}
	incomes, err := a.Table(ctx, profile, model.KindIncome)
	if err != nil {
		return nil, err
	}
	return source.Combine(
		source.New(a.Taxonomy, model.KindExpense, expenses),
		source.New(a.Taxonomy, model.KindIncome, incomes),
	), nil
}

func (a *App) audit(e auditlog.Entry) {
	if a.Audit == nil {
		return
	}
	if err := a.Audit.Append(e); err != nil {
		a.Log.Warn().Err(err).Msg("failed to write ingest log")
	}
}
