package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/config"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validation"
)

// ImportRowResult is the validation outcome of one import row. Errors are
// keyed by field path, same shape as the single-record entry points.
type ImportRowResult struct {
	Row    int               `json:"row"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ImportReport summarizes one batch.
type ImportReport struct {
	Total   int               `json:"total"`
	Invalid int               `json:"invalid"`
	Rows    []ImportRowResult `json:"rows"`
}

// importTask carries one row through the pool.
type importTask struct {
	index   int
	payload interface{}
	results []ImportRowResult
	wg      *sync.WaitGroup
}

// IImportWorker defines the interface for the contact-import validator.
type IImportWorker interface {
	ValidateContacts(ctx context.Context, rows []interface{}) (*ImportReport, error)
	Stop()
}

// ImportWorker validates CSV-import contact batches on a bounded worker
// pool. Each row runs the same create-contact schema as the form path, so
// an import can never smuggle in a record the form would reject.
type ImportWorker struct {
	pool       *ants.PoolWithFunc
	cfg        config.ImportWorkerPoolConfig
	baseLogger *zap.Logger
}

var _ IImportWorker = (*ImportWorker)(nil)

// NewImportWorker creates and initializes the import validation pool.
func NewImportWorker(cfg config.ImportWorkerPoolConfig, baseLogger *zap.Logger) (*ImportWorker, error) {
	worker := &ImportWorker{
		cfg:        cfg,
		baseLogger: baseLogger.Named("import_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		task, ok := i.(importTask)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processRow(task)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in import worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create import worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Import worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("max_rows", cfg.MaxRows),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return worker, nil
}

// ValidateContacts validates every row of a batch and returns a report in
// the original row order. Row validation is independent, so rows fan out
// across the pool; the report is assembled positionally.
func (w *ImportWorker) ValidateContacts(ctx context.Context, rows []interface{}) (*ImportReport, error) {
	if len(rows) > w.cfg.MaxRows {
		return nil, apperrors.NewFatal(apperrors.ErrBadRequest,
			"import batch of %d rows exceeds the %d row limit", len(rows), w.cfg.MaxRows)
	}

	results := make([]ImportRowResult, len(rows))
	var wg sync.WaitGroup

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		task := importTask{index: i, payload: row, results: results, wg: &wg}
		observer.SetImportQueueLength(w.pool.Waiting())
		if err := w.pool.Invoke(task); err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolOverload) {
				return nil, fmt.Errorf("import pool overload: %w", err)
			}
			return nil, fmt.Errorf("failed to invoke import task: %w", err)
		}
	}
	wg.Wait()

	report := &ImportReport{Total: len(rows), Rows: results}
	for _, r := range results {
		if !r.Valid {
			report.Invalid++
		}
	}
	observer.IncImportRows("valid", report.Total-report.Invalid)
	observer.IncImportRows("invalid", report.Invalid)

	w.baseLogger.Info("Import batch validated",
		zap.Int("total", report.Total),
		zap.Int("invalid", report.Invalid))
	return report, nil
}

// processRow validates one row and writes its slot in the shared results
// slice. Slots are disjoint per task, so no locking is needed.
func (w *ImportWorker) processRow(task importTask) {
	defer task.wg.Done()

	result := ImportRowResult{Row: task.index, Valid: true}
	if err := validation.ValidateCreateContact(task.payload); err != nil {
		result.Valid = false
		if verr, ok := apperrors.AsValidationError(err); ok {
			result.Errors = verr.Errors
		} else {
			result.Errors = map[string]string{"_row": err.Error()}
		}
	}
	task.results[task.index] = result
}

// Stop releases the worker pool.
func (w *ImportWorker) Stop() {
	w.baseLogger.Info("Stopping import worker pool")
	w.pool.Release()
}
