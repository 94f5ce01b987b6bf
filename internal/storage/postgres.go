package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

// --- Retry Logic Configuration ---
const (
	connectInitialInterval = 1 * time.Second
	connectMaxInterval     = 15 * time.Second
	connectMaxElapsedTime  = 1 * time.Minute
)

// Resources the gateway is allowed to address. Resource names reach
// Table() directly, so anything outside this set is rejected.
var allowedResources = map[string]struct{}{
	gateway.ResourceOpportunities:       {},
	gateway.ResourceOpportunityProducts: {},
	gateway.ResourceContacts:            {},
	gateway.ResourceActivities:          {},
	gateway.ResourceSales:               {},
}

var filterFieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PostgresGateway implements gateway.DataGateway on a Postgres database.
type PostgresGateway struct {
	db *gorm.DB
}

// NewPostgresGateway connects to Postgres (with exponential backoff, the
// container may come up after us) and optionally migrates the schema.
func NewPostgresGateway(dsn string, autoMigrate bool) (*PostgresGateway, error) {
	operationConnect := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			if isTransientError(err) {
				logger.Log.Warn("Failed to connect to postgres (transient), retrying...", zap.Error(err))
				return nil, err
			}
			return nil, backoff.Permanent(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		return db, nil
	}

	notify := func(err error, d time.Duration) {
		logger.Log.Warn("Retrying DB connection", zap.Error(err), zap.Duration("after", d))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = connectInitialInterval
	b.MaxInterval = connectMaxInterval
	b.MaxElapsedTime = connectMaxElapsedTime

	db, err := backoff.RetryNotifyWithData(operationConnect, b, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after retries: %w", err)
	}

	if autoMigrate {
		logger.Log.Info("Running auto-migration for CRM tables")
		if err := db.AutoMigrate(
			&model.Opportunity{},
			&model.OpportunityProduct{},
			&model.Activity{},
			&model.Contact{},
			&model.Sale{},
		); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate schema: %w", err)
		}
	}

	return &PostgresGateway{db: db}, nil
}

// NewPostgresGatewayWithDB wraps an existing gorm handle (used by tests).
func NewPostgresGatewayWithDB(db *gorm.DB) *PostgresGateway {
	return &PostgresGateway{db: db}
}

// GetList returns one page of records matching the filter, plus the unpaged
// total.
func (g *PostgresGateway) GetList(ctx context.Context, resource string, params gateway.ListParams) (*gateway.ListResult, error) {
	if err := checkResource(resource); err != nil {
		return nil, err
	}

	tx := g.db.WithContext(ctx).Table(resource)
	tx, err := applyFilter(tx, params.Filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, apperrors.NewRetryable(err, "failed to count %s", resource)
	}

	if params.Sort.Field != "" {
		if !filterFieldPattern.MatchString(params.Sort.Field) {
			return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "invalid sort field %q", params.Sort.Field)
		}
		order := "ASC"
		if strings.EqualFold(params.Sort.Order, gateway.OrderDesc) {
			order = "DESC"
		}
		tx = tx.Order(params.Sort.Field + " " + order)
	}

	page := params.Pagination.Page
	perPage := params.Pagination.PerPage
	if page < 1 {
		page = 1
	}
	if perPage > 0 {
		tx = tx.Limit(perPage).Offset((page - 1) * perPage)
	}

	var rows []map[string]interface{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, apperrors.NewRetryable(err, "failed to list %s", resource)
	}

	data := make([]gateway.Record, 0, len(rows))
	for _, row := range rows {
		data = append(data, gateway.Record(row))
	}
	return &gateway.ListResult{Data: data, Total: total}, nil
}

// GetOne returns a single record by id.
func (g *PostgresGateway) GetOne(ctx context.Context, resource string, id string) (gateway.Record, error) {
	if err := checkResource(resource); err != nil {
		return nil, err
	}

	var row map[string]interface{}
	err := g.db.WithContext(ctx).Table(resource).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewFatal(apperrors.ErrNotFound, "%s %s not found", resource, id)
		}
		return nil, apperrors.NewRetryable(err, "failed to fetch %s %s", resource, id)
	}
	return gateway.Record(row), nil
}

// Create inserts a record, assigning an id and timestamps when absent.
func (g *PostgresGateway) Create(ctx context.Context, resource string, data gateway.Record) (gateway.Record, error) {
	if err := checkResource(resource); err != nil {
		return nil, err
	}

	row := map[string]interface{}(data)
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.NewString()
	}
	now := utils.Now()
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now
	}
	row["updated_at"] = now

	if err := g.db.WithContext(ctx).Table(resource).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewFatal(apperrors.ErrDuplicate, "duplicate key creating %s", resource)
		}
		return nil, apperrors.NewRetryable(err, "failed to create %s", resource)
	}

	return g.GetOne(ctx, resource, fmt.Sprint(row["id"]))
}

// Update applies a partial update. When the payload carries a version, the
// write is version-guarded and the counter is incremented; a stale version
// surfaces as ErrConflict.
func (g *PostgresGateway) Update(ctx context.Context, resource string, id string, data gateway.Record) (gateway.Record, error) {
	if err := checkResource(resource); err != nil {
		return nil, err
	}

	row := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		row[k] = v
	}
	delete(row, "id")
	row["updated_at"] = utils.Now()

	tx := g.db.WithContext(ctx).Table(resource).Where("id = ?", id)
	if v, ok := data["version"]; ok {
		tx = tx.Where("version = ?", v)
		row["version"] = gorm.Expr("version + 1")
	}

	res := tx.Updates(row)
	if res.Error != nil {
		return nil, apperrors.NewRetryable(res.Error, "failed to update %s %s", resource, id)
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or the version was stale.
		if _, err := g.GetOne(ctx, resource, id); err != nil {
			return nil, err
		}
		return nil, apperrors.NewFatal(apperrors.ErrConflict, "stale version updating %s %s", resource, id)
	}

	return g.GetOne(ctx, resource, id)
}

// Close closes the underlying database connection.
func (g *PostgresGateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func checkResource(resource string) error {
	if _, ok := allowedResources[resource]; !ok {
		return apperrors.NewFatal(apperrors.ErrBadRequest, "unknown resource %q", resource)
	}
	return nil
}

// applyFilter translates gateway filter keys into WHERE clauses. A bare key
// is equality; "field@lte" / "field@gte" / "field@neq" are range operators;
// "field@is" with a nil value matches IS NULL.
func applyFilter(tx *gorm.DB, filter map[string]interface{}) (*gorm.DB, error) {
	for key, value := range filter {
		field := key
		op := ""
		if idx := strings.Index(key, "@"); idx >= 0 {
			field = key[:idx]
			op = key[idx+1:]
		}
		if !filterFieldPattern.MatchString(field) {
			return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "invalid filter field %q", field)
		}

		switch op {
		case "":
			tx = tx.Where(field+" = ?", value)
		case gateway.OpLTE:
			tx = tx.Where(field+" <= ?", value)
		case gateway.OpGTE:
			tx = tx.Where(field+" >= ?", value)
		case gateway.OpNEQ:
			tx = tx.Where(field+" <> ?", value)
		case gateway.OpIs:
			if value == nil {
				tx = tx.Where(field + " IS NULL")
			} else {
				tx = tx.Where(field+" IS ?", value)
			}
		default:
			return nil, apperrors.NewFatal(apperrors.ErrBadRequest, "unknown filter operator %q", op)
		}
	}
	return tx, nil
}

// isTransientError checks if the error suggests a temporary issue like a
// network problem.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 (connection exceptions) and class 53 (insufficient
		// resources) are worth retrying, as are deadlocks and
		// serialization failures.
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "40P01",
			pgErr.Code == "40001":
			return true
		}
		return false
	}

	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"connection refused",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"connection reset by peer",
		"could not translate host name",
		"no route to host",
		"database system is starting up",
		"connection timed out",
		"connection reset",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
