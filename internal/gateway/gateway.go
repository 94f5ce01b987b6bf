package gateway

import (
	"context"
	"strconv"
)

// Resource names served by the gateway.
const (
	ResourceOpportunities       = "opportunities"
	ResourceOpportunityProducts = "opportunity_products"
	ResourceContacts            = "contacts"
	ResourceActivities          = "activities"
	ResourceSales               = "sales"
)

// Filter operators are suffixed onto field names with '@', e.g.
// "due_date@lte" or "deleted_at@is". A bare field name means equality.
const (
	OpLTE = "lte"
	OpGTE = "gte"
	OpNEQ = "neq"
	OpIs  = "is"
)

// Sort orders.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// Record is one row returned by the gateway.
type Record map[string]interface{}

// GetString returns the named field as a string, tolerating numeric ids.
func (r Record) GetString(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; ids are integral.
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Pagination selects one page of results.
type Pagination struct {
	Page    int
	PerPage int
}

// Sort orders results by one field.
type Sort struct {
	Field string
	Order string
}

// ListParams carries filtering, pagination and sorting for GetList.
// Filter keys support equality ("stage") and suffixed range operators
// ("created_at@gte", "deleted_at@is" with a nil value).
type ListParams struct {
	Filter     map[string]interface{}
	Pagination Pagination
	Sort       Sort
}

// ListResult is one page of records plus the unpaged total.
type ListResult struct {
	Data  []Record
	Total int64
}

// DataGateway is the generic list/get/create/update collaborator backed by
// the external relational store. The validation core treats it as an
// injected dependency; transport detail lives behind it.
type DataGateway interface {
	GetList(ctx context.Context, resource string, params ListParams) (*ListResult, error)
	GetOne(ctx context.Context, resource string, id string) (Record, error)
	Create(ctx context.Context, resource string, data Record) (Record, error)
	Update(ctx context.Context, resource string, id string, data Record) (Record, error)
}
