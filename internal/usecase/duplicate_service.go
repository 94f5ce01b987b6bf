package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
)

const (
	// candidateCap bounds the first query: at most 100 candidate
	// opportunities are examined per check.
	candidateCap = 100
)

// DuplicateCheckParams identifies the (principal, customer, product) triple
// to test. ExcludeID removes the opportunity being updated from the
// candidate set so a record never conflicts with itself.
type DuplicateCheckParams struct {
	PrincipalID string
	CustomerID  string
	ProductID   string
	ExcludeID   string
}

// DuplicateCheckResult reports the negative outcome. The positive outcome is
// an error, so a caller can never create the duplicate by ignoring a flag.
type DuplicateCheckResult struct {
	IsDuplicate bool
}

// DuplicateService detects semantically-duplicate opportunities before they
// are written: an existing non-deleted opportunity with the same principal,
// customer and linked product.
type DuplicateService struct {
	gw gateway.DataGateway
}

// NewDuplicateService creates a duplicate detection service on the given
// gateway.
func NewDuplicateService(gw gateway.DataGateway) *DuplicateService {
	return &DuplicateService{gw: gw}
}

// CheckExactDuplicate runs the sequential gateway protocol: list candidate
// opportunities matching principal+customer (newest first, capped), then
// probe each candidate's product-junction rows for the product. The first
// candidate with a matching junction row fails the check with a
// DuplicateOpportunityError. Queries are deliberately sequential so the
// early exit reports the newest duplicate when several exist.
func (s *DuplicateService) CheckExactDuplicate(ctx context.Context, params DuplicateCheckParams) (*DuplicateCheckResult, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	defer func() { observer.ObserveDuplicateCheckDuration(time.Since(start)) }()

	candidates, err := s.gw.GetList(ctx, gateway.ResourceOpportunities, gateway.ListParams{
		Filter: map[string]interface{}{
			"principal_organization_id": params.PrincipalID,
			"customer_organization_id":  params.CustomerID,
			"deleted_at@is":             nil,
		},
		Pagination: gateway.Pagination{Page: 1, PerPage: candidateCap},
		Sort:       gateway.Sort{Field: "created_at", Order: gateway.OrderDesc},
	})
	if err != nil {
		return nil, apperrors.NewRetryable(err, "duplicate check: failed to list candidate opportunities")
	}

	if len(candidates.Data) == 0 {
		return &DuplicateCheckResult{IsDuplicate: false}, nil
	}

	for _, candidate := range candidates.Data {
		id := candidate.GetString("id")
		if params.ExcludeID != "" && id == params.ExcludeID {
			continue
		}

		junctions, err := s.gw.GetList(ctx, gateway.ResourceOpportunityProducts, gateway.ListParams{
			Filter: map[string]interface{}{
				"opportunity_id": id,
				"product_id":     params.ProductID,
				"deleted_at@is":  nil,
			},
			Pagination: gateway.Pagination{Page: 1, PerPage: 1},
			Sort:       gateway.Sort{Field: "id", Order: gateway.OrderAsc},
		})
		if err != nil {
			return nil, apperrors.NewRetryable(err, "duplicate check: failed to probe products for opportunity %s", id)
		}

		if len(junctions.Data) > 0 {
			name := candidate.GetString("name")
			stage := candidate.GetString("stage")
			log.Info("Duplicate opportunity detected",
				zap.String("existing_id", id),
				zap.String("existing_stage", stage),
				zap.String("product_id", params.ProductID))
			observer.IncDuplicateConflict()
			return nil, apperrors.NewDuplicateOpportunity(id, name, stage)
		}
	}

	return &DuplicateCheckResult{IsDuplicate: false}, nil
}

// ValidateNoDuplicate wraps CheckExactDuplicate for the validation boundary:
// a duplicate conflict is reported in the structured field-error shape keyed
// on the product field, while gateway failures propagate unchanged.
func (s *DuplicateService) ValidateNoDuplicate(ctx context.Context, params DuplicateCheckParams) error {
	_, err := s.CheckExactDuplicate(ctx, params)
	if err == nil {
		return nil
	}
	if dup, ok := apperrors.AsDuplicateOpportunityError(err); ok {
		return apperrors.NewValidation(map[string]string{
			"product_id": dup.Error(),
		})
	}
	return err
}
