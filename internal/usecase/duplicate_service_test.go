package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
	gatewaymock "gitlab.com/timkado/api/daisi-crm-validation/internal/gateway/mock"
)

func candidateListParams(principal, customer string) gateway.ListParams {
	return gateway.ListParams{
		Filter: map[string]interface{}{
			"principal_organization_id": principal,
			"customer_organization_id":  customer,
			"deleted_at@is":             nil,
		},
		Pagination: gateway.Pagination{Page: 1, PerPage: 100},
		Sort:       gateway.Sort{Field: "created_at", Order: gateway.OrderDesc},
	}
}

func junctionListParams(opportunityID, productID string) gateway.ListParams {
	return gateway.ListParams{
		Filter: map[string]interface{}{
			"opportunity_id": opportunityID,
			"product_id":     productID,
			"deleted_at@is":  nil,
		},
		Pagination: gateway.Pagination{Page: 1, PerPage: 1},
		Sort:       gateway.Sort{Field: "id", Order: gateway.OrderAsc},
	}
}

func TestCheckExactDuplicateNoCandidates(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities,
		candidateListParams("principal-1", "customer-1")).
		Return(&gateway.ListResult{Data: []gateway.Record{}, Total: 0}, nil).Once()

	result, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
	})

	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	gw.AssertExpectations(t)
}

func TestCheckExactDuplicateDifferentProduct(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities,
		candidateListParams("principal-1", "customer-1")).
		Return(&gateway.ListResult{
			Data: []gateway.Record{{
				"id":    "opp-existing",
				"name":  "Existing Opportunity",
				"stage": "new_lead",
			}},
			Total: 1,
		}, nil).Once()
	gw.On("GetList", mock.Anything, gateway.ResourceOpportunityProducts,
		junctionListParams("opp-existing", "product-different")).
		Return(&gateway.ListResult{Data: []gateway.Record{}, Total: 0}, nil).Once()

	result, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-different",
	})

	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	gw.AssertExpectations(t)
}

func TestCheckExactDuplicateExactMatch(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{
			Data: []gateway.Record{{
				"id":    "opp-123",
				"name":  "McCRUM - Sysco - Chicago",
				"stage": "sample_visit_offered",
			}},
			Total: 1,
		}, nil).Once()
	gw.On("GetList", mock.Anything, gateway.ResourceOpportunityProducts, mock.Anything).
		Return(&gateway.ListResult{
			Data:  []gateway.Record{{"id": "op-1", "opportunity_id": "opp-123", "product_id": "product-1"}},
			Total: 1,
		}, nil).Once()

	_, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
	})

	require.Error(t, err)
	dup, ok := apperrors.AsDuplicateOpportunityError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.DuplicateOpportunityCode, dup.Code)
	assert.Equal(t, "opp-123", dup.Existing.ID)
	assert.Equal(t, "McCRUM - Sysco - Chicago", dup.Existing.Name)
	assert.Equal(t, "sample_visit_offered", dup.Existing.Stage)
	assert.Contains(t, err.Error(), "Duplicate opportunity detected")
	assert.Contains(t, err.Error(), `"McCRUM - Sysco - Chicago" (ID: opp-123, Stage: sample_visit_offered)`)
	gw.AssertExpectations(t)
}

func TestCheckExactDuplicateExcludesSelf(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	// The only candidate is the record being updated, so the junction
	// table must not be probed at all.
	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{
			Data: []gateway.Record{{
				"id":    "opp-current",
				"name":  "Current Opportunity",
				"stage": "new_lead",
			}},
			Total: 1,
		}, nil).Once()

	result, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
		ExcludeID:   "opp-current",
	})

	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	gw.AssertNumberOfCalls(t, "GetList", 1)
}

func TestCheckExactDuplicateStillDetectsOthers(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{
			Data: []gateway.Record{
				{"id": "opp-current", "name": "Current Opportunity", "stage": "new_lead"},
				{"id": "opp-other", "name": "Other Opportunity", "stage": "closed_won"},
			},
			Total: 2,
		}, nil).Once()
	gw.On("GetList", mock.Anything, gateway.ResourceOpportunityProducts,
		junctionListParams("opp-other", "product-1")).
		Return(&gateway.ListResult{
			Data:  []gateway.Record{{"id": "op-1", "opportunity_id": "opp-other", "product_id": "product-1"}},
			Total: 1,
		}, nil).Once()

	_, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
		ExcludeID:   "opp-current",
	})

	require.Error(t, err)
	dup, ok := apperrors.AsDuplicateOpportunityError(err)
	require.True(t, ok)
	assert.Equal(t, "opp-other", dup.Existing.ID)
	gw.AssertExpectations(t)
}

func TestCheckExactDuplicateGatewayFailurePropagates(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	_, err := svc.CheckExactDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
	})

	require.Error(t, err)
	_, isDup := apperrors.AsDuplicateOpportunityError(err)
	assert.False(t, isDup)
	assert.False(t, apperrors.IsValidationError(err))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestValidateNoDuplicateFormatsFieldError(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{
			Data:  []gateway.Record{{"id": "opp-existing", "name": "Existing Deal", "stage": "new_lead"}},
			Total: 1,
		}, nil).Once()
	gw.On("GetList", mock.Anything, gateway.ResourceOpportunityProducts, mock.Anything).
		Return(&gateway.ListResult{
			Data:  []gateway.Record{{"id": "op-1"}},
			Total: 1,
		}, nil).Once()

	err := svc.ValidateNoDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
	})

	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Validation failed", verr.Message)
	assert.Contains(t, verr.Errors["product_id"], "Duplicate opportunity detected")
}

func TestValidateNoDuplicateCleanPath(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := NewDuplicateService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{Data: []gateway.Record{}, Total: 0}, nil).Once()

	err := svc.ValidateNoDuplicate(context.Background(), DuplicateCheckParams{
		PrincipalID: "principal-1",
		CustomerID:  "customer-1",
		ProductID:   "product-1",
	})
	assert.NoError(t, err)
}
