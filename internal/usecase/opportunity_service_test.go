package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
	gatewaymock "gitlab.com/timkado/api/daisi-crm-validation/internal/gateway/mock"
)

func validCreatePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":                      "Sysco - Chicago Expansion",
		"stage":                     "new_lead",
		"priority":                  "high",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
		"contact_ids":               []int{1, 2, 3},
	}
}

func newOpportunityService(gw *gatewaymock.DataGatewayMock) *OpportunityService {
	return NewOpportunityService(gw, NewDuplicateService(gw))
}

func TestOpportunityCreateHappyPath(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	gw.On("Create", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(gateway.Record{"id": "opp-new", "name": "Sysco - Chicago Expansion"}, nil).Once()

	created, err := svc.Create(context.Background(), validCreatePayload())

	require.NoError(t, err)
	assert.Equal(t, "opp-new", created.GetString("id"))

	// The default estimated close date must reach the gateway.
	call := gw.Calls[0]
	rec := call.Arguments.Get(2).(gateway.Record)
	assert.Contains(t, rec, "estimated_close_date")
	assert.Equal(t, "new_lead", rec["stage"])
	gw.AssertExpectations(t)
}

func TestOpportunityCreateInvalidPayload(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	payload := validCreatePayload()
	delete(payload, "name")
	payload["contact_ids"] = []int{}

	_, err := svc.Create(context.Background(), payload)

	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Opportunity name is required", verr.Errors["name"])
	assert.Equal(t, "At least one contact is required", verr.Errors["contact_ids"])
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpportunityCreateBlockedByDuplicate(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	payload := validCreatePayload()
	payload["products_to_sync"] = []map[string]interface{}{
		{"product_id_reference": "product-1"},
	}

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

	_, err := svc.Create(context.Background(), payload)

	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Errors["product_id"], "Duplicate opportunity detected")
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpportunityCreateSyncsProducts(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	payload := validCreatePayload()
	payload["products_to_sync"] = []map[string]interface{}{
		{"product_id_reference": "product-1", "notes": "intro pack"},
	}

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{Data: []gateway.Record{}, Total: 0}, nil).Once()
	gw.On("Create", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(gateway.Record{"id": "opp-new"}, nil).Once()
	gw.On("Create", mock.Anything, gateway.ResourceOpportunityProducts, gateway.Record{
		"opportunity_id": "opp-new",
		"product_id":     "product-1",
		"notes":          "intro pack",
	}).Return(gateway.Record{"id": "junction-1"}, nil).Once()

	_, err := svc.Create(context.Background(), payload)

	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestOpportunityUpdateStageOnly(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	gw.On("Update", mock.Anything, gateway.ResourceOpportunities, "opp-1", gateway.Record{
		"stage": "demo_scheduled",
	}).Return(gateway.Record{"id": "opp-1", "stage": "demo_scheduled"}, nil).Once()

	updated, err := svc.Update(context.Background(), map[string]interface{}{
		"id":    "opp-1",
		"stage": "demo_scheduled",
	})

	require.NoError(t, err)
	assert.Equal(t, "demo_scheduled", updated.GetString("stage"))
	gw.AssertExpectations(t)
}

func TestOpportunityUpdateExcludesSelfFromDuplicateCheck(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	gw.On("GetList", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(&gateway.ListResult{
			Data:  []gateway.Record{{"id": "opp-1", "name": "Self", "stage": "new_lead"}},
			Total: 1,
		}, nil).Once()
	gw.On("Update", mock.Anything, gateway.ResourceOpportunities, "opp-1", mock.Anything).
		Return(gateway.Record{"id": "opp-1"}, nil).Once()
	gw.On("Create", mock.Anything, gateway.ResourceOpportunityProducts, mock.Anything).
		Return(gateway.Record{"id": "junction-1"}, nil).Once()

	_, err := svc.Update(context.Background(), map[string]interface{}{
		"id":                        "opp-1",
		"name":                      "Self",
		"stage":                     "new_lead",
		"priority":                  "low",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
		"contact_ids":               []int{1},
		"products_to_sync": []map[string]interface{}{
			{"product_id_reference": "product-1"},
		},
	})

	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestQuickCreateRejectsMissingStatus(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	_, err := svc.QuickCreate(context.Background(), map[string]interface{}{
		"name":                      "Board Add",
		"stage":                     "new_lead",
		"priority":                  "medium",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
	})

	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Errors, "status")
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuickCreateHappyPath(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	gw.On("Create", mock.Anything, gateway.ResourceOpportunities, mock.Anything).
		Return(gateway.Record{"id": "opp-quick"}, nil).Once()

	created, err := svc.QuickCreate(context.Background(), map[string]interface{}{
		"name":                      "Board Add",
		"stage":                     "new_lead",
		"status":                    "active",
		"priority":                  "medium",
		"customer_organization_id":  "customer-1",
		"principal_organization_id": "principal-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "opp-quick", created.GetString("id"))

	rec := gw.Calls[0].Arguments.Get(2).(gateway.Record)
	assert.Equal(t, "active", rec["status"])
	assert.Equal(t, "medium", rec["priority"])
	assert.Contains(t, rec, "estimated_close_date")
}

func TestCloseRequiresWinReason(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	_, err := svc.Close(context.Background(), map[string]interface{}{
		"id":    "opp-1",
		"stage": "closed_won",
	})

	require.Error(t, err)
	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Win reason is required when closing as won", verr.Errors["win_reason"])
	gw.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseStampsActualCloseDate(t *testing.T) {
	gw := new(gatewaymock.DataGatewayMock)
	svc := newOpportunityService(gw)

	gw.On("Update", mock.Anything, gateway.ResourceOpportunities, "opp-1", mock.Anything).
		Return(gateway.Record{"id": "opp-1", "stage": "closed_lost"}, nil).Once()

	_, err := svc.Close(context.Background(), map[string]interface{}{
		"id":          "opp-1",
		"stage":       "closed_lost",
		"loss_reason": "no_budget",
	})

	require.NoError(t, err)
	rec := gw.Calls[0].Arguments.Get(3).(gateway.Record)
	assert.Equal(t, "closed_lost", rec["stage"])
	assert.Equal(t, "no_budget", rec["loss_reason"])
	assert.Contains(t, rec, "actual_close_date")
}
