package usecase

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validation"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

// OpportunityService orchestrates opportunity writes: it funnels every
// payload through the validation entry points, runs the duplicate pre-check
// when a product is attached, and issues the gateway calls. Validation never
// happens anywhere else on the write path.
type OpportunityService struct {
	gw         gateway.DataGateway
	duplicates *DuplicateService
}

// NewOpportunityService creates the opportunity write service.
func NewOpportunityService(gw gateway.DataGateway, duplicates *DuplicateService) *OpportunityService {
	return &OpportunityService{gw: gw, duplicates: duplicates}
}

// Create validates a full create payload, blocks duplicates for every
// attached product, writes the opportunity and syncs its junction rows.
func (s *OpportunityService) Create(ctx context.Context, data interface{}) (gateway.Record, error) {
	in, err := validation.ParseCreateOpportunity(data)
	if err != nil {
		recordValidation("opportunity", "create", err)
		return nil, err
	}
	observer.IncValidationRun("opportunity", "create", "ok")

	for _, p := range in.ProductsToSync {
		if !p.ProductID.Valid() {
			continue
		}
		if err := s.duplicates.ValidateNoDuplicate(ctx, DuplicateCheckParams{
			PrincipalID: in.PrincipalOrganizationID.String(),
			CustomerID:  in.CustomerOrganizationID.String(),
			ProductID:   p.ProductID.String(),
		}); err != nil {
			return nil, err
		}
	}

	rec := opportunityRecord(in)
	created, err := s.gw.Create(ctx, gateway.ResourceOpportunities, rec)
	if err != nil {
		return nil, err
	}

	if err := s.syncProducts(ctx, created.GetString("id"), in.ProductsToSync); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Opportunity created",
		zap.String("opportunity_id", created.GetString("id")),
		zap.Int("products", len(in.ProductsToSync)))
	return created, nil
}

// Update validates a partial payload and applies it. The opportunity being
// updated is excluded from its own duplicate check.
func (s *OpportunityService) Update(ctx context.Context, data interface{}) (gateway.Record, error) {
	in, err := validation.ParseUpdateOpportunity(data)
	if err != nil {
		recordValidation("opportunity", "update", err)
		return nil, err
	}
	observer.IncValidationRun("opportunity", "update", "ok")

	id := in.ID.String()
	for _, p := range in.ProductsToSync {
		if !p.ProductID.Valid() || !in.PrincipalOrganizationID.Valid() || !in.CustomerOrganizationID.Valid() {
			continue
		}
		if err := s.duplicates.ValidateNoDuplicate(ctx, DuplicateCheckParams{
			PrincipalID: in.PrincipalOrganizationID.String(),
			CustomerID:  in.CustomerOrganizationID.String(),
			ProductID:   p.ProductID.String(),
			ExcludeID:   id,
		}); err != nil {
			return nil, err
		}
	}

	rec := opportunityRecord(in)
	delete(rec, "id")
	updated, err := s.gw.Update(ctx, gateway.ResourceOpportunities, id, rec)
	if err != nil {
		return nil, err
	}

	if in.ProductsToSync != nil {
		if err := s.syncProducts(ctx, id, in.ProductsToSync); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// QuickCreate validates a Kanban quick-add payload and writes the minimal
// opportunity. Nothing beyond the payload's own fields is persisted.
func (s *OpportunityService) QuickCreate(ctx context.Context, data interface{}) (gateway.Record, error) {
	in, err := validation.ParseQuickCreateOpportunity(data)
	if err != nil {
		recordValidation("opportunity", "quick_create", err)
		return nil, err
	}
	observer.IncValidationRun("opportunity", "quick_create", "ok")

	rec := gateway.Record{
		"name":                      derefString(in.Name),
		"stage":                     derefString(in.Stage),
		"status":                    derefString(in.Status),
		"priority":                  derefString(in.Priority),
		"customer_organization_id":  in.CustomerOrganizationID.String(),
		"principal_organization_id": in.PrincipalOrganizationID.String(),
		"version":                   1,
	}
	if in.EstimatedCloseDate.Valid() {
		rec["estimated_close_date"] = in.EstimatedCloseDate.Time()
	}
	if in.OpportunityOwnerID.Valid() {
		rec["opportunity_owner_id"] = in.OpportunityOwnerID.String()
	}
	if in.AccountManagerID.Valid() {
		rec["account_manager_id"] = in.AccountManagerID.String()
	}
	return s.gw.Create(ctx, gateway.ResourceOpportunities, rec)
}

// Close validates the explicit close-deal payload and applies the narrow
// stage transition, stamping the actual close date.
func (s *OpportunityService) Close(ctx context.Context, data interface{}) (gateway.Record, error) {
	in, err := validation.ParseCloseOpportunity(data)
	if err != nil {
		recordValidation("opportunity", "close", err)
		return nil, err
	}
	observer.IncValidationRun("opportunity", "close", "ok")

	rec := gateway.Record{
		"stage":             derefString(in.Stage),
		"actual_close_date": utils.Now(),
	}
	if in.WinReason != nil {
		rec["win_reason"] = *in.WinReason
	}
	if in.LossReason != nil {
		rec["loss_reason"] = *in.LossReason
	}
	if in.CloseReasonNotes != nil {
		rec["close_reason_notes"] = *in.CloseReasonNotes
	}
	return s.gw.Update(ctx, gateway.ResourceOpportunities, in.ID.String(), rec)
}

// syncProducts writes the junction rows for the attached products.
func (s *OpportunityService) syncProducts(ctx context.Context, opportunityID string, products []validation.ProductSyncInput) error {
	for _, p := range products {
		if !p.ProductID.Valid() {
			continue
		}
		rec := gateway.Record{
			"opportunity_id": opportunityID,
			"product_id":     p.ProductID.String(),
		}
		if p.Notes != nil {
			rec["notes"] = *p.Notes
		}
		if _, err := s.gw.Create(ctx, gateway.ResourceOpportunityProducts, rec); err != nil {
			return err
		}
	}
	return nil
}

// opportunityRecord flattens validated input into a gateway record,
// carrying only the fields the payload actually provided.
func opportunityRecord(in *validation.OpportunityInput) gateway.Record {
	rec := gateway.Record{}
	if in.ID.Valid() {
		rec["id"] = in.ID.String()
	}
	setString(rec, "name", in.Name)
	setString(rec, "description", in.Description)
	setString(rec, "stage", in.Stage)
	setString(rec, "priority", in.Priority)
	setString(rec, "lead_source", in.LeadSource)
	setString(rec, "campaign", in.Campaign)
	setString(rec, "notes", in.Notes)
	setString(rec, "next_action", in.NextAction)
	setString(rec, "decision_criteria", in.DecisionCriteria)
	setString(rec, "win_reason", in.WinReason)
	setString(rec, "loss_reason", in.LossReason)
	setString(rec, "close_reason_notes", in.CloseReasonNotes)
	setString(rec, "status", in.Status)

	setID(rec, "customer_organization_id", in.CustomerOrganizationID)
	setID(rec, "principal_organization_id", in.PrincipalOrganizationID)
	setID(rec, "distributor_organization_id", in.DistributorOrganizationID)
	setID(rec, "account_manager_id", in.AccountManagerID)
	setID(rec, "opportunity_owner_id", in.OpportunityOwnerID)
	setID(rec, "related_opportunity_id", in.RelatedOpportunityID)

	setDate(rec, "estimated_close_date", in.EstimatedCloseDate)
	setDate(rec, "actual_close_date", in.ActualCloseDate)
	setDate(rec, "next_action_date", in.NextActionDate)

	if in.ContactIDs != nil {
		ids := make([]int64, 0, len(in.ContactIDs))
		for _, cid := range in.ContactIDs {
			ids = append(ids, cid.Int64())
		}
		rec["contact_ids"] = string(utils.MustMarshalJSON(ids))
	}
	if in.Tags != nil {
		rec["tags"] = string(utils.MustMarshalJSON(in.Tags))
	}
	if in.Probability != nil {
		rec["probability"] = *in.Probability
	}
	if in.Version != nil {
		rec["version"] = *in.Version
	}
	return rec
}

func setString(rec gateway.Record, key string, v *string) {
	if v != nil {
		rec[key] = *v
	}
}

func setID(rec gateway.Record, key string, id model.FlexID) {
	if id.Valid() {
		rec[key] = id.String()
	}
}

func setDate(rec gateway.Record, key string, d model.FlexDate) {
	if d.Valid() {
		rec[key] = d.Time()
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// recordValidation updates the validation counters for a failed run.
func recordValidation(entity, operation string, err error) {
	observer.IncValidationRun(entity, operation, "invalid")
	if verr, ok := apperrors.AsValidationError(err); ok {
		observer.AddValidationFieldErrors(entity, operation, len(verr.Errors))
	}
}
