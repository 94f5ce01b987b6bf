package validation

import (
	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validator"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

// Opportunity validation is the single source of truth for every opportunity
// write path. Four variants derive from one base field set: Create, Update,
// Quick-Create (Kanban column add) and Close (the explicit close-deal
// action). Per-field checks always run before the cross-field refinements;
// refinements run in declaration order and key each issue on the field most
// useful for the form, not necessarily the field that triggered the rule.

const (
	msgNameRequired      = "Opportunity name is required"
	msgStageRequired     = "Stage is required"
	msgPriorityRequired  = "Priority is required"
	msgCustomerRequired  = "Customer organization is required"
	msgPrincipalRequired = "Principal organization is required"
	msgContactRequired   = "At least one contact is required"
	msgWinReasonRequired = "Win reason is required when closing as won"
	msgLossReasonNeeded  = "Loss reason is required when closing as lost"
	msgOtherNotesNeeded  = "Please specify the reason in notes when selecting 'Other'"
	msgStatusLiteral     = "Status must be provided as 'active'"
	msgPositiveNumber    = "must be a positive number"
	msgInvalidDate       = "must be a valid date"
	msgInvalidID         = "must be a string or number"
)

// fullFormFieldThreshold separates "user dragged a stage chip" from "user
// submitted the whole edit form" on the shared partial-update path. Payloads
// with at least this many populated fields are treated as full form
// submissions and skip the contacts-minimum rule. The threshold is a
// heuristic and inherently ambiguous: a legitimately small explicit edit can
// be misclassified. Do not tighten it without auditing both form surfaces.
const fullFormFieldThreshold = 5

// stageOnlyFields is the field set a Kanban stage drag (plus its close-reason
// companions) is allowed to carry.
var stageOnlyFields = map[string]struct{}{
	"id":                 {},
	"stage":              {},
	"win_reason":         {},
	"loss_reason":        {},
	"close_reason_notes": {},
	"contact_ids":        {},
}

// OpportunityInput is the base field set shared by the create and update
// variants. Every field is optional at the type level; the variants decide
// the required partition in their refinements.
type OpportunityInput struct {
	ID        model.FlexID `json:"id"`
	CreatedAt *string      `json:"created_at" validate:"omitempty,max=50"`
	UpdatedAt *string      `json:"updated_at" validate:"omitempty,max=50"`
	Version   *int64       `json:"version"`
	DeletedAt *string      `json:"deleted_at" validate:"omitempty,max=50"`

	Name               *string        `json:"name" validate:"omitempty,max=255"`
	Description        *string        `json:"description" validate:"omitempty,max=2000"`
	EstimatedCloseDate model.FlexDate `json:"estimated_close_date"`

	Stage      *string `json:"stage" validate:"omitempty,oneof=new_lead initial_outreach sample_visit_offered feedback_logged demo_scheduled closed_won closed_lost"`
	Priority   *string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	LeadSource *string `json:"lead_source" validate:"omitempty,oneof=referral trade_show website cold_call email_campaign social_media other"`

	CustomerOrganizationID    model.FlexID `json:"customer_organization_id"`
	PrincipalOrganizationID   model.FlexID `json:"principal_organization_id"`
	DistributorOrganizationID model.FlexID `json:"distributor_organization_id"`
	AccountManagerID          model.FlexID `json:"account_manager_id"`
	OpportunityOwnerID        model.FlexID `json:"opportunity_owner_id"`

	ContactIDs []model.FlexInt `json:"contact_ids"`

	Campaign             *string        `json:"campaign" validate:"omitempty,max=100"`
	RelatedOpportunityID model.FlexID   `json:"related_opportunity_id"`
	Notes                *string        `json:"notes" validate:"omitempty,max=5000"`
	Tags                 []string       `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	NextAction           *string        `json:"next_action" validate:"omitempty,max=500"`
	NextActionDate       model.FlexDate `json:"next_action_date"`
	DecisionCriteria     *string        `json:"decision_criteria" validate:"omitempty,max=2000"`

	WinReason        *string `json:"win_reason" validate:"omitempty,oneof=price product_quality relationship service other"`
	LossReason       *string `json:"loss_reason" validate:"omitempty,oneof=price competitor no_budget no_decision product_fit unresponsive other"`
	CloseReasonNotes *string `json:"close_reason_notes" validate:"omitempty,max=500"`

	Status          *string        `json:"status" validate:"omitempty,oneof=active on_hold nurturing stalled expired"`
	ActualCloseDate model.FlexDate `json:"actual_close_date"`
	Probability     *float64       `json:"probability" validate:"omitempty,gte=0,lte=100"`

	ProductsToSync []ProductSyncInput `json:"products_to_sync" validate:"omitempty,dive"`
}

// ProductSyncInput is the virtual product attachment accepted alongside an
// opportunity write and synced to the junction table by the service layer.
type ProductSyncInput struct {
	ProductID model.FlexID `json:"product_id_reference"`
	Notes     *string      `json:"notes" validate:"omitempty,max=2000"`
}

// normalize trims free text and sanitizes the rich-text fields in place.
func (in *OpportunityInput) normalize() {
	trim(in.Name)
	trim(in.Campaign)
	trim(in.NextAction)
	trim(in.CloseReasonNotes)
	sanitize(in.Description)
	sanitize(in.Notes)
	sanitize(in.DecisionCriteria)
	for i := range in.Tags {
		p := &in.Tags[i]
		trim(p)
	}
}

// checkScalars reports issues for flexible scalars that were present but
// unusable: malformed ids, unparseable dates, non-numeric contact ids.
func (in *OpportunityInput) checkScalars() validator.Issues {
	var issues validator.Issues
	for path, id := range map[string]model.FlexID{
		"id":                          in.ID,
		"customer_organization_id":    in.CustomerOrganizationID,
		"principal_organization_id":   in.PrincipalOrganizationID,
		"distributor_organization_id": in.DistributorOrganizationID,
		"account_manager_id":          in.AccountManagerID,
		"opportunity_owner_id":        in.OpportunityOwnerID,
		"related_opportunity_id":      in.RelatedOpportunityID,
	} {
		if id.Set() && !id.Valid() {
			issues.Add(path, msgInvalidID)
		}
	}
	for path, d := range map[string]model.FlexDate{
		"estimated_close_date": in.EstimatedCloseDate,
		"next_action_date":     in.NextActionDate,
		"actual_close_date":    in.ActualCloseDate,
	} {
		if d.Set() && !d.Valid() {
			issues.Add(path, msgInvalidDate)
		}
	}
	for i, cid := range in.ContactIDs {
		if !cid.Valid() || cid.Int64() <= 0 {
			issues.Add(joinPath("contact_ids", i), msgPositiveNumber)
		}
	}
	return issues
}

// ParseCreateOpportunity validates a full create payload and returns the
// normalized input with the create-time defaults applied.
func ParseCreateOpportunity(data interface{}) (*OpportunityInput, error) {
	var in OpportunityInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	in.normalize()
	issues.Merge(validator.CheckStruct(&in))
	issues.Merge(in.checkScalars())

	// Required partition for a full create.
	if isBlank(in.Name) {
		issues.Add("name", msgNameRequired)
	}
	if in.Stage == nil {
		issues.Add("stage", msgStageRequired)
	}
	if in.Priority == nil {
		issues.Add("priority", msgPriorityRequired)
	}
	if !in.CustomerOrganizationID.Valid() {
		issues.Add("customer_organization_id", msgCustomerRequired)
	}
	if !in.PrincipalOrganizationID.Valid() {
		issues.Add("principal_organization_id", msgPrincipalRequired)
	}
	if len(in.ContactIDs) == 0 {
		issues.Add("contact_ids", msgContactRequired)
	}

	if err := issues.ToError(); err != nil {
		return nil, err
	}

	// Auto-default: 30 days from now, creation only.
	if !in.EstimatedCloseDate.Set() {
		in.EstimatedCloseDate = model.NewFlexDate(utils.DefaultEstimatedClose())
	}
	return &in, nil
}

// ValidateCreateOpportunity runs the create schema and reports failures as a
// structured ValidationError.
func ValidateCreateOpportunity(data interface{}) error {
	_, err := ParseCreateOpportunity(data)
	return err
}

// ParseUpdateOpportunity validates a partial update payload. The same
// endpoint serves both the Kanban board and the full edit form, so the
// contacts-minimum rule is gated by the provided-field heuristics; the
// close-reason rules are never bypassed.
func ParseUpdateOpportunity(data interface{}) (*OpportunityInput, error) {
	var in OpportunityInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	in.normalize()
	issues.Merge(validator.CheckStruct(&in))
	issues.Merge(in.checkScalars())

	if !in.ID.Valid() {
		issues.Add("id", "is required")
	}
	if in.Name != nil && *in.Name == "" {
		issues.Add("name", msgNameRequired)
	}

	provided := providedFields(&in)

	// Contacts-minimum rule, gated:
	//  - contact_ids absent: partial update of other fields, allowed.
	//  - stage-only payload moving to a non-closed stage: Kanban drag, allowed.
	//  - payloads at or above the field-count threshold: full form submission,
	//    allowed (the form always sends every field).
	//  - otherwise this is a contacts-only edit and must keep at least one.
	if in.ContactIDs != nil {
		stageOnly := subsetOf(provided, stageOnlyFields)
		movingToClosed := in.Stage != nil && model.OpportunityStage(*in.Stage).IsClosed()
		switch {
		case stageOnly && in.Stage != nil && !movingToClosed:
			// Stage drag to a non-closed column; close rules below still run.
		case len(provided) >= fullFormFieldThreshold:
			// Full form submission.
		case len(in.ContactIDs) == 0:
			issues.Add("contact_ids", msgContactRequired)
		}
	}

	// Transitions into closed stages never bypass reason validation.
	issues.Merge(checkCloseReasons(in.Stage, in.WinReason, in.LossReason, in.CloseReasonNotes))

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateUpdateOpportunity runs the partial update schema and reports
// failures as a structured ValidationError.
func ValidateUpdateOpportunity(data interface{}) error {
	_, err := ParseUpdateOpportunity(data)
	return err
}

// checkCloseReasons enforces the stage-transition rules for closing a deal.
// Issues are keyed on the reason fields, not on stage, because that is where
// the form renders them.
func checkCloseReasons(stage, winReason, lossReason, closeNotes *string) validator.Issues {
	var issues validator.Issues
	if stage != nil && model.OpportunityStage(*stage) == model.StageClosedWon && winReason == nil {
		issues.Add("win_reason", msgWinReasonRequired)
	}
	if stage != nil && model.OpportunityStage(*stage) == model.StageClosedLost && lossReason == nil {
		issues.Add("loss_reason", msgLossReasonNeeded)
	}
	otherPicked := (winReason != nil && *winReason == string(model.WinReasonOther)) ||
		(lossReason != nil && *lossReason == string(model.LossReasonOther))
	if otherPicked && isBlank(closeNotes) {
		issues.Add("close_reason_notes", msgOtherNotesNeeded)
	}
	return issues
}

// QuickCreateOpportunityInput is the minimal field set for the Kanban
// quick-add button. Status and priority deliberately have no defaults here:
// the caller must supply them so that workflow-critical fields are never
// silently filled in.
type QuickCreateOpportunityInput struct {
	Name                    *string        `json:"name" validate:"omitempty,max=255"`
	Stage                   *string        `json:"stage" validate:"omitempty,oneof=new_lead initial_outreach sample_visit_offered feedback_logged demo_scheduled closed_won closed_lost"`
	CustomerOrganizationID  model.FlexID   `json:"customer_organization_id"`
	PrincipalOrganizationID model.FlexID   `json:"principal_organization_id"`
	Status                  *string        `json:"status"`
	Priority                *string        `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	OpportunityOwnerID      model.FlexID   `json:"opportunity_owner_id"`
	AccountManagerID        model.FlexID   `json:"account_manager_id"`
	EstimatedCloseDate      model.FlexDate `json:"estimated_close_date"`
}

// ParseQuickCreateOpportunity validates a Kanban quick-add payload. The only
// default it applies is its own estimated_close_date fill.
func ParseQuickCreateOpportunity(data interface{}) (*QuickCreateOpportunityInput, error) {
	var in QuickCreateOpportunityInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	trim(in.Name)
	issues.Merge(validator.CheckStruct(&in))

	if isBlank(in.Name) {
		issues.Add("name", msgNameRequired)
	}
	if in.Stage == nil {
		issues.Add("stage", msgStageRequired)
	}
	if !in.CustomerOrganizationID.Valid() {
		issues.Add("customer_organization_id", msgCustomerRequired)
	}
	if !in.PrincipalOrganizationID.Valid() {
		issues.Add("principal_organization_id", msgPrincipalRequired)
	}
	// The status literal is required, not defaulted: quick creates are the
	// path where a dropped status has historically corrupted the board.
	if in.Status == nil || *in.Status != string(model.StatusActive) {
		issues.Add("status", msgStatusLiteral)
	}
	if in.Priority == nil {
		issues.Add("priority", msgPriorityRequired)
	}
	if in.EstimatedCloseDate.Set() && !in.EstimatedCloseDate.Valid() {
		issues.Add("estimated_close_date", msgInvalidDate)
	}

	if err := issues.ToError(); err != nil {
		return nil, err
	}

	if !in.EstimatedCloseDate.Set() {
		in.EstimatedCloseDate = model.NewFlexDate(utils.DefaultEstimatedClose())
	}
	return &in, nil
}

// ValidateQuickCreateOpportunity runs the quick-create schema and reports
// failures as a structured ValidationError.
func ValidateQuickCreateOpportunity(data interface{}) error {
	_, err := ParseQuickCreateOpportunity(data)
	return err
}

// CloseOpportunityInput is the narrow payload of the explicit close-deal
// action, independent of the general update path.
type CloseOpportunityInput struct {
	ID               model.FlexID `json:"id"`
	Stage            *string      `json:"stage" validate:"omitempty,oneof=closed_won closed_lost"`
	WinReason        *string      `json:"win_reason" validate:"omitempty,oneof=price product_quality relationship service other"`
	LossReason       *string      `json:"loss_reason" validate:"omitempty,oneof=price competitor no_budget no_decision product_fit unresponsive other"`
	CloseReasonNotes *string      `json:"close_reason_notes" validate:"omitempty,max=500"`
}

// ParseCloseOpportunity validates a close-deal payload. The reason/notes
// refinement chain is intentionally duplicated from the update path so the
// two surfaces stay independent.
func ParseCloseOpportunity(data interface{}) (*CloseOpportunityInput, error) {
	var in CloseOpportunityInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	trim(in.CloseReasonNotes)
	issues.Merge(validator.CheckStruct(&in))

	if !in.ID.Valid() {
		issues.Add("id", "is required")
	}
	if in.Stage == nil {
		issues.Add("stage", msgStageRequired)
	}
	issues.Merge(checkCloseReasons(in.Stage, in.WinReason, in.LossReason, in.CloseReasonNotes))

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateCloseOpportunity runs the close schema and reports failures as a
// structured ValidationError.
func ValidateCloseOpportunity(data interface{}) error {
	_, err := ParseCloseOpportunity(data)
	return err
}
