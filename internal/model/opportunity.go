package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// OpportunityStage represents the workflow stage of an opportunity.
// There is intentionally no default stage: omission must surface as a
// validation failure so a drag operation that loses the stage is caught
// instead of silently "fixed".
type OpportunityStage string

const (
	StageNewLead            OpportunityStage = "new_lead"
	StageInitialOutreach    OpportunityStage = "initial_outreach"
	StageSampleVisitOffered OpportunityStage = "sample_visit_offered"
	StageFeedbackLogged     OpportunityStage = "feedback_logged"
	StageDemoScheduled      OpportunityStage = "demo_scheduled"
	StageClosedWon          OpportunityStage = "closed_won"
	StageClosedLost         OpportunityStage = "closed_lost"
)

// OpportunityStages lists every valid stage in pipeline order.
func OpportunityStages() []OpportunityStage {
	return []OpportunityStage{
		StageNewLead,
		StageInitialOutreach,
		StageSampleVisitOffered,
		StageFeedbackLogged,
		StageDemoScheduled,
		StageClosedWon,
		StageClosedLost,
	}
}

// IsClosed reports whether the stage is one of the two terminal stages.
func (s OpportunityStage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// IsValid reports whether s is a known stage.
func (s OpportunityStage) IsValid() bool {
	for _, v := range OpportunityStages() {
		if s == v {
			return true
		}
	}
	return false
}

// OpportunityPriority represents the priority of an opportunity.
type OpportunityPriority string

const (
	PriorityLow      OpportunityPriority = "low"
	PriorityMedium   OpportunityPriority = "medium"
	PriorityHigh     OpportunityPriority = "high"
	PriorityCritical OpportunityPriority = "critical"
)

// LeadSource represents how the opportunity originated.
type LeadSource string

const (
	LeadSourceReferral      LeadSource = "referral"
	LeadSourceTradeShow     LeadSource = "trade_show"
	LeadSourceWebsite       LeadSource = "website"
	LeadSourceColdCall      LeadSource = "cold_call"
	LeadSourceEmailCampaign LeadSource = "email_campaign"
	LeadSourceSocialMedia   LeadSource = "social_media"
	LeadSourceOther         LeadSource = "other"
)

// WinReason explains why a deal was closed as won.
type WinReason string

const (
	WinReasonPrice        WinReason = "price"
	WinReasonProduct      WinReason = "product_quality"
	WinReasonRelationship WinReason = "relationship"
	WinReasonService      WinReason = "service"
	WinReasonOther        WinReason = "other"
)

// LossReason explains why a deal was closed as lost.
type LossReason string

const (
	LossReasonPrice        LossReason = "price"
	LossReasonCompetitor   LossReason = "competitor"
	LossReasonNoBudget     LossReason = "no_budget"
	LossReasonNoDecision   LossReason = "no_decision"
	LossReasonProductFit   LossReason = "product_fit"
	LossReasonUnresponsive LossReason = "unresponsive"
	LossReasonOther        LossReason = "other"
)

// OpportunityStatus is the managed (non-user-set) lifecycle status, distinct
// from stage. Create paths only ever accept the "active" literal.
type OpportunityStatus string

const (
	StatusActive    OpportunityStatus = "active"
	StatusOnHold    OpportunityStatus = "on_hold"
	StatusNurturing OpportunityStatus = "nurturing"
	StatusStalled   OpportunityStatus = "stalled"
	StatusExpired   OpportunityStatus = "expired"
)

// Opportunity represents a sales deal in the PostgreSQL database.
type Opportunity struct {
	ID                        string         `json:"id" gorm:"primaryKey;type:text"`
	Name                      string         `json:"name" gorm:"type:text" validate:"required"`
	Description               string         `json:"description,omitempty" gorm:"type:text"`
	Stage                     string         `json:"stage" gorm:"index;type:text" validate:"required"`
	Priority                  string         `json:"priority,omitempty" gorm:"type:text"`
	LeadSource                string         `json:"lead_source,omitempty" gorm:"type:text"`
	EstimatedCloseDate        *time.Time     `json:"estimated_close_date,omitempty" gorm:"type:date"`
	ActualCloseDate           *time.Time     `json:"actual_close_date,omitempty" gorm:"type:date"`
	CustomerOrganizationID    string         `json:"customer_organization_id" gorm:"index;type:text" validate:"required"`
	PrincipalOrganizationID   string         `json:"principal_organization_id" gorm:"index;type:text" validate:"required"`
	DistributorOrganizationID string         `json:"distributor_organization_id,omitempty" gorm:"type:text"`
	AccountManagerID          string         `json:"account_manager_id,omitempty" gorm:"type:text"`
	ContactIDs                datatypes.JSON `json:"contact_ids,omitempty" gorm:"type:jsonb;column:contact_ids"`
	Campaign                  string         `json:"campaign,omitempty" gorm:"type:text"`
	RelatedOpportunityID      string         `json:"related_opportunity_id,omitempty" gorm:"type:text"`
	Notes                     string         `json:"notes,omitempty" gorm:"type:text"`
	Tags                      datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`
	NextAction                string         `json:"next_action,omitempty" gorm:"type:text"`
	NextActionDate            *time.Time     `json:"next_action_date,omitempty" gorm:"type:date"`
	DecisionCriteria          string         `json:"decision_criteria,omitempty" gorm:"type:text"`
	WinReason                 string         `json:"win_reason,omitempty" gorm:"type:text"`
	LossReason                string         `json:"loss_reason,omitempty" gorm:"type:text"`
	CloseReasonNotes          string         `json:"close_reason_notes,omitempty" gorm:"type:text"`
	Status                    string         `json:"status,omitempty" gorm:"type:text;default:active"`
	Version                   int64          `json:"version" gorm:"default:1"` // optimistic concurrency counter
	CreatedAt                 time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt                 time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	DeletedAt                 *time.Time     `json:"deleted_at,omitempty" gorm:"index"` // soft delete, never hard-deleted
}

// TableName specifies the table name for the Opportunity model, respecting the Namer.
func (Opportunity) TableName(namer schema.Namer) string {
	return namer.TableName("opportunities")
}

// OpportunityProduct is the junction row linking an opportunity to a product.
// The duplicate detection service queries it by (opportunity_id, product_id).
type OpportunityProduct struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	OpportunityID string     `json:"opportunity_id" gorm:"index;type:text" validate:"required"`
	ProductID     string     `json:"product_id" gorm:"index;type:text" validate:"required"`
	Notes         string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the OpportunityProduct model.
func (OpportunityProduct) TableName(namer schema.Namer) string {
	return namer.TableName("opportunity_products")
}
