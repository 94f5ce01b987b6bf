package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// ActivityType is the single-table-inheritance discriminator: one physical
// record type branching into logged interactions, relationship engagements
// and planned tasks.
type ActivityType string

const (
	// ActivityInteraction is an opportunity-linked logged interaction.
	ActivityInteraction ActivityType = "interaction"
	// ActivityEngagement is a relationship touchpoint with no opportunity link.
	ActivityEngagement ActivityType = "engagement"
	// ActivityTask is a planned future to-do.
	ActivityTask ActivityType = "task"
)

// InteractionType classifies what kind of touch an activity records.
// "administrative" and "other" are legacy task-type mappings kept for
// imported data.
type InteractionType string

const (
	InteractionCall           InteractionType = "call"
	InteractionEmail          InteractionType = "email"
	InteractionMeeting        InteractionType = "meeting"
	InteractionDemo           InteractionType = "demo"
	InteractionProposal       InteractionType = "proposal"
	InteractionFollowUp       InteractionType = "follow_up"
	InteractionTradeShow      InteractionType = "trade_show"
	InteractionSiteVisit      InteractionType = "site_visit"
	InteractionContractReview InteractionType = "contract_review"
	InteractionCheckIn        InteractionType = "check_in"
	InteractionSocial         InteractionType = "social"
	InteractionNote           InteractionType = "note"
	InteractionSample         InteractionType = "sample"
	InteractionAdministrative InteractionType = "administrative"
	InteractionOther          InteractionType = "other"
)

// SampleStatus tracks the sub-state of a sample interaction.
// Linear progression: sent -> received -> feedback_pending -> feedback_received.
type SampleStatus string

const (
	SampleSent             SampleStatus = "sent"
	SampleReceived         SampleStatus = "received"
	SampleFeedbackPending  SampleStatus = "feedback_pending"
	SampleFeedbackReceived SampleStatus = "feedback_received"
)

// IsActive reports whether the sample still needs chasing. Active statuses
// require follow_up_required=true and a follow_up_date on the activity.
func (s SampleStatus) IsActive() bool {
	switch s {
	case SampleSent, SampleReceived, SampleFeedbackPending:
		return true
	}
	return false
}

// Activity represents one row of the shared activities table.
type Activity struct {
	ID               string         `json:"id" gorm:"primaryKey;type:text"`
	ActivityType     string         `json:"activity_type" gorm:"index;type:text" validate:"required"`
	Type             string         `json:"type,omitempty" gorm:"type:text"`
	Subject          string         `json:"subject" gorm:"type:text" validate:"required"`
	Description      string         `json:"description,omitempty" gorm:"type:text"`
	Outcome          string         `json:"outcome,omitempty" gorm:"type:text"`
	Location         string         `json:"location,omitempty" gorm:"type:text"`
	ActivityDate     *time.Time     `json:"activity_date,omitempty" gorm:"type:timestamptz"`
	DueDate          *time.Time     `json:"due_date,omitempty" gorm:"type:timestamptz"`
	DurationMinutes  int            `json:"duration_minutes,omitempty"`
	ContactID        string         `json:"contact_id,omitempty" gorm:"index;type:text"`
	OrganizationID   string         `json:"organization_id,omitempty" gorm:"index;type:text"`
	OpportunityID    string         `json:"opportunity_id,omitempty" gorm:"index;type:text"`
	SalesID          string         `json:"sales_id,omitempty" gorm:"type:text"`
	FollowUpRequired bool           `json:"follow_up_required,omitempty"`
	FollowUpDate     *time.Time     `json:"follow_up_date,omitempty" gorm:"type:date"`
	FollowUpNotes    string         `json:"follow_up_notes,omitempty" gorm:"type:text"`
	SampleStatus     string         `json:"sample_status,omitempty" gorm:"type:text"`
	Attachments      datatypes.JSON `json:"attachments,omitempty" gorm:"type:jsonb"`
	Attendees        datatypes.JSON `json:"attendees,omitempty" gorm:"type:jsonb"`
	Tags             datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Activity model, respecting the Namer.
func (Activity) TableName(namer schema.Namer) string {
	return namer.TableName("activities")
}
