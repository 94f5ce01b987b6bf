package validation

import (
	"gitlab.com/timkado/api/daisi-crm-validation/internal/model"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/validator"
)

// Activities use a single-table-inheritance shape: one record type, with
// activity_type discriminating logged interactions, relationship engagements
// and planned tasks. All three variants share the base field checks; the
// refinement set differs per variant.

const (
	msgSubjectRequired      = "Subject is required"
	msgActivityTypeRequired = "Activity type is required"
	msgEntityRequired       = "At least one of contact or organization is required"
	msgOpportunityRequired  = "Opportunity is required for interaction activities"
	msgOpportunityForbidden = "Engagement activities cannot be linked to an opportunity"
	msgSampleStatusRequired = "Sample status is required for sample activities"
	msgSampleStatusOnly     = "Sample status is only valid for sample activities"
	msgFollowUpForSample    = "Follow-up is required while a sample is active"
	msgFollowUpDateRequired = "Follow-up date is required"
	msgDueDateRequired      = "Due date is required for tasks"
)

// ActivityInput is the shared field set for all activity writes.
type ActivityInput struct {
	ID           model.FlexID `json:"id"`
	ActivityType *string      `json:"activity_type" validate:"omitempty,oneof=interaction engagement task"`
	Type         *string      `json:"type" validate:"omitempty,oneof=call email meeting demo proposal follow_up trade_show site_visit contract_review check_in social note sample administrative other"`

	Subject       *string `json:"subject" validate:"omitempty,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=10000"`
	Outcome       *string `json:"outcome" validate:"omitempty,max=2000"`
	Location      *string `json:"location" validate:"omitempty,max=255"`
	FollowUpNotes *string `json:"follow_up_notes" validate:"omitempty,max=10000"`

	ActivityDate    model.FlexDate `json:"activity_date"`
	DueDate         model.FlexDate `json:"due_date"`
	DurationMinutes *int           `json:"duration_minutes" validate:"omitempty,gte=0,lte=1440"`

	ContactID      model.FlexID `json:"contact_id"`
	OrganizationID model.FlexID `json:"organization_id"`
	OpportunityID  model.FlexID `json:"opportunity_id"`
	SalesID        model.FlexID `json:"sales_id"`

	FollowUpRequired *bool          `json:"follow_up_required"`
	FollowUpDate     model.FlexDate `json:"follow_up_date"`

	SampleStatus *string `json:"sample_status" validate:"omitempty,oneof=sent received feedback_pending feedback_received"`

	Attachments []string `json:"attachments" validate:"omitempty,max=20,dive,max=2048"`
	Attendees   []string `json:"attendees" validate:"omitempty,max=50,dive,max=255"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,max=100"`
}

func (in *ActivityInput) normalize() {
	trim(in.Subject)
	trim(in.Location)
	sanitize(in.Description)
	sanitize(in.Outcome)
	sanitize(in.FollowUpNotes)
	for i := range in.Attendees {
		p := &in.Attendees[i]
		trim(p)
	}
	for i := range in.Tags {
		p := &in.Tags[i]
		trim(p)
	}
}

func (in *ActivityInput) checkScalars() validator.Issues {
	var issues validator.Issues
	for path, id := range map[string]model.FlexID{
		"id":              in.ID,
		"contact_id":      in.ContactID,
		"organization_id": in.OrganizationID,
		"opportunity_id":  in.OpportunityID,
		"sales_id":        in.SalesID,
	} {
		if id.Set() && !id.Valid() {
			issues.Add(path, msgInvalidID)
		}
	}
	for path, d := range map[string]model.FlexDate{
		"activity_date":  in.ActivityDate,
		"due_date":       in.DueDate,
		"follow_up_date": in.FollowUpDate,
	} {
		if d.Set() && !d.Valid() {
			issues.Add(path, msgInvalidDate)
		}
	}
	return issues
}

// refine runs the cross-field rules shared by create and update. On the
// update path rules only fire when their governing fields are present.
func (in *ActivityInput) refine(partial bool) validator.Issues {
	var issues validator.Issues

	activityType := model.ActivityType("")
	if in.ActivityType != nil {
		activityType = model.ActivityType(*in.ActivityType)
	}

	// Entity linkage per variant.
	switch activityType {
	case model.ActivityInteraction:
		if !partial && !in.OpportunityID.Valid() {
			issues.Add("opportunity_id", msgOpportunityRequired)
		}
	case model.ActivityEngagement:
		if in.OpportunityID.Valid() {
			issues.Add("opportunity_id", msgOpportunityForbidden)
		}
	case model.ActivityTask:
		if !partial && !in.DueDate.Set() {
			issues.Add("due_date", msgDueDateRequired)
		}
	}

	// Non-task activities must reference a person or an organization.
	if !partial && activityType != model.ActivityTask {
		if !in.ContactID.Valid() && !in.OrganizationID.Valid() {
			issues.Add("contact_id", msgEntityRequired)
		}
	}

	// Required-together: follow_up_required implies a follow_up_date.
	if in.FollowUpRequired != nil && *in.FollowUpRequired && !in.FollowUpDate.Set() {
		issues.Add("follow_up_date", msgFollowUpDateRequired)
	}

	// Sample workflow sub-state.
	isSample := in.Type != nil && model.InteractionType(*in.Type) == model.InteractionSample
	if isSample && in.SampleStatus == nil && !partial {
		issues.Add("sample_status", msgSampleStatusRequired)
	}
	if !isSample && in.SampleStatus != nil && in.Type != nil {
		issues.Add("sample_status", msgSampleStatusOnly)
	}
	if in.SampleStatus != nil && model.SampleStatus(*in.SampleStatus).IsActive() {
		// Active samples must be chased: follow-up on, with a date.
		if in.FollowUpRequired == nil || !*in.FollowUpRequired {
			issues.Add("follow_up_required", msgFollowUpForSample)
		}
		if !in.FollowUpDate.Set() {
			issues.Add("follow_up_date", msgFollowUpDateRequired)
		}
	}

	return issues
}

// ParseCreateActivity validates a full activity create payload.
func ParseCreateActivity(data interface{}) (*ActivityInput, error) {
	var in ActivityInput
	issues := decode(data, &in)
	if !issues.Empty() {
		return nil, issues.ToError()
	}

	in.normalize()
	issues.Merge(validator.CheckStruct(&in))
	issues.Merge(in.checkScalars())

	if in.ActivityType == nil {
		issues.Add("activity_type", msgActivityTypeRequired)
	}
	if isBlank(in.Subject) {
		issues.Add("subject", msgSubjectRequired)
	}

	issues.Merge(in.refine(false))

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateCreateActivity runs the activity create schema and reports
// failures as a structured ValidationError.
func ValidateCreateActivity(data interface{}) error {
	_, err := ParseCreateActivity(data)
	return err
}

// ParseUpdateActivity validates a partial activity update. Cross-field rules
// only fire for the fields actually present.
func ParseUpdateActivity(data interface{}) (*ActivityInput, error) {
	var in ActivityInput
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
	if in.Subject != nil && *in.Subject == "" {
		issues.Add("subject", msgSubjectRequired)
	}

	issues.Merge(in.refine(true))

	if err := issues.ToError(); err != nil {
		return nil, err
	}
	return &in, nil
}

// ValidateUpdateActivity runs the activity update schema and reports
// failures as a structured ValidationError.
func ValidateUpdateActivity(data interface{}) error {
	_, err := ParseUpdateActivity(data)
	return err
}
