package model

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

func jsonArray(v interface{}) datatypes.JSON {
	bytes, _ := json.Marshal(v)
	return datatypes.JSON(bytes)
}

// NewOpportunity creates a new Opportunity instance with default fake data.
func NewOpportunity(overrideDefaults ...*Opportunity) *Opportunity {
	est := utils.Now().AddDate(0, 0, gofakeit.Number(7, 90))
	base := &Opportunity{
		ID:                      gofakeit.UUID(),
		Name:                    gofakeit.Company() + " - " + gofakeit.ProductName(),
		Description:             gofakeit.Sentence(12),
		Stage:                   string(gofakeit.RandomString([]string{"new_lead", "initial_outreach", "sample_visit_offered", "feedback_logged", "demo_scheduled"})),
		Priority:                string(gofakeit.RandomString([]string{"low", "medium", "high", "critical"})),
		EstimatedCloseDate:      &est,
		CustomerOrganizationID:  gofakeit.UUID(),
		PrincipalOrganizationID: gofakeit.UUID(),
		AccountManagerID:        gofakeit.UUID(),
		ContactIDs:              jsonArray([]int64{int64(gofakeit.Number(1, 9999))}),
		Status:                  string(StatusActive),
		Version:                 1,
		CreatedAt:               utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt:               utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		override := overrideDefaults[0]
		if override.ID != "" {
			base.ID = override.ID
		}
		if override.Name != "" {
			base.Name = override.Name
		}
		if override.Stage != "" {
			base.Stage = override.Stage
		}
		if override.Priority != "" {
			base.Priority = override.Priority
		}
		if override.CustomerOrganizationID != "" {
			base.CustomerOrganizationID = override.CustomerOrganizationID
		}
		if override.PrincipalOrganizationID != "" {
			base.PrincipalOrganizationID = override.PrincipalOrganizationID
		}
		if override.ContactIDs != nil {
			base.ContactIDs = override.ContactIDs
		}
		if override.WinReason != "" {
			base.WinReason = override.WinReason
		}
		if override.LossReason != "" {
			base.LossReason = override.LossReason
		}
		if override.DeletedAt != nil {
			base.DeletedAt = override.DeletedAt
		}
	}

	return base
}

// NewOpportunityProduct creates a new junction row with default fake data.
func NewOpportunityProduct(opportunityID, productID string) *OpportunityProduct {
	return &OpportunityProduct{
		ID:            gofakeit.UUID(),
		OpportunityID: opportunityID,
		ProductID:     productID,
		CreatedAt:     utils.Now(),
		UpdatedAt:     utils.Now(),
	}
}

// NewActivity creates a new Activity instance with default fake data.
func NewActivity(overrideDefaults ...*Activity) *Activity {
	when := utils.Now().Add(-time.Duration(gofakeit.Number(1, 72)) * time.Hour)
	base := &Activity{
		ID:             gofakeit.UUID(),
		ActivityType:   string(ActivityInteraction),
		Type:           string(gofakeit.RandomString([]string{"call", "email", "meeting", "demo"})),
		Subject:        gofakeit.Sentence(4),
		Description:    gofakeit.Paragraph(1, 3, 10, " "),
		ActivityDate:   &when,
		ContactID:      gofakeit.UUID(),
		OpportunityID:  gofakeit.UUID(),
		SalesID:        gofakeit.UUID(),
		Attendees:      jsonArray([]string{gofakeit.Name()}),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
		OrganizationID: gofakeit.UUID(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		override := overrideDefaults[0]
		if override.ActivityType != "" {
			base.ActivityType = override.ActivityType
		}
		if override.Type != "" {
			base.Type = override.Type
		}
		if override.Subject != "" {
			base.Subject = override.Subject
		}
		if override.OpportunityID != "" {
			base.OpportunityID = override.OpportunityID
		}
		if override.SampleStatus != "" {
			base.SampleStatus = override.SampleStatus
		}
	}

	return base
}

// NewContact creates a new Contact instance with default fake data.
func NewContact(overrideDefaults ...*Contact) *Contact {
	base := &Contact{
		ID:             gofakeit.UUID(),
		FirstName:      gofakeit.FirstName(),
		LastName:       gofakeit.LastName(),
		Email:          jsonArray([]EmailEntry{{Value: gofakeit.Email(), Type: string(EntryWork)}}),
		Phone:          jsonArray([]PhoneEntry{{Value: gofakeit.Phone(), Type: string(EntryWork)}}),
		Title:          gofakeit.JobTitle(),
		OrganizationID: gofakeit.UUID(),
		SalesID:        gofakeit.UUID(),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}
	base.Name = base.FirstName + " " + base.LastName

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		override := overrideDefaults[0]
		if override.FirstName != "" {
			base.FirstName = override.FirstName
		}
		if override.LastName != "" {
			base.LastName = override.LastName
		}
		if override.OrganizationID != "" {
			base.OrganizationID = override.OrganizationID
		}
		if override.SalesID != "" {
			base.SalesID = override.SalesID
		}
		base.Name = base.FirstName + " " + base.LastName
	}

	return base
}
